package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// GetProgram loads a workout with its routines and routine exercises
// fully joined, in program order. The JSONB target columns decode into
// the model's typed fields; a SQL NULL decodes to the zero value so a
// routine exercise with no targets round-trips as empty maps and
// slices.
func (db *DB) GetProgram(ctx context.Context, workoutID uuid.UUID) (*models.Program, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT id, name, description FROM workouts WHERE id = $1`,
		workoutID)

	var program models.Program
	err := row.Scan(&program.Workout.ID, &program.Workout.Name, &program.Workout.Description)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("workout %s: %w", workoutID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying workout: %w", err)
	}

	routines, err := db.loadRoutines(ctx, workoutID)
	if err != nil {
		return nil, err
	}
	program.Routines = routines
	return &program, nil
}

func (db *DB) loadRoutines(ctx context.Context, workoutID uuid.UUID) ([]models.RoutineRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, workout_id, name, description, notes, order_index
		 FROM routines
		 WHERE workout_id = $1
		 ORDER BY order_index`,
		workoutID)
	if err != nil {
		return nil, fmt.Errorf("querying routines: %w", err)
	}
	defer rows.Close()

	var routines []models.RoutineRow
	for rows.Next() {
		var r models.RoutineRow
		if err := rows.Scan(&r.ID, &r.WorkoutID, &r.Name, &r.Description, &r.Notes, &r.OrderIndex); err != nil {
			return nil, fmt.Errorf("scanning routine: %w", err)
		}
		routines = append(routines, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range routines {
		exercises, err := db.loadRoutineExercises(ctx, routines[i].ID)
		if err != nil {
			return nil, err
		}
		routines[i].Exercises = exercises
	}
	return routines, nil
}

func (db *DB) loadRoutineExercises(ctx context.Context, routineID uuid.UUID) ([]models.RoutineExerciseRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT re.id, re.routine_id, re.exercise_id, re.order_index, re.sets,
		        re.metric_targets, re.set_configurations, re.intensity_targets,
		        re.enabled_measurements, re.tracked_max_metrics, re.is_amrap, re.notes,
		        e.id, e.name, e.category, e.description, e.video_url, e.metric_schema
		 FROM routine_exercises re
		 LEFT JOIN exercises e ON e.id = re.exercise_id
		 WHERE re.routine_id = $1
		 ORDER BY re.order_index`,
		routineID)
	if err != nil {
		return nil, fmt.Errorf("querying routine exercises: %w", err)
	}
	defer rows.Close()

	var result []models.RoutineExerciseRow
	for rows.Next() {
		var (
			re           models.RoutineExerciseRow
			targetsJSON  []byte
			configsJSON  []byte
			intensityJS  []byte
			enabledJSON  []byte
			trackedJSON  []byte
			exID         *uuid.UUID
			exName       *string
			exCategory   *string
			exDesc       *string
			exVideo      *string
			exSchemaJSON []byte
		)
		err := rows.Scan(&re.ID, &re.RoutineID, &re.ExerciseID, &re.OrderIndex, &re.Sets,
			&targetsJSON, &configsJSON, &intensityJS,
			&enabledJSON, &trackedJSON, &re.IsAMRAP, &re.Notes,
			&exID, &exName, &exCategory, &exDesc, &exVideo, &exSchemaJSON)
		if err != nil {
			return nil, fmt.Errorf("scanning routine exercise: %w", err)
		}

		if err := decodeJSONB(targetsJSON, &re.MetricTargets); err != nil {
			return nil, fmt.Errorf("decoding metric targets for %s: %w", re.ID, err)
		}
		if err := decodeJSONB(configsJSON, &re.SetConfigurations); err != nil {
			return nil, fmt.Errorf("decoding set configurations for %s: %w", re.ID, err)
		}
		if err := decodeJSONB(intensityJS, &re.IntensityTargets); err != nil {
			return nil, fmt.Errorf("decoding intensity targets for %s: %w", re.ID, err)
		}
		if err := decodeJSONB(enabledJSON, &re.EnabledMeasurements); err != nil {
			return nil, fmt.Errorf("decoding enabled measurements for %s: %w", re.ID, err)
		}
		if err := decodeJSONB(trackedJSON, &re.TrackedMaxMetrics); err != nil {
			return nil, fmt.Errorf("decoding tracked max metrics for %s: %w", re.ID, err)
		}

		if exID != nil {
			ex := models.ExerciseRow{
				ID:          *exID,
				Category:    deref(exCategory),
				Description: exDesc,
				VideoURL:    exVideo,
			}
			if exName != nil {
				ex.Name = *exName
			}
			if err := decodeJSONB(exSchemaJSON, &ex.MetricSchema); err != nil {
				return nil, fmt.Errorf("decoding metric schema for %s: %w", *exID, err)
			}
			re.Exercise = &ex
		}
		result = append(result, re)
	}
	return result, rows.Err()
}

// GetExercise retrieves one library exercise by id.
func (db *DB) GetExercise(ctx context.Context, id uuid.UUID) (*models.ExerciseRow, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT id, name, category, description, video_url, metric_schema
		 FROM exercises WHERE id = $1`,
		id)

	var (
		ex         models.ExerciseRow
		schemaJSON []byte
	)
	err := row.Scan(&ex.ID, &ex.Name, &ex.Category, &ex.Description, &ex.VideoURL, &schemaJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("exercise %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying exercise: %w", err)
	}
	if err := decodeJSONB(schemaJSON, &ex.MetricSchema); err != nil {
		return nil, fmt.Errorf("decoding metric schema: %w", err)
	}
	return &ex, nil
}

// decodeJSONB unmarshals a JSONB column, treating SQL NULL as the
// destination's zero value.
func decodeJSONB(raw []byte, dest any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dest)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
