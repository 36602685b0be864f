package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
)

const exerciseLogColumns = `id, workout_instance_id, routine_exercise_id, athlete_id, exercise_id,
	set_number, target_sets, target_reps, target_weight, target_intensity_percent,
	actual_reps, actual_weight, metric_data, notes, logged_at`

// ListInstanceLogs retrieves every log row for an instance, ordered by
// routine exercise then set number.
func (db *DB) ListInstanceLogs(ctx context.Context, instanceID uuid.UUID) ([]models.ExerciseLogRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+exerciseLogColumns+`
		 FROM exercise_logs
		 WHERE workout_instance_id = $1
		 ORDER BY routine_exercise_id, set_number`,
		instanceID)
	if err != nil {
		return nil, fmt.Errorf("querying instance logs: %w", err)
	}
	defer rows.Close()
	return scanExerciseLogs(rows)
}

// ListExerciseHistory retrieves an athlete's log rows for one exercise
// across all instances, most recent first. Used by the coaching tools
// to show progression.
func (db *DB) ListExerciseHistory(ctx context.Context, athleteID, exerciseID uuid.UUID, limit int) ([]models.ExerciseLogRow, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT `+exerciseLogColumns+`
		 FROM exercise_logs
		 WHERE athlete_id = $1 AND exercise_id = $2
		 ORDER BY logged_at DESC, set_number
		 LIMIT $3`,
		athleteID, exerciseID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying exercise history: %w", err)
	}
	defer rows.Close()
	return scanExerciseLogs(rows)
}

// InsertLog inserts one set log row. The unique key on (instance,
// routine exercise, set number) upgrades a concurrent duplicate insert
// into an update of the actuals.
func (db *DB) InsertLog(ctx context.Context, row *models.ExerciseLogRow) error {
	metricData, err := encodeJSONB(row.MetricData)
	if err != nil {
		return fmt.Errorf("encoding metric data: %w", err)
	}
	_, err = db.Pool.Exec(ctx,
		`INSERT INTO exercise_logs (`+exerciseLogColumns+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		 ON CONFLICT (workout_instance_id, routine_exercise_id, set_number)
		 DO UPDATE SET actual_reps = EXCLUDED.actual_reps,
		               actual_weight = EXCLUDED.actual_weight,
		               metric_data = EXCLUDED.metric_data,
		               notes = EXCLUDED.notes,
		               logged_at = EXCLUDED.logged_at`,
		row.ID, row.WorkoutInstanceID, row.RoutineExerciseID, row.AthleteID, row.ExerciseID,
		row.SetNumber, row.TargetSets, row.TargetReps, row.TargetWeight, row.TargetIntensityPercent,
		row.ActualReps, row.ActualWeight, metricData, row.Notes, row.LoggedAt)
	if err != nil {
		return fmt.Errorf("inserting exercise log: %w", err)
	}
	return nil
}

// UpdateLog rewrites the actuals of an existing log row. Targets are
// immutable once stamped.
func (db *DB) UpdateLog(ctx context.Context, id uuid.UUID, upd models.LogUpdate) error {
	metricData, err := encodeJSONB(upd.MetricData)
	if err != nil {
		return fmt.Errorf("encoding metric data: %w", err)
	}
	tag, err := db.Pool.Exec(ctx,
		`UPDATE exercise_logs
		 SET actual_reps = $2, actual_weight = $3, metric_data = $4, notes = $5
		 WHERE id = $1`,
		id, upd.ActualReps, upd.ActualWeight, metricData, upd.Notes)
	if err != nil {
		return fmt.Errorf("updating exercise log: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("exercise log %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteInstanceLogs removes every log row for an instance. Session
// restart only.
func (db *DB) DeleteInstanceLogs(ctx context.Context, instanceID uuid.UUID) error {
	_, err := db.Pool.Exec(ctx,
		`DELETE FROM exercise_logs WHERE workout_instance_id = $1`,
		instanceID)
	if err != nil {
		return fmt.Errorf("deleting instance logs: %w", err)
	}
	return nil
}

func scanExerciseLogs(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]models.ExerciseLogRow, error) {
	var result []models.ExerciseLogRow
	for rows.Next() {
		var (
			l          models.ExerciseLogRow
			metricData []byte
		)
		err := rows.Scan(&l.ID, &l.WorkoutInstanceID, &l.RoutineExerciseID, &l.AthleteID, &l.ExerciseID,
			&l.SetNumber, &l.TargetSets, &l.TargetReps, &l.TargetWeight, &l.TargetIntensityPercent,
			&l.ActualReps, &l.ActualWeight, &metricData, &l.Notes, &l.LoggedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning exercise log: %w", err)
		}
		if err := decodeJSONB(metricData, &l.MetricData); err != nil {
			return nil, fmt.Errorf("decoding metric data for %s: %w", l.ID, err)
		}
		result = append(result, l)
	}
	return result, rows.Err()
}

// encodeJSONB marshals a metric bag for a JSONB column, mapping an
// empty bag to SQL NULL.
func encodeJSONB(m map[string]any) (any, error) {
	if len(m) == 0 {
		return nil, nil
	}
	return json.Marshal(m)
}
