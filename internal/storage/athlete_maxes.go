package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const athleteMaxColumns = `id, athlete_id, exercise_id, metric_id, max_value, reps_at_max, achieved_on, source`

// CurrentMax returns the athlete's standing max for one metric of one
// exercise: the most recent ledger row by achieved date. Returns
// (nil, nil) when no max has been recorded.
func (db *DB) CurrentMax(ctx context.Context, athleteID, exerciseID uuid.UUID, metricID string) (*models.AthleteMaxRow, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT `+athleteMaxColumns+`
		 FROM athlete_maxes
		 WHERE athlete_id = $1 AND exercise_id = $2 AND metric_id = $3
		 ORDER BY achieved_on DESC, id DESC
		 LIMIT 1`,
		athleteID, exerciseID, metricID)

	var m models.AthleteMaxRow
	err := row.Scan(&m.ID, &m.AthleteID, &m.ExerciseID, &m.MetricID,
		&m.MaxValue, &m.RepsAtMax, &m.AchievedOn, &m.Source)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying current max: %w", err)
	}
	return &m, nil
}

// CurrentMaxes returns the athlete's standing max per metric for one
// exercise, keyed by metric id.
func (db *DB) CurrentMaxes(ctx context.Context, athleteID, exerciseID uuid.UUID) (map[string]float64, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT DISTINCT ON (metric_id) metric_id, max_value
		 FROM athlete_maxes
		 WHERE athlete_id = $1 AND exercise_id = $2
		 ORDER BY metric_id, achieved_on DESC, id DESC`,
		athleteID, exerciseID)
	if err != nil {
		return nil, fmt.Errorf("querying current maxes: %w", err)
	}
	defer rows.Close()

	result := map[string]float64{}
	for rows.Next() {
		var (
			metricID string
			value    float64
		)
		if err := rows.Scan(&metricID, &value); err != nil {
			return nil, fmt.Errorf("scanning current max: %w", err)
		}
		result[metricID] = value
	}
	return result, rows.Err()
}

// ListMaxHistory retrieves the full ledger for an athlete, newest
// first, optionally filtered to one exercise.
func (db *DB) ListMaxHistory(ctx context.Context, athleteID uuid.UUID, exerciseID *uuid.UUID) ([]models.AthleteMaxRow, error) {
	query := `SELECT ` + athleteMaxColumns + `
		 FROM athlete_maxes
		 WHERE athlete_id = $1`
	args := []any{athleteID}
	if exerciseID != nil {
		query += ` AND exercise_id = $2`
		args = append(args, *exerciseID)
	}
	query += ` ORDER BY achieved_on DESC, id DESC`

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying max history: %w", err)
	}
	defer rows.Close()

	var result []models.AthleteMaxRow
	for rows.Next() {
		var m models.AthleteMaxRow
		if err := rows.Scan(&m.ID, &m.AthleteID, &m.ExerciseID, &m.MetricID,
			&m.MaxValue, &m.RepsAtMax, &m.AchievedOn, &m.Source); err != nil {
			return nil, fmt.Errorf("scanning max row: %w", err)
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

// AppendMax inserts one ledger row. The ledger is append-only; there is
// deliberately no update or delete here.
func (db *DB) AppendMax(ctx context.Context, row *models.AthleteMaxRow) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO athlete_maxes (`+athleteMaxColumns+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		row.ID, row.AthleteID, row.ExerciseID, row.MetricID,
		row.MaxValue, row.RepsAtMax, row.AchievedOn, row.Source)
	if err != nil {
		return fmt.Errorf("appending athlete max: %w", err)
	}
	return nil
}

// GetAthlete retrieves an athlete by id.
func (db *DB) GetAthlete(ctx context.Context, id uuid.UUID) (*models.AthleteRow, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT id, name FROM athletes WHERE id = $1`,
		id)

	var a models.AthleteRow
	err := row.Scan(&a.ID, &a.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("athlete %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying athlete: %w", err)
	}
	return &a, nil
}
