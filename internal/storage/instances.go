package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrNotFound is returned when a row the caller named does not exist.
var ErrNotFound = errors.New("storage: not found")

// GetInstance retrieves one workout instance by id.
func (db *DB) GetInstance(ctx context.Context, id uuid.UUID) (*models.WorkoutInstanceRow, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT id, workout_id, athlete_id, scheduled_date, status, started_at, completed_at, notes
		 FROM workout_instances
		 WHERE id = $1`,
		id)

	var inst models.WorkoutInstanceRow
	err := row.Scan(&inst.ID, &inst.WorkoutID, &inst.AthleteID, &inst.ScheduledDate,
		&inst.Status, &inst.StartedAt, &inst.CompletedAt, &inst.Notes)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("instance %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying instance: %w", err)
	}
	return &inst, nil
}

// ListAthleteInstances retrieves an athlete's scheduled instances in a
// date range, most recent first.
func (db *DB) ListAthleteInstances(ctx context.Context, athleteID uuid.UUID, from, to time.Time) ([]models.WorkoutInstanceRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, workout_id, athlete_id, scheduled_date, status, started_at, completed_at, notes
		 FROM workout_instances
		 WHERE athlete_id = $1 AND scheduled_date >= $2 AND scheduled_date < $3
		 ORDER BY scheduled_date DESC`,
		athleteID, from, to)
	if err != nil {
		return nil, fmt.Errorf("querying instances: %w", err)
	}
	defer rows.Close()

	var result []models.WorkoutInstanceRow
	for rows.Next() {
		var inst models.WorkoutInstanceRow
		if err := rows.Scan(&inst.ID, &inst.WorkoutID, &inst.AthleteID, &inst.ScheduledDate,
			&inst.Status, &inst.StartedAt, &inst.CompletedAt, &inst.Notes); err != nil {
			return nil, fmt.Errorf("scanning instance: %w", err)
		}
		result = append(result, inst)
	}
	return result, rows.Err()
}

// LatestCompletedInstance returns the athlete's most recently completed
// instance, or ErrNotFound when none exists.
func (db *DB) LatestCompletedInstance(ctx context.Context, athleteID uuid.UUID) (*models.WorkoutInstanceRow, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT id, workout_id, athlete_id, scheduled_date, status, started_at, completed_at, notes
		 FROM workout_instances
		 WHERE athlete_id = $1 AND status = 'completed'
		 ORDER BY completed_at DESC
		 LIMIT 1`,
		athleteID)

	var inst models.WorkoutInstanceRow
	err := row.Scan(&inst.ID, &inst.WorkoutID, &inst.AthleteID, &inst.ScheduledDate,
		&inst.Status, &inst.StartedAt, &inst.CompletedAt, &inst.Notes)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("no completed instance for athlete %s: %w", athleteID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest completed instance: %w", err)
	}
	return &inst, nil
}

// StartInstance marks an instance in progress with the given start
// time. The status guard keeps a concurrent completion from being
// rewound.
func (db *DB) StartInstance(ctx context.Context, id uuid.UUID, startedAt time.Time) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE workout_instances
		 SET status = 'in_progress', started_at = $2
		 WHERE id = $1 AND status != 'completed'`,
		id, startedAt)
	if err != nil {
		return fmt.Errorf("starting instance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("instance %s not startable: %w", id, ErrNotFound)
	}
	return nil
}

// CompleteInstance marks an in-progress instance completed.
func (db *DB) CompleteInstance(ctx context.Context, id uuid.UUID, completedAt time.Time) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE workout_instances
		 SET status = 'completed', completed_at = $2
		 WHERE id = $1 AND status = 'in_progress'`,
		id, completedAt)
	if err != nil {
		return fmt.Errorf("completing instance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("instance %s not in progress: %w", id, ErrNotFound)
	}
	return nil
}

// ResetInstanceStart rewrites the start time of an in-progress
// instance, used by session restart.
func (db *DB) ResetInstanceStart(ctx context.Context, id uuid.UUID, startedAt time.Time) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE workout_instances
		 SET started_at = $2, completed_at = NULL
		 WHERE id = $1 AND status = 'in_progress'`,
		id, startedAt)
	if err != nil {
		return fmt.Errorf("resetting instance start: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("instance %s not in progress: %w", id, ErrNotFound)
	}
	return nil
}
