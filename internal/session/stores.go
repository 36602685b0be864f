package session

import (
	"context"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
)

// InstanceStore reads and mutates workout instance lifecycle state.
type InstanceStore interface {
	GetInstance(ctx context.Context, id uuid.UUID) (*models.WorkoutInstanceRow, error)
	StartInstance(ctx context.Context, id uuid.UUID, startedAt time.Time) error
	CompleteInstance(ctx context.Context, id uuid.UUID, completedAt time.Time) error
	ResetInstanceStart(ctx context.Context, id uuid.UUID, startedAt time.Time) error
}

// ProgramStore loads the static program definition for a workout.
type ProgramStore interface {
	GetProgram(ctx context.Context, workoutID uuid.UUID) (*models.Program, error)
}

// LogStore persists per-set exercise logs.
type LogStore interface {
	ListInstanceLogs(ctx context.Context, instanceID uuid.UUID) ([]models.ExerciseLogRow, error)
	InsertLog(ctx context.Context, row *models.ExerciseLogRow) error
	UpdateLog(ctx context.Context, id uuid.UUID, upd models.LogUpdate) error
	DeleteInstanceLogs(ctx context.Context, instanceID uuid.UUID) error
}

// MaxStore reads and appends the personal-record ledger. AppendMax is
// the only write; ledger rows are never updated or deleted.
type MaxStore interface {
	CurrentMax(ctx context.Context, athleteID, exerciseID uuid.UUID, metricID string) (*models.AthleteMaxRow, error)
	CurrentMaxes(ctx context.Context, athleteID, exerciseID uuid.UUID) (map[string]float64, error)
	AppendMax(ctx context.Context, row *models.AthleteMaxRow) error
}

// AthleteStore resolves athlete identity for snapshot labeling.
type AthleteStore interface {
	GetAthlete(ctx context.Context, id uuid.UUID) (*models.AthleteRow, error)
}

// SnapshotStore is the local crash-recovery slot. Save overwrites the
// single slot; Load returns (nil, nil) when no usable snapshot exists;
// Clear empties the slot. The store does not validate instance
// identity — the caller discards mismatched snapshots.
type SnapshotStore interface {
	Save(snap *Snapshot) error
	Load() (*Snapshot, error)
	Clear() error
}
