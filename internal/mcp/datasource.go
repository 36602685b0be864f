package mcp

import (
	"context"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/storage"
	"github.com/google/uuid"
)

// DataSource abstracts the data layer for MCP tools. Both *storage.DB
// (local) and HTTPClient (remote via the REST API) satisfy this
// interface.
type DataSource interface {
	GetInstance(ctx context.Context, id uuid.UUID) (*models.WorkoutInstanceRow, error)
	ListAthleteInstances(ctx context.Context, athleteID uuid.UUID, from, to time.Time) ([]models.WorkoutInstanceRow, error)
	ListMaxHistory(ctx context.Context, athleteID uuid.UUID, exerciseID *uuid.UUID) ([]models.AthleteMaxRow, error)
	ListExerciseHistory(ctx context.Context, athleteID, exerciseID uuid.UUID, limit int) ([]models.ExerciseLogRow, error)
	GetProgram(ctx context.Context, workoutID uuid.UUID) (*models.Program, error)
}

// Compile-time check: *storage.DB satisfies DataSource.
var _ DataSource = (*storage.DB)(nil)
