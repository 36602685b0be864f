// Package models defines the database row types shared by storage, the
// session engine, and the HTTP layer.
package models

import (
	"time"

	"github.com/google/uuid"
)

// InstanceStatus is the lifecycle state of a scheduled workout.
type InstanceStatus string

const (
	StatusNotStarted InstanceStatus = "not_started"
	StatusInProgress InstanceStatus = "in_progress"
	StatusCompleted  InstanceStatus = "completed"
)

// WorkoutInstanceRow is one scheduled occurrence of a workout for one
// athlete. Status and timestamps are mutated only by the session
// engine; a completed instance is immutable.
type WorkoutInstanceRow struct {
	ID            uuid.UUID      `json:"id"`
	WorkoutID     uuid.UUID      `json:"workout_id"`
	AthleteID     uuid.UUID      `json:"athlete_id"`
	ScheduledDate time.Time      `json:"scheduled_date"`
	Status        InstanceStatus `json:"status"`
	StartedAt     *time.Time     `json:"started_at,omitempty"`
	CompletedAt   *time.Time     `json:"completed_at,omitempty"`
	Notes         *string        `json:"notes,omitempty"`
}

// AthleteRow identifies an athlete. Only the fields the engine needs.
type AthleteRow struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Measurement is one collectible field in an exercise's metric schema.
type Measurement struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Unit string `json:"unit,omitempty"`
	Type string `json:"type,omitempty"`
}

// MetricSchema is the exercise's default field set.
type MetricSchema struct {
	Measurements []Measurement `json:"measurements"`
}

// ExerciseRow is a library exercise definition (read-only here).
type ExerciseRow struct {
	ID           uuid.UUID    `json:"id"`
	Name         string       `json:"name"`
	Category     string       `json:"category"`
	Description  *string      `json:"description,omitempty"`
	VideoURL     *string      `json:"video_url,omitempty"`
	MetricSchema MetricSchema `json:"metric_schema"`
}

// IntensityTarget declares a percentage of a tracked max metric, e.g.
// 75% of max weight.
type IntensityTarget struct {
	Metric  string  `json:"metric"`
	Percent float64 `json:"percent"`
}

// SetConfiguration is a per-set target override. When a routine
// exercise carries set configurations they take precedence over the
// uniform metric targets for the matching set index.
type SetConfiguration struct {
	MetricValues     map[string]float64 `json:"metric_values,omitempty"`
	IntensityType    string             `json:"intensity_type,omitempty"`
	IntensityPercent float64            `json:"intensity_percent,omitempty"`
	IsAMRAP          bool               `json:"is_amrap,omitempty"`
	Notes            string             `json:"notes,omitempty"`
}

// RoutineExerciseRow is one slot in a routine: an exercise binding (or
// placeholder when ExerciseID is nil), a target set count, and the
// programmed targets. EnabledMeasurements, when non-nil, is the
// authoritative field set; nil means "use the exercise's default
// schema" for bound exercises and "no fields" for placeholders.
type RoutineExerciseRow struct {
	ID                  uuid.UUID          `json:"id"`
	RoutineID           uuid.UUID          `json:"routine_id"`
	ExerciseID          *uuid.UUID         `json:"exercise_id,omitempty"`
	OrderIndex          int                `json:"order_index"`
	Sets                int                `json:"sets"`
	MetricTargets       map[string]float64 `json:"metric_targets,omitempty"`
	SetConfigurations   []SetConfiguration `json:"set_configurations,omitempty"`
	IntensityTargets    []IntensityTarget  `json:"intensity_targets,omitempty"`
	EnabledMeasurements []string           `json:"enabled_measurements,omitempty"`
	TrackedMaxMetrics   []string           `json:"tracked_max_metrics,omitempty"`
	IsAMRAP             bool               `json:"is_amrap,omitempty"`
	Notes               *string            `json:"notes,omitempty"`

	// Exercise is the joined library definition, nil for placeholders.
	Exercise *ExerciseRow `json:"exercise,omitempty"`
}

// IsPlaceholder reports whether this slot has no concrete exercise
// bound. Placeholders collect no metrics.
func (re RoutineExerciseRow) IsPlaceholder() bool {
	return re.ExerciseID == nil
}

// RoutineRow is an ordered block of exercises within a workout.
type RoutineRow struct {
	ID          uuid.UUID `json:"id"`
	WorkoutID   uuid.UUID `json:"workout_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Notes       *string   `json:"notes,omitempty"`
	OrderIndex  int       `json:"order_index"`

	Exercises []RoutineExerciseRow `json:"exercises"`
}

// WorkoutRow is the static program definition header.
type WorkoutRow struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
}

// Program is a workout with its routines and exercises fully loaded,
// in program order.
type Program struct {
	Workout  WorkoutRow   `json:"workout"`
	Routines []RoutineRow `json:"routines"`
}

// FlatExercises returns every routine exercise in program order.
func (p *Program) FlatExercises() []RoutineExerciseRow {
	var out []RoutineExerciseRow
	for _, r := range p.Routines {
		out = append(out, r.Exercises...)
	}
	return out
}

// ExerciseLogRow is one persisted set result. At most one row exists
// per (instance, routine exercise, set number). Reps and weight have
// dedicated columns; every other metric lives in the MetricData bag.
// A nil pointer in an actual_* column is a skipped or unrecorded
// value; an explicit JSON null inside MetricData is a skipped custom
// metric.
type ExerciseLogRow struct {
	ID                     uuid.UUID      `json:"id"`
	WorkoutInstanceID      uuid.UUID      `json:"workout_instance_id"`
	RoutineExerciseID      uuid.UUID      `json:"routine_exercise_id"`
	AthleteID              uuid.UUID      `json:"athlete_id"`
	ExerciseID             uuid.UUID      `json:"exercise_id"`
	SetNumber              int            `json:"set_number"`
	TargetSets             *int           `json:"target_sets,omitempty"`
	TargetReps             *float64       `json:"target_reps,omitempty"`
	TargetWeight           *float64       `json:"target_weight,omitempty"`
	TargetIntensityPercent *float64       `json:"target_intensity_percent,omitempty"`
	ActualReps             *float64       `json:"actual_reps,omitempty"`
	ActualWeight           *float64       `json:"actual_weight,omitempty"`
	MetricData             map[string]any `json:"metric_data,omitempty"`
	Notes                  *string        `json:"notes,omitempty"`
	LoggedAt               time.Time      `json:"logged_at"`
}

// LogUpdate carries the mutable columns of an exercise log row for an
// update-in-place.
type LogUpdate struct {
	ActualReps   *float64
	ActualWeight *float64
	MetricData   map[string]any
	Notes        *string
}

// AthleteMaxRow is one entry in the append-only personal-record
// ledger. Rows are never updated or deleted; the current max for a
// metric is the most recent row by AchievedOn.
type AthleteMaxRow struct {
	ID         uuid.UUID `json:"id"`
	AthleteID  uuid.UUID `json:"athlete_id"`
	ExerciseID uuid.UUID `json:"exercise_id"`
	MetricID   string    `json:"metric_id"`
	MaxValue   float64   `json:"max_value"`
	RepsAtMax  int       `json:"reps_at_max"`
	AchievedOn time.Time `json:"achieved_on"`
	Source     string    `json:"source"`
}

// MaxSourceLogged marks ledger entries promoted automatically from a
// completed session, as opposed to coach-entered testing maxes.
const MaxSourceLogged = "logged"
