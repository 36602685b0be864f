// Package session implements the workout execution engine: the state
// machine that turns a scheduled workout instance into a live,
// resumable logging session, reconciles athlete input against
// programmed targets, and promotes qualifying values into the
// personal-record ledger.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
)

var (
	ErrNotStarted       = errors.New("session: workout not started")
	ErrAlreadyStarted   = errors.New("session: workout already started")
	ErrAlreadyCompleted = errors.New("session: workout already completed")
	ErrUnknownExercise  = errors.New("session: unknown routine exercise")
)

// Stores bundles the collaborators the engine writes through.
type Stores struct {
	Instances InstanceStore
	Programs  ProgramStore
	Logs      LogStore
	Maxes     MaxStore
	Athletes  AthleteStore
	Snapshots SnapshotStore
}

// Session owns one in-flight workout instance: its lifecycle status,
// elapsed-time origin, input model, and the local recovery snapshot.
// Sessions are not safe for concurrent use; the HTTP layer serializes
// access.
type Session struct {
	stores Stores
	log    *slog.Logger
	now    func() time.Time
	newID  func() uuid.UUID

	instance    *models.WorkoutInstanceRow
	athleteName string
	program     *models.Program
	inputs      *InputModel
	logRows     []models.ExerciseLogRow
	maxes       map[uuid.UUID]map[string]float64
	startedAt   time.Time
	resumed     bool
}

// Option configures a Session at open time.
type Option func(*Session)

// WithLogger sets the diagnostics logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Session) { s.log = log }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithIDSource overrides row id generation, for tests.
func WithIDSource(newID func() uuid.UUID) Option {
	return func(s *Session) { s.newID = newID }
}

// Open loads an instance with its program, prior logs, and athlete
// maxes, then hydrates the input model — from the local snapshot when
// one exists for this instance, otherwise from the persisted logs.
//
// Resuming from a snapshot keeps elapsed time continuous: the timer
// origin is the snapshot's started-at, and if the persisted instance
// is still not started (the crash happened before the status write
// landed, or mid-write), the instance is started using the snapshot's
// origin rather than now.
func Open(ctx context.Context, stores Stores, instanceID uuid.UUID, opts ...Option) (*Session, error) {
	s := &Session{
		stores: stores,
		log:    slog.Default(),
		now:    time.Now,
		newID:  uuid.New,
		maxes:  map[uuid.UUID]map[string]float64{},
	}
	for _, opt := range opts {
		opt(s)
	}

	instance, err := stores.Instances.GetInstance(ctx, instanceID)
	if err != nil {
		return nil, fmt.Errorf("loading instance: %w", err)
	}
	s.instance = instance

	program, err := stores.Programs.GetProgram(ctx, instance.WorkoutID)
	if err != nil {
		return nil, fmt.Errorf("loading program: %w", err)
	}
	s.program = program

	logs, err := stores.Logs.ListInstanceLogs(ctx, instanceID)
	if err != nil {
		return nil, fmt.Errorf("loading logs: %w", err)
	}
	s.logRows = logs

	if athlete, err := stores.Athletes.GetAthlete(ctx, instance.AthleteID); err != nil {
		s.log.Warn("athlete lookup failed", "athlete_id", instance.AthleteID, "error", err)
	} else {
		s.athleteName = athlete.Name
	}

	s.loadMaxes(ctx)
	s.inputs = newInputModel(program)

	if snap := s.usableSnapshot(); snap != nil {
		s.inputs.hydrateFromSnapshot(snap, s.maxes)
		s.startedAt = snap.StartedAt
		s.resumed = true

		if instance.Status == models.StatusNotStarted {
			if err := stores.Instances.StartInstance(ctx, instanceID, snap.StartedAt); err != nil {
				return nil, fmt.Errorf("starting resumed instance: %w", err)
			}
			instance.Status = models.StatusInProgress
			t := snap.StartedAt
			instance.StartedAt = &t
		}
		return s, nil
	}

	s.inputs.hydrateFromLogs(logs, s.maxes)
	if instance.StartedAt != nil {
		s.startedAt = *instance.StartedAt
	}
	return s, nil
}

// usableSnapshot loads the local slot and applies the discard rules: a
// missing slot, a schema version mismatch, or a snapshot belonging to
// a different instance all count as "no snapshot". Mismatches are
// ignored entirely, never partially applied.
func (s *Session) usableSnapshot() *Snapshot {
	if s.stores.Snapshots == nil {
		return nil
	}
	snap, err := s.stores.Snapshots.Load()
	if err != nil {
		s.log.Warn("snapshot load failed", "error", err)
		return nil
	}
	if snap == nil {
		return nil
	}
	if snap.SchemaVersion != SnapshotSchemaVersion {
		s.log.Warn("snapshot schema version mismatch, ignoring",
			"have", snap.SchemaVersion, "want", SnapshotSchemaVersion)
		return nil
	}
	if snap.WorkoutInstanceID != s.instance.ID {
		return nil
	}
	if s.instance.Status == models.StatusCompleted {
		return nil
	}
	return snap
}

// loadMaxes fetches current maxes per bound exercise. Failures degrade
// to "no max known" (static targets apply) rather than blocking open.
func (s *Session) loadMaxes(ctx context.Context) {
	seen := map[uuid.UUID]bool{}
	for _, re := range s.program.FlatExercises() {
		if re.ExerciseID == nil || seen[*re.ExerciseID] {
			continue
		}
		seen[*re.ExerciseID] = true
		maxes, err := s.stores.Maxes.CurrentMaxes(ctx, s.instance.AthleteID, *re.ExerciseID)
		if err != nil {
			s.log.Warn("max lookup failed", "exercise_id", *re.ExerciseID, "error", err)
			continue
		}
		if len(maxes) > 0 {
			s.maxes[*re.ExerciseID] = maxes
		}
	}
}

// Instance returns the instance as the session last saw it.
func (s *Session) Instance() models.WorkoutInstanceRow { return *s.instance }

// Program returns the loaded program definition.
func (s *Session) Program() *models.Program { return s.program }

// Inputs exposes the input model for read access.
func (s *Session) Inputs() *InputModel { return s.inputs }

// Resumed reports whether this session was rebuilt from a snapshot.
func (s *Session) Resumed() bool { return s.resumed }

// Elapsed is the running timer: continuous from the original start,
// surviving interruption and resume.
func (s *Session) Elapsed() time.Duration {
	if s.startedAt.IsZero() {
		return 0
	}
	return s.now().Sub(s.startedAt)
}

// Start transitions not_started → in_progress and begins the timer.
func (s *Session) Start(ctx context.Context) error {
	switch s.instance.Status {
	case models.StatusCompleted:
		return ErrAlreadyCompleted
	case models.StatusInProgress:
		return ErrAlreadyStarted
	}

	now := s.now()
	if err := s.stores.Instances.StartInstance(ctx, s.instance.ID, now); err != nil {
		return fmt.Errorf("starting instance: %w", err)
	}
	s.instance.Status = models.StatusInProgress
	s.instance.StartedAt = &now
	s.startedAt = now
	return nil
}

// SetField records one field edit and refreshes the recovery snapshot.
// Edits require an in-progress session.
func (s *Session) SetField(ctx context.Context, reID uuid.UUID, setIndex int, metricID string, raw any) error {
	if err := s.requireInProgress(); err != nil {
		return err
	}
	if err := s.inputs.SetField(reID, setIndex, metricID, raw, s.now()); err != nil {
		return err
	}
	s.saveSnapshot()
	return nil
}

// MarkSetDone flips a set's explicit completion toggle.
func (s *Session) MarkSetDone(ctx context.Context, reID uuid.UUID, setIndex int, done bool) error {
	if err := s.requireInProgress(); err != nil {
		return err
	}
	if err := s.inputs.MarkDone(reID, setIndex, done, s.now()); err != nil {
		return err
	}
	s.saveSnapshot()
	return nil
}

// SetCurrentExercise moves the position cursor.
func (s *Session) SetCurrentExercise(i int) {
	s.inputs.SetCurrentExercise(i)
	if s.instance.Status == models.StatusInProgress {
		s.saveSnapshot()
	}
}

// Validate runs the completion check without side effects.
func (s *Session) Validate() []ExerciseValidation {
	return s.inputs.Validate()
}

// CompleteResult is the structured outcome of a Complete call. When
// NeedsConfirmation is set nothing was written; the caller should show
// the validation warnings and call Complete again with confirm=true to
// proceed (incomplete sets then simply produce no rows).
type CompleteResult struct {
	NeedsConfirmation bool                   `json:"needs_confirmation"`
	Validation        []ExerciseValidation   `json:"validation,omitempty"`
	LogsWritten       int                    `json:"logs_written"`
	WriteFailures     []WriteFailure         `json:"write_failures,omitempty"`
	PromotedMaxes     []models.AthleteMaxRow `json:"promoted_maxes,omitempty"`
	SkippedMaxes      []SkippedMax           `json:"skipped_maxes,omitempty"`
	MaxFailures       []MaxFailure           `json:"max_failures,omitempty"`
}

// Complete runs the full completion sequence: validation gate, log
// reconciliation, max promotion, terminal status write, snapshot
// clear. Individual row failures are collected and do not stop the
// sequence — the session still transitions to completed on a partial
// save, because stranding the athlete on a transient backend error is
// worse than a best-effort write.
func (s *Session) Complete(ctx context.Context, confirm bool) (*CompleteResult, error) {
	if err := s.requireInProgress(); err != nil {
		return nil, err
	}

	validation := s.inputs.Validate()
	if len(validation) > 0 && !confirm {
		return &CompleteResult{NeedsConfirmation: true, Validation: validation}, nil
	}

	result := &CompleteResult{Validation: validation}
	result.LogsWritten, result.WriteFailures = s.reconcileLogs(ctx)
	result.PromotedMaxes, result.SkippedMaxes, result.MaxFailures = s.promoteMaxes(ctx)

	now := s.now()
	if err := s.stores.Instances.CompleteInstance(ctx, s.instance.ID, now); err != nil {
		return result, fmt.Errorf("completing instance: %w", err)
	}
	s.instance.Status = models.StatusCompleted
	s.instance.CompletedAt = &now

	if s.stores.Snapshots != nil {
		if err := s.stores.Snapshots.Clear(); err != nil {
			s.log.Warn("snapshot clear failed", "error", err)
		}
	}
	return result, nil
}

// Restart wipes the instance's logs and restarts the timer at now.
// Administrative — not a normal lifecycle transition. The input model
// is rebuilt from the now-empty log set.
func (s *Session) Restart(ctx context.Context) error {
	if err := s.requireInProgress(); err != nil {
		return err
	}

	if err := s.stores.Logs.DeleteInstanceLogs(ctx, s.instance.ID); err != nil {
		return fmt.Errorf("deleting instance logs: %w", err)
	}
	now := s.now()
	if err := s.stores.Instances.ResetInstanceStart(ctx, s.instance.ID, now); err != nil {
		return fmt.Errorf("resetting instance start: %w", err)
	}
	s.instance.StartedAt = &now
	s.startedAt = now
	s.logRows = nil
	s.resumed = false

	s.inputs = newInputModel(s.program)
	s.inputs.hydrateFromLogs(nil, s.maxes)
	// Overwrite the recovery slot so a crash after restart resumes the
	// fresh state, not the pre-restart inputs.
	s.saveSnapshot()
	return nil
}

func (s *Session) requireInProgress() error {
	switch s.instance.Status {
	case models.StatusCompleted:
		return ErrAlreadyCompleted
	case models.StatusNotStarted:
		return ErrNotStarted
	}
	return nil
}

// saveSnapshot refreshes the local recovery slot. Fire and forget:
// failures are logged, never surfaced to the edit path. Saves are
// suppressed until the session is in progress so a snapshot is never
// persisted for a workout that hasn't started.
func (s *Session) saveSnapshot() {
	if s.stores.Snapshots == nil || s.program == nil {
		return
	}
	if s.instance.Status != models.StatusInProgress {
		return
	}
	if err := s.stores.Snapshots.Save(s.snapshot()); err != nil {
		s.log.Warn("snapshot save failed", "error", err)
	}
}
