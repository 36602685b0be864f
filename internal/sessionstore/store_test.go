package sessionstore

import (
	"testing"
	"time"

	"github.com/claude/liftlog/internal/session"
	"github.com/google/uuid"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// TestSaveLoadRoundTrip verifies that a saved snapshot comes back
// intact, including nested set logs with the dash skip sentinel.
func TestSaveLoadRoundTrip(t *testing.T) {
	s := openTestStore(t)

	snap := &session.Snapshot{
		SchemaVersion:     session.SnapshotSchemaVersion,
		WorkoutInstanceID: uuid.New(),
		AthleteID:         uuid.New(),
		AthleteName:       "Jordan",
		WorkoutName:       "Lower A",
		StartedAt:         time.Now().UTC().Truncate(time.Second),
		Exercises: []session.SnapshotExercise{{
			ID:   uuid.New(),
			Name: "Back Squat",
			Sets: 3,
			SetLogs: []map[string]any{
				{"set_number": 1, "reps": 5, "rpe": "-"},
			},
		}},
	}
	if err := s.Save(snap); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got == nil {
		t.Fatal("Load returned nil for a saved snapshot")
	}
	if got.WorkoutInstanceID != snap.WorkoutInstanceID || got.WorkoutName != "Lower A" {
		t.Fatalf("loaded = %+v", got)
	}
	if len(got.Exercises) != 1 || len(got.Exercises[0].SetLogs) != 1 {
		t.Fatalf("exercises = %+v", got.Exercises)
	}
	if got.Exercises[0].SetLogs[0]["rpe"] != "-" {
		t.Fatalf("rpe = %v, want dash sentinel", got.Exercises[0].SetLogs[0]["rpe"])
	}
}

// TestLoadEmptySlot verifies the empty slot reads as (nil, nil).
func TestLoadEmptySlot(t *testing.T) {
	s := openTestStore(t)
	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != nil {
		t.Fatalf("Load on empty slot = %+v, want nil", got)
	}
}

// TestSaveOverwritesSlot verifies the single-slot behavior: a second
// save replaces the first entirely.
func TestSaveOverwritesSlot(t *testing.T) {
	s := openTestStore(t)
	first := uuid.New()
	second := uuid.New()

	for _, id := range []uuid.UUID{first, second} {
		err := s.Save(&session.Snapshot{
			SchemaVersion:     session.SnapshotSchemaVersion,
			WorkoutInstanceID: id,
			StartedAt:         time.Now(),
		})
		if err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got == nil || got.WorkoutInstanceID != second {
		t.Fatalf("loaded instance = %v, want %v", got, second)
	}
}

// TestStaleSnapshotDiscarded verifies that a snapshot older than the
// staleness window is dropped on load and the slot is cleared.
func TestStaleSnapshotDiscarded(t *testing.T) {
	s := openTestStore(t)
	err := s.Save(&session.Snapshot{
		SchemaVersion:     session.SnapshotSchemaVersion,
		WorkoutInstanceID: uuid.New(),
		StartedAt:         time.Now().Add(-25 * time.Hour),
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != nil {
		t.Fatal("stale snapshot should be discarded")
	}
	info, err := s.Active()
	if err != nil {
		t.Fatalf("Active: %v", err)
	}
	if info != nil {
		t.Fatal("slot should be cleared after stale load")
	}
}

// TestClearAndActive verifies Clear empties the slot and Active
// reports identity without a full decode.
func TestClearAndActive(t *testing.T) {
	s := openTestStore(t)
	id := uuid.New()
	started := time.Now().UTC().Truncate(time.Second)
	err := s.Save(&session.Snapshot{
		SchemaVersion:     session.SnapshotSchemaVersion,
		WorkoutInstanceID: id,
		StartedAt:         started,
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	info, err := s.Active()
	if err != nil {
		t.Fatalf("Active: %v", err)
	}
	if info == nil || info.InstanceID != id || !info.StartedAt.Equal(started) {
		t.Fatalf("active = %+v", info)
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != nil {
		t.Fatal("slot not empty after Clear")
	}
}
