package session

import (
	"time"

	"github.com/claude/liftlog/internal/metric"
	"github.com/google/uuid"
)

// SnapshotSchemaVersion is bumped when the snapshot shape changes.
// Load discards snapshots carrying a different version instead of
// guessing at a migration.
const SnapshotSchemaVersion = 1

// Snapshot is the locally persisted projection of an in-flight
// session, used purely for crash/navigation recovery. It is not a
// system of record and is discarded on completion.
type Snapshot struct {
	SchemaVersion        int                `json:"schema_version"`
	WorkoutInstanceID    uuid.UUID          `json:"workout_instance_id"`
	AthleteID            uuid.UUID          `json:"athlete_id"`
	AthleteName          string             `json:"athlete_name"`
	WorkoutName          string             `json:"workout_name"`
	StartedAt            time.Time          `json:"started_at"`
	CurrentExerciseIndex int                `json:"current_exercise_index"`
	Exercises            []SnapshotExercise `json:"exercises"`
}

// SnapshotExercise is one exercise's working state inside a snapshot.
// Each set log is a flat bag: the athlete's field values plus the
// bookkeeping keys below.
type SnapshotExercise struct {
	ID            uuid.UUID        `json:"id"`
	Name          string           `json:"name"`
	Sets          int              `json:"sets"`
	CompletedSets int              `json:"completed_sets"`
	Notes         string           `json:"notes,omitempty"`
	SetLogs       []map[string]any `json:"set_logs"`
}

// Bookkeeping keys carried in a set log bag alongside the field
// values. set_number and completed_at are snapshot-only and are
// stripped on hydration; marked_done and notes are real state.
const (
	snapKeySetNumber   = "set_number"
	snapKeyCompletedAt = "completed_at"
	snapKeyMarkedDone  = "marked_done"
	snapKeyNotes       = "notes"
)

// snapshot projects the input model and timer position into the
// persisted shape. Null fields travel as the dash sentinel so the
// round trip preserves the tri-state.
func (s *Session) snapshot() *Snapshot {
	snap := &Snapshot{
		SchemaVersion:        SnapshotSchemaVersion,
		WorkoutInstanceID:    s.instance.ID,
		AthleteID:            s.instance.AthleteID,
		AthleteName:          s.athleteName,
		WorkoutName:          s.program.Workout.Name,
		StartedAt:            s.startedAt,
		CurrentExerciseIndex: s.inputs.CurrentExerciseIndex(),
	}

	for _, st := range s.inputs.Exercises() {
		ex := SnapshotExercise{
			ID:   st.Def.ID,
			Sets: st.TargetSets(),
		}
		if st.Def.Exercise != nil {
			ex.Name = st.Def.Exercise.Name
		}
		for i := range st.Sets {
			set := &st.Sets[i]
			if set.Complete() {
				ex.CompletedSets++
			}
			bag := map[string]any{snapKeySetNumber: i + 1}
			for id, v := range set.Fields {
				if raw, ok := v.Wire(); ok {
					bag[id] = raw
				}
			}
			if set.Notes != "" {
				bag[snapKeyNotes] = set.Notes
			}
			if set.MarkedDone {
				bag[snapKeyMarkedDone] = true
			}
			if set.CompletedAt != nil {
				bag[snapKeyCompletedAt] = set.CompletedAt.Format(time.RFC3339)
			}
			ex.SetLogs = append(ex.SetLogs, bag)
		}
		snap.Exercises = append(snap.Exercises, ex)
	}
	return snap
}

// hydrateFromSnapshot rebuilds the per-exercise inputs from a
// snapshot, stripping snapshot-only bookkeeping before installing each
// field bag, then re-resolves targets against current maxes without
// overwriting restored athlete input.
func (m *InputModel) hydrateFromSnapshot(snap *Snapshot, maxes map[uuid.UUID]map[string]float64) {
	byID := map[uuid.UUID]SnapshotExercise{}
	for _, ex := range snap.Exercises {
		byID[ex.ID] = ex
	}

	for _, st := range m.Exercises() {
		ex, ok := byID[st.Def.ID]
		n := st.TargetSets()
		if ok && len(ex.SetLogs) > n {
			n = len(ex.SetLogs)
		}
		st.Sets = make([]SetInput, n)

		var exMaxes map[string]float64
		if st.Def.ExerciseID != nil {
			exMaxes = maxes[*st.Def.ExerciseID]
		}

		for i := range st.Sets {
			set := emptySetInput()
			applyTargets(&set, st.Def, exMaxes, i)

			if ok && i < len(ex.SetLogs) {
				for key, raw := range ex.SetLogs[i] {
					switch key {
					case snapKeySetNumber, snapKeyCompletedAt:
						// snapshot-only bookkeeping
					case snapKeyMarkedDone:
						if b, isBool := raw.(bool); isBool {
							set.MarkedDone = b
						}
					case snapKeyNotes:
						if s, isStr := raw.(string); isStr {
							set.Notes = s
						}
					default:
						set.Fields[key] = metric.Parse(raw)
					}
				}
			}
			set.HasData = set.hasData()
			st.Sets[i] = set
		}

		recalculateTargets(st, exMaxes)
	}

	m.SetCurrentExercise(snap.CurrentExerciseIndex)
}
