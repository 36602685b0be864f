package session

import (
	"context"

	"github.com/claude/liftlog/internal/metric"
	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
)

// WriteFailure is one failed log write during Complete. Failures are
// collected rather than aborting the loop: a single bad row must not
// block the rest of the session from being saved.
type WriteFailure struct {
	RoutineExerciseID uuid.UUID `json:"routine_exercise_id"`
	SetNumber         int       `json:"set_number"`
	Err               string    `json:"error"`
}

// setWrite is the split of one set's field bag into storage shape:
// reps and weight to their dedicated columns, everything else into the
// metric data bag.
type setWrite struct {
	reps    *float64
	weight  *float64
	custom  map[string]any
	notes   *string
	hasData bool
}

// splitFields applies the value parser to every field of a set and
// routes the results. A present value writes through; an explicit null
// writes a SQL/JSON null; unset fields are omitted entirely. hasData
// is true when at least one field parsed non-unset; it gates the write.
func splitFields(set *SetInput) setWrite {
	var w setWrite
	for id, v := range set.Fields {
		if v.Kind() == metric.Unset {
			continue
		}
		w.hasData = true

		switch id {
		case "reps":
			if n, ok := v.Num(); ok {
				w.reps = &n
			}
		case "weight":
			if n, ok := v.Num(); ok {
				w.weight = &n
			}
		default:
			if w.custom == nil {
				w.custom = map[string]any{}
			}
			raw, _ := v.Wire()
			if v.Kind() == metric.Null {
				raw = nil
			}
			w.custom[id] = raw
		}
	}
	if set.Notes != "" {
		n := set.Notes
		w.notes = &n
	}
	return w
}

// reconcileLogs diffs the input model against the persisted log rows
// and issues the minimal writes: insert where data exists and no row
// does, update where a row exists and new data is present, nothing
// where a set is all-unset. Writes run sequentially in program order
// so rows land ordered by set number within an exercise. Newly
// inserted rows are appended to the in-memory log cache so a second
// pass finds them and stays idempotent.
func (s *Session) reconcileLogs(ctx context.Context) (written int, failures []WriteFailure) {
	existing := map[uuid.UUID]map[int]*models.ExerciseLogRow{}
	for i := range s.logRows {
		l := &s.logRows[i]
		if existing[l.RoutineExerciseID] == nil {
			existing[l.RoutineExerciseID] = map[int]*models.ExerciseLogRow{}
		}
		existing[l.RoutineExerciseID][l.SetNumber] = l
	}

	now := s.now()
	for _, st := range s.inputs.Exercises() {
		if st.Def.IsPlaceholder() {
			continue
		}
		targetSets := st.TargetSets()

		for i := 0; i < targetSets; i++ {
			setNumber := i + 1
			if i >= len(st.Sets) {
				continue
			}
			set := &st.Sets[i]
			w := splitFields(set)
			prior := existing[st.Def.ID][setNumber]

			if prior != nil {
				// Never downgrade a populated row on a blank re-submit.
				if !w.hasData {
					continue
				}
				upd := models.LogUpdate{
					ActualReps:   w.reps,
					ActualWeight: w.weight,
					MetricData:   w.custom,
					Notes:        w.notes,
				}
				if err := s.stores.Logs.UpdateLog(ctx, prior.ID, upd); err != nil {
					s.log.Warn("log update failed",
						"routine_exercise_id", st.Def.ID, "set", setNumber, "error", err)
					failures = append(failures, WriteFailure{
						RoutineExerciseID: st.Def.ID, SetNumber: setNumber, Err: err.Error(),
					})
					continue
				}
				prior.ActualReps = w.reps
				prior.ActualWeight = w.weight
				prior.MetricData = w.custom
				prior.Notes = w.notes
				written++
				continue
			}

			if !w.hasData {
				continue
			}

			row := models.ExerciseLogRow{
				ID:                s.newID(),
				WorkoutInstanceID: s.instance.ID,
				RoutineExerciseID: st.Def.ID,
				AthleteID:         s.instance.AthleteID,
				ExerciseID:        *st.Def.ExerciseID,
				SetNumber:         setNumber,
				TargetSets:        &targetSets,
				ActualReps:        w.reps,
				ActualWeight:      w.weight,
				MetricData:        w.custom,
				Notes:             w.notes,
				LoggedAt:          now,
			}
			if t, ok := set.Targets["reps"]; ok {
				v := t
				row.TargetReps = &v
			}
			if t, ok := set.Targets["weight"]; ok {
				v := t
				row.TargetWeight = &v
			}
			row.TargetIntensityPercent = set.IntensityPercent

			if err := s.stores.Logs.InsertLog(ctx, &row); err != nil {
				s.log.Warn("log insert failed",
					"routine_exercise_id", st.Def.ID, "set", setNumber, "error", err)
				failures = append(failures, WriteFailure{
					RoutineExerciseID: st.Def.ID, SetNumber: setNumber, Err: err.Error(),
				})
				continue
			}
			s.logRows = append(s.logRows, row)
			if existing[st.Def.ID] == nil {
				existing[st.Def.ID] = map[int]*models.ExerciseLogRow{}
			}
			existing[st.Def.ID][setNumber] = &s.logRows[len(s.logRows)-1]
			written++
		}
	}
	return written, failures
}
