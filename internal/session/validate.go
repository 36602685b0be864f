package session

import "github.com/google/uuid"

// ExerciseValidation reports the under-filled sets of one exercise at
// completion time. IsEmpty means no set has any data at all.
type ExerciseValidation struct {
	RoutineExerciseID uuid.UUID `json:"routine_exercise_id"`
	ExerciseName      string    `json:"exercise_name"`
	IncompleteSets    []int     `json:"incomplete_sets"`
	TotalSets         int       `json:"total_sets"`
	IsEmpty           bool      `json:"is_empty"`
}

// Validate scans every bound exercise for sets with no entered data.
// A set counts as having data when any non-notes field parses to a
// present value, the same tri-state rule the reconciler uses, so the
// warning list and the written rows can never disagree. Placeholder
// exercises collect no fields and are excluded. Only exercises with at
// least one incomplete set are returned; the caller decides whether a
// non-empty result warrants a confirmation step.
func (m *InputModel) Validate() []ExerciseValidation {
	var out []ExerciseValidation
	for _, st := range m.Exercises() {
		if st.Def.IsPlaceholder() {
			continue
		}

		total := st.TargetSets()
		v := ExerciseValidation{
			RoutineExerciseID: st.Def.ID,
			TotalSets:         total,
			IsEmpty:           true,
		}
		if st.Def.Exercise != nil {
			v.ExerciseName = st.Def.Exercise.Name
		}

		for i := 0; i < total; i++ {
			hasData := false
			if i < len(st.Sets) {
				hasData = st.Sets[i].hasData()
			}
			if hasData {
				v.IsEmpty = false
			} else {
				v.IncompleteSets = append(v.IncompleteSets, i+1)
			}
		}

		if len(v.IncompleteSets) > 0 {
			out = append(out, v)
		}
	}
	return out
}
