package session

import (
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
)

// SessionView is the JSON projection of a live session returned by the
// API and the MCP active-session resource.
type SessionView struct {
	WorkoutInstanceID    uuid.UUID             `json:"workout_instance_id"`
	AthleteID            uuid.UUID             `json:"athlete_id"`
	AthleteName          string                `json:"athlete_name,omitempty"`
	WorkoutName          string                `json:"workout_name"`
	Status               models.InstanceStatus `json:"status"`
	StartedAt            *time.Time            `json:"started_at,omitempty"`
	ElapsedSeconds       int                   `json:"elapsed_seconds"`
	Resumed              bool                  `json:"resumed,omitempty"`
	CurrentExerciseIndex int                   `json:"current_exercise_index"`
	Exercises            []ExerciseView        `json:"exercises"`
}

// ExerciseView is one routine exercise with its working sets.
type ExerciseView struct {
	RoutineExerciseID uuid.UUID            `json:"routine_exercise_id"`
	RoutineName       string               `json:"routine_name,omitempty"`
	ExerciseName      string               `json:"exercise_name,omitempty"`
	Placeholder       bool                 `json:"placeholder,omitempty"`
	TargetSets        int                  `json:"target_sets"`
	CompletedSets     int                  `json:"completed_sets"`
	Measurements      []models.Measurement `json:"measurements,omitempty"`
	CoachNotes        string               `json:"coach_notes,omitempty"`
	IsAMRAP           bool                 `json:"is_amrap,omitempty"`
	Sets              []SetView            `json:"sets"`
}

// SetView is one set's resolved targets and entered values. Field
// values use the wire encoding: numbers as-is, explicit skips as the
// dash sentinel, untouched fields omitted.
type SetView struct {
	SetNumber        int                `json:"set_number"`
	Targets          map[string]float64 `json:"targets,omitempty"`
	IntensityPercent *float64           `json:"intensity_percent,omitempty"`
	IntensityMetric  string             `json:"intensity_metric,omitempty"`
	IsAMRAP          bool               `json:"is_amrap,omitempty"`
	CoachNotes       string             `json:"coach_notes,omitempty"`
	Fields           map[string]any     `json:"fields,omitempty"`
	Notes            string             `json:"notes,omitempty"`
	Complete         bool               `json:"complete"`
	MarkedDone       bool               `json:"marked_done,omitempty"`
}

// View renders the session's current state.
func (s *Session) View() SessionView {
	v := SessionView{
		WorkoutInstanceID:    s.instance.ID,
		AthleteID:            s.instance.AthleteID,
		AthleteName:          s.athleteName,
		WorkoutName:          s.program.Workout.Name,
		Status:               s.instance.Status,
		StartedAt:            s.instance.StartedAt,
		Resumed:              s.resumed,
		CurrentExerciseIndex: s.inputs.CurrentExerciseIndex(),
	}
	if s.instance.Status == models.StatusInProgress {
		v.ElapsedSeconds = int(s.Elapsed().Seconds())
	}

	for _, st := range s.inputs.Exercises() {
		ev := ExerciseView{
			RoutineExerciseID: st.Def.ID,
			Placeholder:       st.Def.IsPlaceholder(),
			TargetSets:        st.TargetSets(),
			IsAMRAP:           st.Def.IsAMRAP,
		}
		if st.Routine != nil {
			ev.RoutineName = st.Routine.Name
		}
		if st.Def.Exercise != nil {
			ev.ExerciseName = st.Def.Exercise.Name
		}
		if st.Def.Notes != nil {
			ev.CoachNotes = *st.Def.Notes
		}
		if !ev.Placeholder {
			ev.Measurements = st.Measurements()
		}

		for i := range st.Sets {
			set := &st.Sets[i]
			sv := SetView{
				SetNumber:        i + 1,
				Targets:          set.Targets,
				IntensityPercent: set.IntensityPercent,
				IntensityMetric:  set.IntensityMetric,
				IsAMRAP:          set.IsAMRAP,
				CoachNotes:       set.CoachNotes,
				Notes:            set.Notes,
				Complete:         set.Complete(),
				MarkedDone:       set.MarkedDone,
			}
			for id, val := range set.Fields {
				if raw, ok := val.Wire(); ok {
					if sv.Fields == nil {
						sv.Fields = map[string]any{}
					}
					sv.Fields[id] = raw
				}
			}
			if sv.Complete {
				ev.CompletedSets++
			}
			ev.Sets = append(ev.Sets, sv)
		}
		v.Exercises = append(v.Exercises, ev)
	}
	return v
}
