package session

import (
	"fmt"
	"time"

	"github.com/claude/liftlog/internal/metric"
	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
)

// SetInput is the athlete's working data for one set of one exercise:
// a field bag keyed by metric id plus free-text notes. HasData is
// derived on every mutation from the tri-state parse of the non-notes
// fields; MarkedDone is an explicit toggle and is never touched by
// edits. The two are kept separate so a caller can decide whether a
// manually-unmarked set that later gains data counts as complete.
type SetInput struct {
	Fields     map[string]metric.Value
	Notes      string
	HasData    bool
	MarkedDone bool
	// CompletedAt records when the set first became complete by either
	// path. Snapshot bookkeeping only.
	CompletedAt *time.Time

	// Programmed targets resolved for this set (intensity math applied).
	Targets          map[string]float64
	IntensityPercent *float64
	IntensityMetric  string
	IsAMRAP          bool
	CoachNotes       string
}

// Complete reports the set's effective completion: data entered or
// explicitly marked done.
func (s *SetInput) Complete() bool {
	return s.HasData || s.MarkedDone
}

// hasData re-derives the has-data flag: any non-notes field that
// parses to a present value. Null and unset do not count.
func (s *SetInput) hasData() bool {
	for _, v := range s.Fields {
		if v.IsPresent() {
			return true
		}
	}
	return false
}

func emptySetInput() SetInput {
	return SetInput{Fields: map[string]metric.Value{}}
}

// ExerciseState holds the ordered set inputs for one routine exercise
// plus its current-set cursor.
type ExerciseState struct {
	Def        models.RoutineExerciseRow
	Routine    *models.RoutineRow
	Sets       []SetInput
	CurrentSet int
}

// TargetSets is the programmed set count, never below 1.
func (e *ExerciseState) TargetSets() int {
	if e.Def.Sets < 1 {
		return 1
	}
	return e.Def.Sets
}

// FieldIDs returns the metric ids collected for this exercise.
// EnabledMeasurements is authoritative when present; otherwise the
// exercise's default schema applies, and placeholders collect nothing.
func (e *ExerciseState) FieldIDs() []string {
	return fieldIDsFor(e.Def)
}

// Measurements resolves the collected field ids to their schema
// definitions, falling back to a bare definition for ids the schema
// does not describe.
func (e *ExerciseState) Measurements() []models.Measurement {
	var schema []models.Measurement
	if e.Def.Exercise != nil {
		schema = e.Def.Exercise.MetricSchema.Measurements
	}
	out := make([]models.Measurement, 0, len(e.FieldIDs()))
	for _, id := range e.FieldIDs() {
		found := false
		for _, m := range schema {
			if m.ID == id {
				out = append(out, m)
				found = true
				break
			}
		}
		if !found {
			out = append(out, models.Measurement{ID: id, Name: id})
		}
	}
	return out
}

// InputModel maps routine exercises to their working set inputs, in
// program order.
type InputModel struct {
	order           []uuid.UUID
	byID            map[uuid.UUID]*ExerciseState
	currentExercise int
}

func newInputModel(program *models.Program) *InputModel {
	m := &InputModel{byID: map[uuid.UUID]*ExerciseState{}}
	for ri := range program.Routines {
		routine := &program.Routines[ri]
		for _, re := range routine.Exercises {
			st := &ExerciseState{Def: re, Routine: routine}
			m.order = append(m.order, re.ID)
			m.byID[re.ID] = st
		}
	}
	return m
}

// Exercise looks up the state for a routine exercise id.
func (m *InputModel) Exercise(id uuid.UUID) (*ExerciseState, bool) {
	st, ok := m.byID[id]
	return st, ok
}

// Exercises returns states in program order.
func (m *InputModel) Exercises() []*ExerciseState {
	out := make([]*ExerciseState, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.byID[id])
	}
	return out
}

// SetField writes one field of one set and re-evaluates the set's
// has-data flag. The set array grows if setIndex is beyond its current
// length; sets in between are inserted as empty bags. The metric id
// "notes" routes to the notes field and does not affect completion.
func (m *InputModel) SetField(reID uuid.UUID, setIndex int, metricID string, raw any, now time.Time) error {
	st, ok := m.byID[reID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownExercise, reID)
	}
	if setIndex < 0 {
		return fmt.Errorf("set index %d out of range", setIndex)
	}
	for len(st.Sets) <= setIndex {
		st.Sets = append(st.Sets, emptySetInput())
	}
	set := &st.Sets[setIndex]

	if metricID == "notes" {
		if s, ok := metric.Parse(raw).Str(); ok {
			set.Notes = s
		} else {
			set.Notes = ""
		}
		return nil
	}

	set.Fields[metricID] = metric.Parse(raw)

	// Auto-completion side effect: data in, set complete; data gone,
	// set incomplete again. MarkedDone is untouched either way.
	had := set.HasData
	set.HasData = set.hasData()
	if set.HasData && !had && set.CompletedAt == nil {
		t := now
		set.CompletedAt = &t
	}
	st.CurrentSet = setIndex
	return nil
}

// MarkDone flips the explicit completion toggle for one set, growing
// the set array like SetField does.
func (m *InputModel) MarkDone(reID uuid.UUID, setIndex int, done bool, now time.Time) error {
	st, ok := m.byID[reID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownExercise, reID)
	}
	if setIndex < 0 {
		return fmt.Errorf("set index %d out of range", setIndex)
	}
	for len(st.Sets) <= setIndex {
		st.Sets = append(st.Sets, emptySetInput())
	}
	set := &st.Sets[setIndex]
	set.MarkedDone = done
	if done && set.CompletedAt == nil {
		t := now
		set.CompletedAt = &t
	}
	return nil
}

// CurrentExerciseIndex is the position cursor across the flat program.
func (m *InputModel) CurrentExerciseIndex() int { return m.currentExercise }

// SetCurrentExercise moves the cursor, clamped to the program bounds.
func (m *InputModel) SetCurrentExercise(i int) {
	if i < 0 {
		i = 0
	}
	if n := len(m.order); i >= n && n > 0 {
		i = n - 1
	}
	m.currentExercise = i
}

// hydrateFromLogs builds one SetInput per target set for a fresh
// session: resolved targets everywhere, intensity-derived prefills
// where no prior log exists, and the prior log's stored actuals where
// one does.
func (m *InputModel) hydrateFromLogs(logs []models.ExerciseLogRow, maxes map[uuid.UUID]map[string]float64) {
	byExercise := map[uuid.UUID]map[int]*models.ExerciseLogRow{}
	for i := range logs {
		l := &logs[i]
		if byExercise[l.RoutineExerciseID] == nil {
			byExercise[l.RoutineExerciseID] = map[int]*models.ExerciseLogRow{}
		}
		byExercise[l.RoutineExerciseID][l.SetNumber] = l
	}

	for _, st := range m.Exercises() {
		var exMaxes map[string]float64
		if st.Def.ExerciseID != nil {
			exMaxes = maxes[*st.Def.ExerciseID]
		}
		st.Sets = make([]SetInput, st.TargetSets())
		for i := range st.Sets {
			set := emptySetInput()
			applyTargets(&set, st.Def, exMaxes, i)

			if log := byExercise[st.Def.ID][i+1]; log != nil {
				fillFromLog(&set, st, log)
			} else if set.IntensityMetric != "" {
				// Prefill only the intensity-resolved metric; plain
				// targets stay as placeholders, not entered data.
				if target, ok := set.Targets[set.IntensityMetric]; ok && target > 0 {
					set.Fields[set.IntensityMetric] = metric.Number(target)
				}
			}
			set.HasData = set.hasData()
			st.Sets[i] = set
		}
	}
}

// fillFromLog loads a set's fields from a persisted log row. Reps and
// weight come from their dedicated columns, everything else from the
// metric data bag; a bag entry holding JSON null rehydrates as an
// explicit skip.
func fillFromLog(set *SetInput, st *ExerciseState, log *models.ExerciseLogRow) {
	for _, id := range st.FieldIDs() {
		switch id {
		case "reps":
			if log.ActualReps != nil {
				set.Fields[id] = metric.Number(*log.ActualReps)
			}
		case "weight":
			if log.ActualWeight != nil {
				set.Fields[id] = metric.Number(*log.ActualWeight)
			}
		default:
			raw, ok := log.MetricData[id]
			if !ok {
				continue
			}
			if raw == nil {
				set.Fields[id] = metric.NullValue
			} else {
				set.Fields[id] = metric.Parse(raw)
			}
		}
	}
	if log.Notes != nil {
		set.Notes = *log.Notes
	}
}
