package session

import (
	"math"

	"github.com/claude/liftlog/internal/metric"
	"github.com/claude/liftlog/internal/models"
)

// roundToFive rounds an intensity-derived load to the nearest 5 units,
// matching plate math.
func roundToFive(v float64) float64 {
	return math.Round(v/5) * 5
}

// fieldIDsFor returns the metric ids collected for a routine exercise.
// EnabledMeasurements is authoritative when present; otherwise the
// exercise's default schema applies, and placeholders collect nothing.
func fieldIDsFor(def models.RoutineExerciseRow) []string {
	if def.EnabledMeasurements != nil {
		return def.EnabledMeasurements
	}
	if def.IsPlaceholder() || def.Exercise == nil {
		return nil
	}
	ids := make([]string, 0, len(def.Exercise.MetricSchema.Measurements))
	for _, m := range def.Exercise.MetricSchema.Measurements {
		ids = append(ids, m.ID)
	}
	return ids
}

// applyTargets resolves the programmed targets for one set of one
// routine exercise and installs them on the SetInput. Per-set
// configurations take precedence over uniform metric targets; an
// intensity percent against a metric with a known athlete max resolves
// to round(max * pct / 100 / 5) * 5, falling back to the static target
// when no max is known.
func applyTargets(set *SetInput, def models.RoutineExerciseRow, maxes map[string]float64, setIdx int) {
	set.Targets = map[string]float64{}

	var (
		cfgMetricValues  map[string]float64
		intensityMetric  string
		intensityPercent float64
	)

	if setIdx < len(def.SetConfigurations) {
		cfg := def.SetConfigurations[setIdx]
		cfgMetricValues = cfg.MetricValues
		intensityMetric = cfg.IntensityType
		intensityPercent = cfg.IntensityPercent
		set.IsAMRAP = cfg.IsAMRAP
		set.CoachNotes = cfg.Notes
	} else {
		if len(def.IntensityTargets) > 0 {
			intensityMetric = def.IntensityTargets[0].Metric
			intensityPercent = def.IntensityTargets[0].Percent
		}
		set.IsAMRAP = def.IsAMRAP
	}

	for _, id := range fieldIDsFor(def) {
		base, ok := cfgMetricValues[id]
		if !ok {
			base = def.MetricTargets[id]
		}

		if id == intensityMetric && intensityPercent > 0 {
			if max := maxes[id]; max > 0 {
				set.Targets[id] = roundToFive(max * intensityPercent / 100)
			} else if base != 0 {
				set.Targets[id] = base
			}
			pct := intensityPercent
			set.IntensityPercent = &pct
			set.IntensityMetric = id
			continue
		}

		if base != 0 {
			set.Targets[id] = base
		}
	}
}

// recalculateTargets re-resolves intensity targets after the athlete's
// maxes become known, prefilling the intensity metric's field only
// where the athlete has not typed a value. A deliberately entered
// value is never overwritten by target recalculation.
func recalculateTargets(st *ExerciseState, maxes map[string]float64) {
	for i := range st.Sets {
		set := &st.Sets[i]
		if set.IntensityMetric == "" || set.IntensityPercent == nil {
			continue
		}
		max := maxes[set.IntensityMetric]
		if max <= 0 {
			continue
		}
		oldTarget := set.Targets[set.IntensityMetric]
		newTarget := roundToFive(max * *set.IntensityPercent / 100)
		if newTarget <= 0 {
			continue
		}
		set.Targets[set.IntensityMetric] = newTarget

		cur := set.Fields[set.IntensityMetric]
		n, isNum := cur.Num()
		untouched := cur.Kind() == metric.Unset || (isNum && (n == 0 || n == oldTarget))
		if untouched {
			set.Fields[set.IntensityMetric] = metric.Number(newTarget)
			set.HasData = set.hasData()
		}
	}
}
