package session

import (
	"context"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
)

// SkippedMax reports a tracked metric whose best logged value did not
// beat the athlete's current ledger entry. Not an error; the caller
// may surface it, the engine just moves on.
type SkippedMax struct {
	ExerciseID  uuid.UUID `json:"exercise_id"`
	MetricID    string    `json:"metric_id"`
	Value       float64   `json:"value"`
	CurrentBest float64   `json:"current_best"`
}

// MaxFailure is one failed ledger read or append during promotion.
type MaxFailure struct {
	ExerciseID uuid.UUID `json:"exercise_id"`
	MetricID   string    `json:"metric_id"`
	Err        string    `json:"error"`
}

// bestLoggedValue returns the highest present numeric value for a
// metric across an exercise's sets. Null and unset fields are ignored.
func bestLoggedValue(st *ExerciseState, metricID string) float64 {
	best := 0.0
	for i := range st.Sets {
		if n, ok := st.Sets[i].Fields[metricID].Num(); ok && n > best {
			best = n
		}
	}
	return best
}

// promoteMaxes scans every exercise flagged with tracked max metrics
// and appends a ledger entry for each metric whose best logged value
// strictly exceeds the athlete's current max (or where no max exists
// yet). The ledger is append-only: prior rows are never touched, so it
// doubles as a PR time series. Promotion reads the input model, not
// the just-written rows, and runs strictly after the log reconciler.
func (s *Session) promoteMaxes(ctx context.Context) (promoted []models.AthleteMaxRow, skipped []SkippedMax, failures []MaxFailure) {
	today := dateOnly(s.now())

	for _, st := range s.inputs.Exercises() {
		if st.Def.IsPlaceholder() || len(st.Def.TrackedMaxMetrics) == 0 {
			continue
		}
		exerciseID := *st.Def.ExerciseID

		for _, metricID := range st.Def.TrackedMaxMetrics {
			best := bestLoggedValue(st, metricID)
			if best <= 0 {
				continue
			}

			cur, err := s.stores.Maxes.CurrentMax(ctx, s.instance.AthleteID, exerciseID, metricID)
			if err != nil {
				s.log.Warn("current max lookup failed",
					"exercise_id", exerciseID, "metric", metricID, "error", err)
				failures = append(failures, MaxFailure{
					ExerciseID: exerciseID, MetricID: metricID, Err: err.Error(),
				})
				continue
			}

			if cur != nil && best <= cur.MaxValue {
				skipped = append(skipped, SkippedMax{
					ExerciseID: exerciseID, MetricID: metricID,
					Value: best, CurrentBest: cur.MaxValue,
				})
				continue
			}

			row := models.AthleteMaxRow{
				ID:         s.newID(),
				AthleteID:  s.instance.AthleteID,
				ExerciseID: exerciseID,
				MetricID:   metricID,
				MaxValue:   best,
				RepsAtMax:  1,
				AchievedOn: today,
				Source:     models.MaxSourceLogged,
			}
			if err := s.stores.Maxes.AppendMax(ctx, &row); err != nil {
				s.log.Warn("max append failed",
					"exercise_id", exerciseID, "metric", metricID, "error", err)
				failures = append(failures, MaxFailure{
					ExerciseID: exerciseID, MetricID: metricID, Err: err.Error(),
				})
				continue
			}
			promoted = append(promoted, row)

			if s.maxes[exerciseID] == nil {
				s.maxes[exerciseID] = map[string]float64{}
			}
			s.maxes[exerciseID][metricID] = best
		}
	}
	return promoted, skipped, failures
}

// BestLogValue returns the highest value recorded for a metric across
// persisted log rows: reps and weight from their dedicated columns,
// anything else from the metric data bag. Used by the offline
// promotion tool that replays a completed instance's logs.
func BestLogValue(rows []models.ExerciseLogRow, metricID string) float64 {
	best := 0.0
	for i := range rows {
		var v float64
		switch metricID {
		case "reps":
			if rows[i].ActualReps != nil {
				v = *rows[i].ActualReps
			}
		case "weight":
			if rows[i].ActualWeight != nil {
				v = *rows[i].ActualWeight
			}
		default:
			if raw, ok := rows[i].MetricData[metricID]; ok {
				if f, isNum := asFloat(raw); isNum {
					v = f
				}
			}
		}
		if v > best {
			best = v
		}
	}
	return best
}

func asFloat(raw any) (float64, bool) {
	switch t := raw.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	default:
		return 0, false
	}
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
