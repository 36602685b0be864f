package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/session"
	"github.com/claude/liftlog/internal/storage"
	"github.com/google/uuid"
)

const testAPIKey = "test-key"

// memBackend backs every store and query interface with maps, so the
// full router can be exercised without Postgres.
type memBackend struct {
	instances map[uuid.UUID]*models.WorkoutInstanceRow
	program   *models.Program
	athlete   *models.AthleteRow
	logs      []models.ExerciseLogRow
	maxRows   []models.AthleteMaxRow
}

func (b *memBackend) GetInstance(_ context.Context, id uuid.UUID) (*models.WorkoutInstanceRow, error) {
	inst, ok := b.instances[id]
	if !ok {
		return nil, fmt.Errorf("instance %s: %w", id, storage.ErrNotFound)
	}
	cp := *inst
	return &cp, nil
}

func (b *memBackend) ListAthleteInstances(_ context.Context, athleteID uuid.UUID, from, to time.Time) ([]models.WorkoutInstanceRow, error) {
	var out []models.WorkoutInstanceRow
	for _, inst := range b.instances {
		if inst.AthleteID == athleteID && !inst.ScheduledDate.Before(from) && inst.ScheduledDate.Before(to) {
			out = append(out, *inst)
		}
	}
	return out, nil
}

func (b *memBackend) ListMaxHistory(_ context.Context, athleteID uuid.UUID, exerciseID *uuid.UUID) ([]models.AthleteMaxRow, error) {
	var out []models.AthleteMaxRow
	for _, r := range b.maxRows {
		if r.AthleteID != athleteID {
			continue
		}
		if exerciseID != nil && r.ExerciseID != *exerciseID {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (b *memBackend) ListExerciseHistory(_ context.Context, athleteID, exerciseID uuid.UUID, limit int) ([]models.ExerciseLogRow, error) {
	var out []models.ExerciseLogRow
	for _, l := range b.logs {
		if l.AthleteID == athleteID && l.ExerciseID == exerciseID {
			out = append(out, l)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (b *memBackend) StartInstance(_ context.Context, id uuid.UUID, startedAt time.Time) error {
	inst := b.instances[id]
	inst.Status = models.StatusInProgress
	t := startedAt
	inst.StartedAt = &t
	return nil
}

func (b *memBackend) CompleteInstance(_ context.Context, id uuid.UUID, completedAt time.Time) error {
	inst := b.instances[id]
	inst.Status = models.StatusCompleted
	t := completedAt
	inst.CompletedAt = &t
	return nil
}

func (b *memBackend) ResetInstanceStart(_ context.Context, id uuid.UUID, startedAt time.Time) error {
	t := startedAt
	b.instances[id].StartedAt = &t
	return nil
}

func (b *memBackend) GetProgram(_ context.Context, _ uuid.UUID) (*models.Program, error) {
	return b.program, nil
}

func (b *memBackend) GetAthlete(_ context.Context, _ uuid.UUID) (*models.AthleteRow, error) {
	return b.athlete, nil
}

func (b *memBackend) ListInstanceLogs(_ context.Context, instanceID uuid.UUID) ([]models.ExerciseLogRow, error) {
	var out []models.ExerciseLogRow
	for _, l := range b.logs {
		if l.WorkoutInstanceID == instanceID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (b *memBackend) InsertLog(_ context.Context, row *models.ExerciseLogRow) error {
	b.logs = append(b.logs, *row)
	return nil
}

func (b *memBackend) UpdateLog(_ context.Context, id uuid.UUID, upd models.LogUpdate) error {
	for i := range b.logs {
		if b.logs[i].ID == id {
			b.logs[i].ActualReps = upd.ActualReps
			b.logs[i].ActualWeight = upd.ActualWeight
			b.logs[i].MetricData = upd.MetricData
			b.logs[i].Notes = upd.Notes
		}
	}
	return nil
}

func (b *memBackend) DeleteInstanceLogs(_ context.Context, instanceID uuid.UUID) error {
	var kept []models.ExerciseLogRow
	for _, l := range b.logs {
		if l.WorkoutInstanceID != instanceID {
			kept = append(kept, l)
		}
	}
	b.logs = kept
	return nil
}

func (b *memBackend) CurrentMax(_ context.Context, athleteID, exerciseID uuid.UUID, metricID string) (*models.AthleteMaxRow, error) {
	var cur *models.AthleteMaxRow
	for i := range b.maxRows {
		r := &b.maxRows[i]
		if r.AthleteID != athleteID || r.ExerciseID != exerciseID || r.MetricID != metricID {
			continue
		}
		if cur == nil || r.AchievedOn.After(cur.AchievedOn) {
			cur = r
		}
	}
	if cur == nil {
		return nil, nil
	}
	cp := *cur
	return &cp, nil
}

func (b *memBackend) CurrentMaxes(ctx context.Context, athleteID, exerciseID uuid.UUID) (map[string]float64, error) {
	out := map[string]float64{}
	for _, r := range b.maxRows {
		if r.AthleteID == athleteID && r.ExerciseID == exerciseID {
			if cur, _ := b.CurrentMax(ctx, athleteID, exerciseID, r.MetricID); cur != nil {
				out[r.MetricID] = cur.MaxValue
			}
		}
	}
	return out, nil
}

func (b *memBackend) AppendMax(_ context.Context, row *models.AthleteMaxRow) error {
	b.maxRows = append(b.maxRows, *row)
	return nil
}

var (
	srvInstanceID = uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000001")
	srvAthleteID  = uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000002")
	srvWorkoutID  = uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000003")
	srvBenchID    = uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000004")
	srvBenchReID  = uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000005")
)

func newTestServer(t *testing.T) (*Server, *memBackend) {
	t.Helper()
	exID := srvBenchID
	b := &memBackend{
		instances: map[uuid.UUID]*models.WorkoutInstanceRow{
			srvInstanceID: {
				ID:            srvInstanceID,
				WorkoutID:     srvWorkoutID,
				AthleteID:     srvAthleteID,
				ScheduledDate: time.Now(),
				Status:        models.StatusNotStarted,
			},
		},
		athlete: &models.AthleteRow{ID: srvAthleteID, Name: "Casey"},
		program: &models.Program{
			Workout: models.WorkoutRow{ID: srvWorkoutID, Name: "Push Day"},
			Routines: []models.RoutineRow{{
				ID:        uuid.New(),
				WorkoutID: srvWorkoutID,
				Name:      "Pressing",
				Exercises: []models.RoutineExerciseRow{{
					ID:            srvBenchReID,
					ExerciseID:    &exID,
					Sets:          2,
					MetricTargets: map[string]float64{"reps": 8},
					Exercise: &models.ExerciseRow{
						ID:   srvBenchID,
						Name: "Bench Press",
						MetricSchema: models.MetricSchema{Measurements: []models.Measurement{
							{ID: "reps", Name: "Reps"},
							{ID: "weight", Name: "Weight", Unit: "lb"},
						}},
					},
				}},
			}},
		},
	}
	stores := session.Stores{
		Instances: b, Programs: b, Logs: b, Maxes: b, Athletes: b,
	}
	return New(b, stores, testAPIKey, slog.Default()), b
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("X-API-Key", testAPIKey)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

// TestRoutesRequireAPIKey verifies the whole API tree sits behind key
// auth.
func TestRoutesRequireAPIKey(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/instances/"+srvInstanceID.String(), nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

// TestSessionLifecycleOverHTTP walks the full flow: start, log a set,
// complete with confirmation, and checks persistence side effects.
func TestSessionLifecycleOverHTTP(t *testing.T) {
	s, b := newTestServer(t)
	base := "/api/v1/instances/" + srvInstanceID.String()

	rec := doJSON(t, s, http.MethodPost, base+"/start", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("start status = %d: %s", rec.Code, rec.Body)
	}
	var view session.SessionView
	if err := json.NewDecoder(rec.Body).Decode(&view); err != nil {
		t.Fatal(err)
	}
	if view.Status != models.StatusInProgress || view.WorkoutName != "Push Day" {
		t.Fatalf("view = %+v", view)
	}

	for i := 0; i < 2; i++ {
		rec = doJSON(t, s, http.MethodPost, base+"/sets", setFieldRequest{
			RoutineExerciseID: srvBenchReID, SetIndex: i, MetricID: "reps", Value: 8,
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("set field status = %d: %s", rec.Code, rec.Body)
		}
	}

	rec = doJSON(t, s, http.MethodPost, base+"/complete", completeRequest{Confirm: false})
	if rec.Code != http.StatusOK {
		t.Fatalf("complete status = %d: %s", rec.Code, rec.Body)
	}
	var result session.CompleteResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.NeedsConfirmation {
		t.Fatalf("unexpected confirmation request: %+v", result.Validation)
	}
	if result.LogsWritten != 2 || len(b.logs) != 2 {
		t.Fatalf("logs written = %d (%d rows), want 2", result.LogsWritten, len(b.logs))
	}
	if b.instances[srvInstanceID].Status != models.StatusCompleted {
		t.Fatalf("status = %s, want completed", b.instances[srvInstanceID].Status)
	}
}

// TestCompleteAsksForConfirmation verifies an under-filled session
// returns the validation payload and writes nothing.
func TestCompleteAsksForConfirmation(t *testing.T) {
	s, b := newTestServer(t)
	base := "/api/v1/instances/" + srvInstanceID.String()

	doJSON(t, s, http.MethodPost, base+"/start", nil)
	doJSON(t, s, http.MethodPost, base+"/sets", setFieldRequest{
		RoutineExerciseID: srvBenchReID, SetIndex: 0, MetricID: "reps", Value: 8,
	})

	rec := doJSON(t, s, http.MethodPost, base+"/complete", completeRequest{Confirm: false})
	var result session.CompleteResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if !result.NeedsConfirmation || len(result.Validation) != 1 {
		t.Fatalf("result = %+v, want confirmation with one warning", result)
	}
	if len(b.logs) != 0 {
		t.Fatal("unconfirmed complete wrote rows")
	}
}

// TestStartConflict verifies a second start returns 409.
func TestStartConflict(t *testing.T) {
	s, _ := newTestServer(t)
	base := "/api/v1/instances/" + srvInstanceID.String()

	doJSON(t, s, http.MethodPost, base+"/start", nil)
	rec := doJSON(t, s, http.MethodPost, base+"/start", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

// TestEditBeforeStartConflict verifies edits on a not-started session
// return 409.
func TestEditBeforeStartConflict(t *testing.T) {
	s, _ := newTestServer(t)
	base := "/api/v1/instances/" + srvInstanceID.String()

	rec := doJSON(t, s, http.MethodPost, base+"/sets", setFieldRequest{
		RoutineExerciseID: srvBenchReID, SetIndex: 0, MetricID: "reps", Value: 8,
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

// TestGetInstanceNotFound verifies an unknown instance id returns 404.
func TestGetInstanceNotFound(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doJSON(t, s, http.MethodGet, "/api/v1/instances/"+uuid.New().String(), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

// TestUnknownExerciseNotFound verifies logging against a routine
// exercise outside the program returns 404.
func TestUnknownExerciseNotFound(t *testing.T) {
	s, _ := newTestServer(t)
	base := "/api/v1/instances/" + srvInstanceID.String()
	doJSON(t, s, http.MethodPost, base+"/start", nil)

	rec := doJSON(t, s, http.MethodPost, base+"/sets", setFieldRequest{
		RoutineExerciseID: uuid.New(), SetIndex: 0, MetricID: "reps", Value: 8,
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

// TestAthleteMaxesEndpoint verifies the ledger read endpoint with and
// without the exercise filter.
func TestAthleteMaxesEndpoint(t *testing.T) {
	s, b := newTestServer(t)
	b.maxRows = []models.AthleteMaxRow{
		{ID: uuid.New(), AthleteID: srvAthleteID, ExerciseID: srvBenchID, MetricID: "weight", MaxValue: 185},
		{ID: uuid.New(), AthleteID: srvAthleteID, ExerciseID: uuid.New(), MetricID: "weight", MaxValue: 315},
	}

	rec := doJSON(t, s, http.MethodGet, "/api/v1/athletes/"+srvAthleteID.String()+"/maxes", nil)
	var all []models.AthleteMaxRow
	if err := json.NewDecoder(rec.Body).Decode(&all); err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("rows = %d, want 2", len(all))
	}

	rec = doJSON(t, s, http.MethodGet,
		"/api/v1/athletes/"+srvAthleteID.String()+"/maxes?exercise_id="+srvBenchID.String(), nil)
	var filtered []models.AthleteMaxRow
	if err := json.NewDecoder(rec.Body).Decode(&filtered); err != nil {
		t.Fatal(err)
	}
	if len(filtered) != 1 || filtered[0].MaxValue != 185 {
		t.Fatalf("filtered = %+v, want the bench row", filtered)
	}
}

// TestRestartEndpoint verifies restart wipes logged rows and returns a
// blank session view.
func TestRestartEndpoint(t *testing.T) {
	s, b := newTestServer(t)
	base := "/api/v1/instances/" + srvInstanceID.String()

	doJSON(t, s, http.MethodPost, base+"/start", nil)
	doJSON(t, s, http.MethodPost, base+"/sets", setFieldRequest{
		RoutineExerciseID: srvBenchReID, SetIndex: 0, MetricID: "reps", Value: 8,
	})

	rec := doJSON(t, s, http.MethodPost, base+"/restart", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("restart status = %d: %s", rec.Code, rec.Body)
	}
	if len(b.logs) != 0 {
		t.Fatalf("rows after restart = %d, want 0", len(b.logs))
	}
	var view session.SessionView
	if err := json.NewDecoder(rec.Body).Decode(&view); err != nil {
		t.Fatal(err)
	}
	if view.Exercises[0].CompletedSets != 0 {
		t.Fatalf("completed sets after restart = %d", view.Exercises[0].CompletedSets)
	}
}

// TestParseDateRangeToWithoutFrom verifies that a to bound without a
// from keeps the default lookback instead of being dropped, and that
// the named day is included in the range.
func TestParseDateRangeToWithoutFrom(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?to=2030-06-15", nil)
	from, to, err := parseDateRange(req)
	if err != nil {
		t.Fatalf("parseDateRange: %v", err)
	}
	want := time.Date(2030, 6, 16, 0, 0, 0, 0, time.UTC)
	if !to.Equal(want) {
		t.Fatalf("to = %v, want %v (inclusive of the named day)", to, want)
	}
	if age := time.Since(from); age < 29*24*time.Hour || age > 31*24*time.Hour {
		t.Fatalf("from = %v, want the default 30-day lookback", from)
	}
}

// TestParseDateRangeExplicitBounds verifies both bounds parse and the
// range covers the whole to day.
func TestParseDateRangeExplicitBounds(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?from=2026-03-01&to=2026-03-02", nil)
	from, to, err := parseDateRange(req)
	if err != nil {
		t.Fatalf("parseDateRange: %v", err)
	}
	if !from.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("from = %v", from)
	}
	if !to.Equal(time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("to = %v", to)
	}
}

// TestParseDateRangeBadInput verifies malformed dates are rejected.
func TestParseDateRangeBadInput(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?to=yesterday", nil)
	if _, _, err := parseDateRange(req); err == nil {
		t.Fatal("expected parse error for malformed to")
	}
}
