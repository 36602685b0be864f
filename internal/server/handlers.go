package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/claude/liftlog/internal/session"
	"github.com/claude/liftlog/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (s *Server) handleGetInstance(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	inst, err := s.queries.GetInstance(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "instance not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, inst)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessionFor(r.Context(), id)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.View())
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessionFor(r.Context(), id)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	if err := sess.Start(r.Context()); err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.View())
}

type setFieldRequest struct {
	RoutineExerciseID uuid.UUID `json:"routine_exercise_id"`
	SetIndex          int       `json:"set_index"`
	MetricID          string    `json:"metric_id"`
	Value             any       `json:"value"`
}

func (s *Server) handleSetField(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req setFieldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.MetricID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "metric_id is required"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessionFor(r.Context(), id)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	if err := sess.SetField(r.Context(), req.RoutineExerciseID, req.SetIndex, req.MetricID, req.Value); err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.View())
}

type markDoneRequest struct {
	RoutineExerciseID uuid.UUID `json:"routine_exercise_id"`
	SetIndex          int       `json:"set_index"`
	Done              bool      `json:"done"`
}

func (s *Server) handleMarkDone(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req markDoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessionFor(r.Context(), id)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	if err := sess.MarkSetDone(r.Context(), req.RoutineExerciseID, req.SetIndex, req.Done); err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.View())
}

type positionRequest struct {
	ExerciseIndex int `json:"exercise_index"`
}

func (s *Server) handlePosition(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req positionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessionFor(r.Context(), id)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	sess.SetCurrentExercise(req.ExerciseIndex)
	writeJSON(w, http.StatusOK, sess.View())
}

type completeRequest struct {
	Confirm bool `json:"confirm"`
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req completeRequest
	if r.Body != nil {
		// Body is optional; an empty body means confirm=false.
		json.NewDecoder(r.Body).Decode(&req)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessionFor(r.Context(), id)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	result, err := sess.Complete(r.Context(), req.Confirm)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	if !result.NeedsConfirmation {
		s.active = nil
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessionFor(r.Context(), id)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	if err := sess.Restart(r.Context()); err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.View())
}

func (s *Server) handleAthleteInstances(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	from, to, err := parseDateRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	instances, err := s.queries.ListAthleteInstances(r.Context(), id, from, to)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, instances)
}

func (s *Server) handleAthleteMaxes(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var exerciseID *uuid.UUID
	if v := r.URL.Query().Get("exercise_id"); v != "" {
		parsed, err := uuid.Parse(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid exercise_id"})
			return
		}
		exerciseID = &parsed
	}
	maxes, err := s.queries.ListMaxHistory(r.Context(), id, exerciseID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, maxes)
}

func (s *Server) handleExerciseHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	exerciseID, err := uuid.Parse(r.URL.Query().Get("exercise_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "exercise_id parameter required"})
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}
	logs, err := s.queries.ListExerciseHistory(r.Context(), id, exerciseID, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func (s *Server) handleGetProgram(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	program, err := s.queries.GetProgram(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "workout not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, program)
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

// writeSessionError maps engine errors to HTTP statuses: lifecycle
// conflicts are 409, unknown rows 404, anything else 500.
func writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotStarted),
		errors.Is(err, session.ErrAlreadyStarted),
		errors.Is(err, session.ErrAlreadyCompleted):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, session.ErrUnknownExercise),
		errors.Is(err, storage.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// parseDateRange reads the optional from/to query params. Each bound
// defaults independently to a last-30-days window, and a named to day
// is inclusive, mirroring the MCP tools' date handling.
func parseDateRange(r *http.Request) (from, to time.Time, err error) {
	now := time.Now()
	from = now.AddDate(0, 0, -30)
	to = now.Add(24 * time.Hour)

	if s := r.URL.Query().Get("from"); s != "" {
		if from, err = time.Parse("2006-01-02", s); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if s := r.URL.Query().Get("to"); s != "" {
		day, perr := time.Parse("2006-01-02", s)
		if perr != nil {
			return time.Time{}, time.Time{}, perr
		}
		to = day.Add(24 * time.Hour)
	}
	return from, to, nil
}
