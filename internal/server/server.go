// Package server exposes the workout execution engine over HTTP: the
// session lifecycle endpoints the logging UI drives, plus read
// endpoints for schedules and the max ledger.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Queries is the read side the HTTP handlers need beyond the session
// engine. *storage.DB satisfies it.
type Queries interface {
	GetInstance(ctx context.Context, id uuid.UUID) (*models.WorkoutInstanceRow, error)
	ListAthleteInstances(ctx context.Context, athleteID uuid.UUID, from, to time.Time) ([]models.WorkoutInstanceRow, error)
	ListMaxHistory(ctx context.Context, athleteID uuid.UUID, exerciseID *uuid.UUID) ([]models.AthleteMaxRow, error)
	ListExerciseHistory(ctx context.Context, athleteID, exerciseID uuid.UUID, limit int) ([]models.ExerciseLogRow, error)
	GetProgram(ctx context.Context, workoutID uuid.UUID) (*models.Program, error)
}

// Server holds dependencies for HTTP handlers. One session is live at
// a time; the mutex serializes all access to it, matching the
// single-athlete logging device this serves.
type Server struct {
	queries Queries
	stores  session.Stores
	log     *slog.Logger
	apiKey  string
	router  chi.Router

	mu     sync.Mutex
	active *session.Session
}

// New creates a new Server with all routes configured.
func New(queries Queries, stores session.Stores, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		queries: queries,
		stores:  stores,
		log:     log,
		apiKey:  apiKey,
		router:  chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))

		r.Route("/instances/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetInstance)
			r.Get("/session", s.handleGetSession)
			r.Post("/start", s.handleStart)
			r.Post("/sets", s.handleSetField)
			r.Post("/sets/done", s.handleMarkDone)
			r.Post("/position", s.handlePosition)
			r.Post("/complete", s.handleComplete)
			r.Post("/restart", s.handleRestart)
		})

		r.Get("/athletes/{id}/instances", s.handleAthleteInstances)
		r.Get("/athletes/{id}/maxes", s.handleAthleteMaxes)
		r.Get("/athletes/{id}/logs", s.handleExerciseHistory)
		r.Get("/workouts/{id}/program", s.handleGetProgram)
	})
}

// sessionFor returns the live session for an instance, opening one if
// the slot is empty or holds a different instance. The caller must
// hold s.mu.
func (s *Server) sessionFor(ctx context.Context, instanceID uuid.UUID) (*session.Session, error) {
	if s.active != nil && s.active.Instance().ID == instanceID {
		return s.active, nil
	}
	sess, err := session.Open(ctx, s.stores, instanceID, session.WithLogger(s.log))
	if err != nil {
		return nil, err
	}
	s.active = sess
	return sess, nil
}
