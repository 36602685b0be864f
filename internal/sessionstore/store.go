// Package sessionstore persists the single-slot session recovery
// snapshot in a local SQLite database, so an interrupted workout
// survives a process restart without touching the backend.
package sessionstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/claude/liftlog/internal/session"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// StaleAfter is how long a saved snapshot stays resumable. Anything
// older is treated as abandoned and discarded on load.
const StaleAfter = 24 * time.Hour

// Store is the local snapshot slot. One row (id=1) holds the active
// session's JSON payload; Save overwrites it, Clear empties it.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the SQLite snapshot database at
// dir/session.db.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating session state dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "session.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening session db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS active_session (
		id          INTEGER PRIMARY KEY CHECK (id = 1),
		instance_id TEXT NOT NULL,
		started_at  TIMESTAMP NOT NULL,
		payload     TEXT NOT NULL,
		saved_at    TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating session table: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Save overwrites the slot with the given snapshot.
func (s *Store) Save(snap *session.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO active_session (id, instance_id, started_at, payload, saved_at)
		 VALUES (1, ?, ?, ?, ?)`,
		snap.WorkoutInstanceID.String(),
		snap.StartedAt.UTC().Format(time.RFC3339),
		string(payload),
		s.now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

// Load returns the stored snapshot, or (nil, nil) when the slot is
// empty or the snapshot has gone stale. A stale or undecodable payload
// is cleared rather than returned.
func (s *Store) Load() (*session.Snapshot, error) {
	var payload, startedAt string
	err := s.db.QueryRow(
		`SELECT payload, started_at FROM active_session WHERE id = 1`,
	).Scan(&payload, &startedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	started, err := time.Parse(time.RFC3339, startedAt)
	if err != nil || s.now().Sub(started) > StaleAfter {
		s.Clear()
		return nil, nil
	}

	var snap session.Snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		s.Clear()
		return nil, nil
	}
	return &snap, nil
}

// Clear empties the slot.
func (s *Store) Clear() error {
	_, err := s.db.Exec(`DELETE FROM active_session WHERE id = 1`)
	return err
}

// ActiveInfo describes the stored snapshot without decoding the full
// payload, for "resume workout?" prompts and the MCP resource.
type ActiveInfo struct {
	InstanceID uuid.UUID `json:"instance_id"`
	StartedAt  time.Time `json:"started_at"`
	SavedAt    time.Time `json:"saved_at"`
}

// Active reports the slot's identity, or (nil, nil) when empty or
// stale.
func (s *Store) Active() (*ActiveInfo, error) {
	var instanceID, startedAt, savedAt string
	err := s.db.QueryRow(
		`SELECT instance_id, started_at, saved_at FROM active_session WHERE id = 1`,
	).Scan(&instanceID, &startedAt, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading active session: %w", err)
	}

	id, err := uuid.Parse(instanceID)
	if err != nil {
		return nil, fmt.Errorf("parsing stored instance id: %w", err)
	}
	started, err := time.Parse(time.RFC3339, startedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing stored start time: %w", err)
	}
	if s.now().Sub(started) > StaleAfter {
		return nil, nil
	}
	info := &ActiveInfo{InstanceID: id, StartedAt: started}
	if t, err := time.Parse(time.RFC3339, savedAt); err == nil {
		info.SavedAt = t
	}
	return info, nil
}

// Close closes the snapshot database.
func (s *Store) Close() error {
	return s.db.Close()
}
