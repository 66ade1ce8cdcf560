package store

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // pure Go SQLite driver
)

// SQLite persists runs in a SQLite database. Suitable for single-process
// production use; pair with WAL-friendly storage.
type SQLite struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLite opens (and if needed initializes) a SQLite-backed store.
// Path is a file path or ":memory:" for testing.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			run_id      TEXT PRIMARY KEY,
			workflow_id TEXT NOT NULL,
			version     INTEGER NOT NULL,
			status      TEXT NOT NULL,
			updated_at  TEXT NOT NULL,
			data        BLOB NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create runs table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS run_steps (
			run_id TEXT NOT NULL,
			seq    INTEGER NOT NULL,
			data   BLOB NOT NULL,
			PRIMARY KEY (run_id, seq)
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create run_steps table: %w", err)
	}

	return &SQLite{db: db}, nil
}

// SaveRun implements Store.
func (s *SQLite) SaveRun(runID string, data []byte, meta RunMeta) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrClosed
	}

	updated := meta.UpdatedAt
	if updated.IsZero() {
		updated = time.Now().UTC()
	}

	_, err := s.db.Exec(`
		INSERT INTO runs (run_id, workflow_id, version, status, updated_at, data)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			workflow_id = excluded.workflow_id,
			version     = excluded.version,
			status      = excluded.status,
			updated_at  = excluded.updated_at,
			data        = excluded.data
	`, runID, meta.WorkflowID, meta.Version, meta.Status, updated.Format(time.RFC3339Nano), data)

	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}

// LoadRun implements Store.
func (s *SQLite) LoadRun(runID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}

	var data []byte
	err := s.db.QueryRow(`SELECT data FROM runs WHERE run_id = ?`, runID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load run: %w", err)
	}
	return data, nil
}

// AppendStep implements Store.
func (s *SQLite) AppendStep(runID string, seq int, data []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrClosed
	}

	_, err := s.db.Exec(`
		INSERT INTO run_steps (run_id, seq, data)
		VALUES (?, ?, ?)
		ON CONFLICT(run_id, seq) DO UPDATE SET data = excluded.data
	`, runID, seq, data)

	if err != nil {
		return fmt.Errorf("append step: %w", err)
	}
	return nil
}

// ListSteps implements Store.
func (s *SQLite) ListSteps(runID string) ([][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}

	rows, err := s.db.Query(`
		SELECT data FROM run_steps WHERE run_id = ? ORDER BY seq
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list steps: %w", err)
	}
	defer rows.Close()

	out := [][]byte{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		out = append(out, data)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate steps: %w", err)
	}
	return out, nil
}

// DeleteRun implements Store.
func (s *SQLite) DeleteRun(runID string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrClosed
	}

	if _, err := s.db.Exec(`DELETE FROM run_steps WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("delete run steps: %w", err)
	}
	if _, err := s.db.Exec(`DELETE FROM runs WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *SQLite) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
