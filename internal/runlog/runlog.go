// Package runlog persists generation run history in SQLite.
package runlog

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Run outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
)

// Record is one profile's result within a generation run.
type Record struct {
	ID        int64
	RunID     string
	Profile   string
	StartedAt time.Time
	Duration  time.Duration
	Outcome   string
	Repos     int
	Changed   bool
	Restarted bool
	Error     string
}

// Store is a SQLite-backed run log.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewStore opens (and if needed creates) the run log database.
// Use ":memory:" for an in-memory database.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		profile TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		repositories INTEGER NOT NULL,
		changed INTEGER NOT NULL,
		restarted INTEGER NOT NULL,
		error TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_runs_run_id ON runs(run_id);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append stores one record.
func (s *Store) Append(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, profile, started_at, duration_ms, outcome, repositories, changed, restarted, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Profile, rec.StartedAt.Unix(), rec.Duration.Milliseconds(),
		rec.Outcome, rec.Repos, rec.Changed, rec.Restarted, rec.Error,
	)
	if err != nil {
		return fmt.Errorf("insert run record: %w", err)
	}
	return nil
}

// Recent returns the newest records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, profile, started_at, duration_ms, outcome, repositories, changed, restarted, error
		 FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// ByRunID returns every record of one run in profile order.
func (s *Store) ByRunID(ctx context.Context, runID string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, profile, started_at, duration_ms, outcome, repositories, changed, restarted, error
		 FROM runs WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var records []Record
	for rows.Next() {
		var rec Record
		var startedUnix, durationMS int64
		if err := rows.Scan(&rec.ID, &rec.RunID, &rec.Profile, &startedUnix, &durationMS,
			&rec.Outcome, &rec.Repos, &rec.Changed, &rec.Restarted, &rec.Error); err != nil {
			return nil, fmt.Errorf("scan run record: %w", err)
		}
		rec.StartedAt = time.Unix(startedUnix, 0)
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return records, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
