// Package history keeps a SQLite log of builds and publishes.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Build is one row of the build log.
type Build struct {
	ID             string
	Started        time.Time
	Finished       time.Time
	Mode           string
	Commit         string
	Outcome        string
	Selected       int
	DraftsExcluded int
	Malformed      int
	Deployed       bool
	Error          string
}

// Duration is how long the build ran.
func (b Build) Duration() time.Duration { return b.Finished.Sub(b.Started) }

// Store records builds. Methods are safe for concurrent use.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens (creating if needed) the history database at path.
// Use ":memory:" for an in-memory store.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id TEXT PRIMARY KEY,
		started INTEGER NOT NULL,
		finished INTEGER NOT NULL,
		mode TEXT NOT NULL,
		commit_hash TEXT NOT NULL DEFAULT '',
		outcome TEXT NOT NULL,
		selected INTEGER NOT NULL DEFAULT 0,
		drafts_excluded INTEGER NOT NULL DEFAULT 0,
		malformed INTEGER NOT NULL DEFAULT 0,
		deployed INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_builds_started ON builds(started);
	`
	_, err := s.db.Exec(schema)
	return err
}

// NewID returns a fresh build identifier.
func NewID() string { return uuid.NewString() }

// Record inserts b, or replaces the row with the same ID. An empty ID is
// assigned one; the stored ID is returned.
func (s *Store) Record(ctx context.Context, b Build) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b.ID == "" {
		b.ID = NewID()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO builds
			(id, started, finished, mode, commit_hash, outcome, selected, drafts_excluded, malformed, deployed, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Started.UnixMilli(), b.Finished.UnixMilli(), b.Mode, b.Commit, b.Outcome,
		b.Selected, b.DraftsExcluded, b.Malformed, b.Deployed, b.Error,
	)
	if err != nil {
		return "", fmt.Errorf("insert build: %w", err)
	}
	return b.ID, nil
}

// Recent returns up to limit builds, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Build, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started, finished, mode, commit_hash, outcome, selected, drafts_excluded, malformed, deployed, error
		FROM builds ORDER BY started DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var builds []Build
	for rows.Next() {
		var (
			b                 Build
			started, finished int64
		)
		if err := rows.Scan(&b.ID, &started, &finished, &b.Mode, &b.Commit, &b.Outcome,
			&b.Selected, &b.DraftsExcluded, &b.Malformed, &b.Deployed, &b.Error); err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		b.Started = time.UnixMilli(started).UTC()
		b.Finished = time.UnixMilli(finished).UTC()
		builds = append(builds, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return builds, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
