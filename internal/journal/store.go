// Package journal keeps a local SQLite record of task runs: name, working
// directory, status, return code, and timing. The journal is bookkeeping
// only; a journal failure never changes a task's outcome, and nothing in the
// run pipeline itself is ever retried on its behalf.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "modernc.org/sqlite"
)

// Run is one recorded task outcome.
type Run struct {
	ID         int64
	Task       string
	Workdir    string
	Status     string
	ReturnCode int
	Started    time.Time
	Finished   time.Time
}

// Store is a SQLite-backed run journal.
type Store struct {
	db *sql.DB
}

// Open creates or opens the journal database at path, creating parent
// directories and the schema as needed.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating journal directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening journal %s: %w", path, err)
	}

	s := &Store{db: db}
	if err := s.initSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing journal schema: %w", err)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts one run. Transient write failures (another process holding
// the database busy) are retried briefly with exponential backoff; the run
// pipeline itself never goes through this path.
func (s *Store) Record(ctx context.Context, run Run) error {
	insert := func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO runs (task, workdir, status, return_code, started_at, finished_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, run.Task, run.Workdir, run.Status, run.ReturnCode,
			run.Started.UTC().Format(time.RFC3339Nano),
			run.Finished.UTC().Format(time.RFC3339Nano))
		return err
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 10 * time.Millisecond
	policy.MaxElapsedTime = 2 * time.Second

	if err := backoff.Retry(insert, backoff.WithContext(policy, ctx)); err != nil {
		return fmt.Errorf("recording run for task %q: %w", run.Task, err)
	}
	return nil
}

// Recent returns the last n recorded runs, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, task, workdir, status, return_code, started_at, finished_at
		FROM runs ORDER BY id DESC LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("querying recent runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished string
		if err := rows.Scan(&r.ID, &r.Task, &r.Workdir, &r.Status, &r.ReturnCode, &started, &finished); err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		if r.Started, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("parsing started_at %q: %w", started, err)
		}
		if r.Finished, err = time.Parse(time.RFC3339Nano, finished); err != nil {
			return nil, fmt.Errorf("parsing finished_at %q: %w", finished, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
