package journal

import "context"

// initSchema creates the runs table if it doesn't exist.
func (s *Store) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		task TEXT NOT NULL,
		workdir TEXT NOT NULL,
		status TEXT NOT NULL,
		return_code INTEGER NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_task ON runs(task, id);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}
