// Package store persists report runs and their grouped summary tables
// to a local SQLite database so successive runs can be compared.
package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/finwell-group/nfcs-cli/internal/summary"
)

// Run statuses recorded in report_runs.
const (
	RunStatusRunning  = "running"
	RunStatusComplete = "complete"
	RunStatusFailed   = "failed"
)

// Store wraps the SQLite handle.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database and configures WAL mode.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "store: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "store: exec %s", pragma)
		}
	}
	return &Store{db: db}, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS report_runs (
	id         TEXT PRIMARY KEY,
	source     TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'running',
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS summary_rows (
	id        TEXT PRIMARY KEY,
	run_id    TEXT NOT NULL REFERENCES report_runs(id),
	grouping  TEXT NOT NULL,
	group_key TEXT NOT NULL,
	n         INTEGER NOT NULL,
	mean      REAL NOT NULL,
	std       REAL NOT NULL,
	se        REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_summary_rows_run_id ON summary_rows(run_id);
CREATE INDEX IF NOT EXISTS idx_summary_rows_grouping ON summary_rows(grouping);
`

// Migrate creates the schema.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, migration)
	return eris.Wrap(err, "store: migrate")
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateRun records the start of a report run over the given source
// dataset and returns the run id.
func (s *Store) CreateRun(ctx context.Context, source string) (string, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO report_runs (id, source, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, source, RunStatusRunning, now, now,
	)
	if err != nil {
		return "", eris.Wrap(err, "store: insert run")
	}
	return id, nil
}

// FinishRun marks a run's terminal status.
func (s *Store) FinishRun(ctx context.Context, runID, status string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE report_runs SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "store: finish run %s", runID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "store: rows affected")
	}
	if n == 0 {
		return eris.Errorf("store: run %s not found", runID)
	}
	return nil
}

// SaveTable persists every row of a grouped summary table under a run.
func (s *Store) SaveTable(ctx context.Context, runID string, t *summary.Table) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "store: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, row := range t.Rows {
		key := row.Keys[0]
		for _, part := range row.Keys[1:] {
			key += "|" + part
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO summary_rows (id, run_id, grouping, group_key, n, mean, std, se) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), runID, t.Title, key, row.N, row.Mean, row.Std, row.SE,
		)
		if err != nil {
			return eris.Wrapf(err, "store: insert summary row for %s", t.Title)
		}
	}

	return eris.Wrap(tx.Commit(), "store: commit")
}

// CountRows reports how many summary rows a run produced. Used by status
// checks and tests.
func (s *Store) CountRows(ctx context.Context, runID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM summary_rows WHERE run_id = ?`, runID,
	).Scan(&n)
	if err != nil {
		return 0, eris.Wrap(err, "store: count rows")
	}
	return n, nil
}
