package sqlite

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS scenario_runs (
	run_id        TEXT NOT NULL,
	scenario_id   TEXT NOT NULL,
	scenario_name TEXT NOT NULL DEFAULT '',
	process_id    TEXT NOT NULL DEFAULT '',
	process_name  TEXT NOT NULL DEFAULT '',
	flow_id       TEXT NOT NULL DEFAULT '',
	flow_name     TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL DEFAULT 'Unknown',
	created_at    TEXT NOT NULL,
	last_updated  TEXT NOT NULL,
	PRIMARY KEY (run_id, scenario_id)
);
CREATE INDEX IF NOT EXISTS idx_scenario_runs_created_at ON scenario_runs (created_at DESC);
`

// Connect buka file sqlite, siapkan pragma untuk baca paralel saat refresh jalan.
func Connect(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return nil, err
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, err
	}

	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx2); err != nil {
		return nil, err
	}
	return db, nil
}
