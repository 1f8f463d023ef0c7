package postgres

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
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
	created_at    TIMESTAMPTZ NOT NULL,
	last_updated  TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (run_id, scenario_id)
);
CREATE INDEX IF NOT EXISTS idx_scenario_runs_created_at ON scenario_runs (created_at DESC);
`

func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	// test ping
	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx2); err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, err
	}
	return db, nil
}
