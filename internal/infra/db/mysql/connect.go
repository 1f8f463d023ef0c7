package mysql

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

const schema = `
CREATE TABLE IF NOT EXISTS scenario_runs (
	run_id        VARCHAR(64)  NOT NULL,
	scenario_id   VARCHAR(64)  NOT NULL,
	scenario_name VARCHAR(255) NOT NULL DEFAULT '',
	process_id    VARCHAR(64)  NOT NULL DEFAULT '',
	process_name  VARCHAR(255) NOT NULL DEFAULT '',
	flow_id       VARCHAR(64)  NOT NULL DEFAULT '',
	flow_name     VARCHAR(255) NOT NULL DEFAULT '',
	status        VARCHAR(16)  NOT NULL DEFAULT 'Unknown',
	created_at    DATETIME     NOT NULL,
	last_updated  DATETIME     NOT NULL,
	PRIMARY KEY (run_id, scenario_id),
	KEY idx_scenario_runs_created_at (created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
`

func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
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
