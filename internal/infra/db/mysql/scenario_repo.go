package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	domain "github.com/bryanwahyu/scenario-search/internal/domain/scenarios"
)

const insertBatchSize = 50

type ScenarioRepository struct {
	db *sql.DB
}

func NewScenarioRepository(db *sql.DB) *ScenarioRepository {
	return &ScenarioRepository{db: db}
}

// ReplaceRun ganti semua baris milik satu run dalam satu transaksi.
func (r *ScenarioRepository) ReplaceRun(ctx context.Context, run domain.RunID, rows []*domain.ScenarioRun) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM scenario_runs WHERE run_id = ?;`, run); err != nil {
		return fmt.Errorf("delete run %s: %w", run, err)
	}
	for start := 0; start < len(rows); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := insertBatch(ctx, tx, rows[start:end]); err != nil {
			return fmt.Errorf("insert run %s: %w", run, err)
		}
	}
	return tx.Commit()
}

func insertBatch(ctx context.Context, tx *sql.Tx, rows []*domain.ScenarioRun) error {
	var sb strings.Builder
	sb.WriteString(`
INSERT INTO scenario_runs
(run_id, scenario_id, scenario_name, process_id, process_name,
 flow_id, flow_name, status, created_at, last_updated)
VALUES `)

	args := make([]interface{}, 0, len(rows)*10)
	for i, row := range rows {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("(?,?,?,?,?,?,?,?,?,?)")

		updated := row.LastUpdated
		if updated.IsZero() {
			updated = time.Now()
		}
		args = append(args,
			row.RunID, row.ScenarioID, row.ScenarioName, row.ProcessID, row.ProcessName,
			row.FlowID, row.FlowName, row.Status, row.CreatedAt, updated,
		)
	}
	_, err := tx.ExecContext(ctx, sb.String(), args...)
	return err
}

// Query ambil baris sesuai filter, terbaru duluan.
func (r *ScenarioRepository) Query(ctx context.Context, f domain.Filter) ([]*domain.ScenarioRun, error) {
	q, args := buildQuery(f)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying scenario runs: %w", err)
	}
	defer rows.Close()

	var out []*domain.ScenarioRun
	for rows.Next() {
		var s domain.ScenarioRun
		if err := rows.Scan(
			&s.RunID, &s.ScenarioID, &s.ScenarioName, &s.ProcessID, &s.ProcessName,
			&s.FlowID, &s.FlowName, &s.Status, &s.CreatedAt, &s.LastUpdated,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

func buildQuery(f domain.Filter) (string, []interface{}) {
	query := `
SELECT run_id, scenario_id, scenario_name, process_id, process_name,
       flow_id, flow_name, status, created_at, last_updated
FROM scenario_runs
WHERE 1=1`

	var args []interface{}
	if f.Status != "" {
		query += " AND status = ?"
		args = append(args, f.Status)
	}
	if !f.From.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, f.From)
	}
	if !f.To.IsZero() {
		query += " AND created_at <= ?"
		args = append(args, f.To)
	}
	for _, term := range f.Match {
		// placeholder mysql posisional, pattern yang sama diikat tiga kali
		pattern := "%" + escapeLikePattern(term) + "%"
		query += " AND (scenario_name LIKE ? OR process_name LIKE ? OR flow_name LIKE ?)"
		args = append(args, pattern, pattern, pattern)
	}

	query += "\nORDER BY created_at DESC, run_id, scenario_id"
	if f.Limit > 0 {
		query += "\nLIMIT ?"
		args = append(args, f.Limit)
	}
	return query, args
}

// LastRefreshedAt timestamp refresh terakhir, zero kalau tabel kosong.
func (r *ScenarioRepository) LastRefreshedAt(ctx context.Context) (time.Time, error) {
	const q = `
SELECT last_updated FROM scenario_runs
ORDER BY last_updated DESC
LIMIT 1;`
	var ts time.Time
	if err := r.db.QueryRowContext(ctx, q).Scan(&ts); err != nil {
		if err == sql.ErrNoRows {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}
	return ts.UTC(), nil
}

func (r *ScenarioRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scenario_runs;`).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}
