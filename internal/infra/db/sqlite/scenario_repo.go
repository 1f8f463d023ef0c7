package sqlite

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
			row.FlowID, row.FlowName, row.Status, formatTime(row.CreatedAt), formatTime(updated),
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
		var (
			s                  domain.ScenarioRun
			created, refreshed string
		)
		if err := rows.Scan(
			&s.RunID, &s.ScenarioID, &s.ScenarioName, &s.ProcessID, &s.ProcessName,
			&s.FlowID, &s.FlowName, &s.Status, &created, &refreshed,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if s.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		if s.LastUpdated, err = parseTime(refreshed); err != nil {
			return nil, err
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
		args = append(args, formatTime(f.From))
	}
	if !f.To.IsZero() {
		query += " AND created_at <= ?"
		args = append(args, formatTime(f.To))
	}
	for _, term := range f.Match {
		// sqlite tidak punya escape char default, wajib klausa ESCAPE
		pattern := "%" + escapeLikePattern(term) + "%"
		query += ` AND (scenario_name LIKE ? ESCAPE '\' OR process_name LIKE ? ESCAPE '\' OR flow_name LIKE ? ESCAPE '\')`
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
	var ts string
	if err := r.db.QueryRowContext(ctx, q).Scan(&ts); err != nil {
		if err == sql.ErrNoRows {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}
	return parseTime(ts)
}

func (r *ScenarioRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scenario_runs;`).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Waktu disimpan sebagai teks RFC3339 UTC. Format tetap berarti
// perbandingan string di WHERE sama dengan perbandingan waktu.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing stored time %q: %w", s, err)
	}
	return t.UTC(), nil
}

// escapeLikePattern escapes special characters in LIKE patterns to prevent SQL injection
func escapeLikePattern(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}
