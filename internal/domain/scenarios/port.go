package scenarios

import "time"
import "context"

// Repository port (interface untuk persistence)
type Repository interface {
	// ReplaceRun hapus semua baris milik run lalu insert ulang dalam satu
	// transaksi. Ingestion path.
	ReplaceRun(ctx context.Context, run RunID, rows []*ScenarioRun) error
	// Query ambil baris yang cocok dengan filter, urut createdTimestamp desc.
	Query(ctx context.Context, f Filter) ([]*ScenarioRun, error)
	// LastRefreshedAt watermark refresh terakhir (MAX(last_updated));
	// zero time kalau belum pernah ingest.
	LastRefreshedAt(ctx context.Context) (time.Time, error)
	Count(ctx context.Context) (int64, error)
}

// Source port (interface untuk narik dataset dari upstream API)
type Source interface {
	FetchAll(ctx context.Context) ([]*RunReport, error)
}

// SnapshotArchive port (interface untuk arsip payload mentah per ingest)
type SnapshotArchive interface {
	PutSnapshot(ctx context.Context, key string, payload []byte) (string, error)
}
