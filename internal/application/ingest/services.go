package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bryanwahyu/scenario-search/internal/application"
	"github.com/bryanwahyu/scenario-search/internal/domain/scenarios"
)

// Service implements use-cases untuk ingest report
type Service struct {
	Repo    scenarios.Repository
	Source  scenarios.Source
	Archive scenarios.SnapshotArchive // boleh nil, arsip snapshot jadi opsional
	Clock   application.Clock
	Log     *zap.Logger
}

// Refresh tarik semua report dari sumber lalu ganti isi store per run.
// Payload mentah diarsip untuk audit, gagal arsip tidak menggagalkan ingest.
func (s *Service) Refresh(ctx context.Context) error {
	start := s.Clock.Now()
	ingestID := uuid.New().String()
	log := s.logger().With(zap.String("ingest", ingestID))

	reports, err := s.Source.FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("fetching reports: %w", err)
	}
	if len(reports) == 0 {
		log.Warn("no runs returned by source, store left untouched")
		return nil
	}

	total := 0
	for _, report := range reports {
		for _, row := range report.Rows {
			row.LastUpdated = start
		}
		if err := s.Repo.ReplaceRun(ctx, report.RunID, report.Rows); err != nil {
			return fmt.Errorf("storing run %s: %w", report.RunID, err)
		}
		total += len(report.Rows)
	}

	if s.Archive != nil {
		for _, report := range reports {
			key := fmt.Sprintf("snapshots/%s/%s.json", ingestID, report.RunID)
			if _, err := s.Archive.PutSnapshot(ctx, key, report.Raw); err != nil {
				log.Warn("snapshot archive failed",
					zap.String("runId", string(report.RunID)),
					zap.Error(err))
			}
		}
	}

	log.Info("ingest done",
		zap.Int("runs", len(reports)),
		zap.String("rows", humanize.Comma(int64(total))),
		zap.Duration("took", s.Clock.Now().Sub(start)))
	return nil
}

// RunOnce refresh sekali dengan menghormati umur dataset, untuk pemakaian CLI.
// Balikan pertama true kalau refresh benar-benar jalan.
func (s *Service) RunOnce(ctx context.Context, maxAge time.Duration) (bool, error) {
	last, err := s.Repo.LastRefreshedAt(ctx)
	if err != nil {
		return false, fmt.Errorf("loading refresh state: %w", err)
	}
	if !last.IsZero() && s.Clock.Now().Sub(last) <= maxAge {
		s.logger().Info("dataset still fresh, skipping ingest",
			zap.String("age", humanize.RelTime(last, s.Clock.Now(), "ago", "from now")))
		return false, nil
	}
	if err := s.Refresh(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) logger() *zap.Logger {
	if s.Log != nil {
		return s.Log
	}
	return zap.NewNop()
}
