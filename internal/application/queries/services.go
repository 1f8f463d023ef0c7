package queries

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/bryanwahyu/scenario-search/internal/application"
	"github.com/bryanwahyu/scenario-search/internal/domain/nlq"
	"github.com/bryanwahyu/scenario-search/internal/domain/scenarios"
)

// ErrEmptyQuery query kosong atau cuma whitespace.
var ErrEmptyQuery = errors.New("query must be a non-empty string")

const (
	defaultMaxAge          = 24 * time.Hour
	defaultRefreshBudget   = 5 * time.Minute
	defaultInterpretBudget = 15 * time.Second
	refreshSingleflightKey = "refresh"
)

// Refresher dipanggil saat dataset lewat umur maksimal.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Service implements use-cases untuk query bahasa natural
// Service is designed to be used concurrently and is thread-safe
type Service struct {
	Repo        scenarios.Repository
	Interpreter nlq.Interpreter
	Refresher   Refresher
	Clock       application.Clock
	Log         *zap.Logger

	// MaxAge umur maksimal dataset sebelum refresh, default 24 jam.
	MaxAge time.Duration
	// RefreshBudget batas waktu refresh inline.
	RefreshBudget time.Duration
	// InterpretBudget batas waktu penerjemahan query.
	InterpretBudget time.Duration

	group singleflight.Group

	mu            sync.Mutex
	seeded        bool
	lastRefreshed time.Time
}

// RunSummary satu baris hasil, key JSON pakai label tampilan.
type RunSummary struct {
	RunID      string `json:"Run ID"`
	ScenarioID string `json:"Scenario ID"`
	Scenario   string `json:"Scenario"`
	ProcessID  string `json:"Process ID"`
	Process    string `json:"Process"`
	FlowID     string `json:"Flow ID"`
	Flow       string `json:"Flow"`
	Status     string `json:"Status"`
	Timestamp  string `json:"Timestamp"`
}

type QueryResponse struct {
	Success bool         `json:"success"`
	Count   int          `json:"count"`
	Results []RunSummary `json:"results"`
}

// HandleQuery alur lengkap: validasi, jaga kesegaran dataset,
// terjemahkan query, lalu baca dari repo.
func (s *Service) HandleQuery(ctx context.Context, query string) (QueryResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return QueryResponse{}, ErrEmptyQuery
	}

	if err := s.EnsureFresh(ctx); err != nil {
		return QueryResponse{}, err
	}

	ictx, cancel := context.WithTimeout(ctx, s.interpretBudget())
	defer cancel()
	filter, err := s.Interpreter.Interpret(ictx, query, s.Clock.Now())
	if err != nil {
		return QueryResponse{}, fmt.Errorf("interpreting query: %w", err)
	}
	filter = filter.Normalized()

	rows, err := s.Repo.Query(ctx, filter)
	if err != nil {
		return QueryResponse{}, fmt.Errorf("querying scenario runs: %w", err)
	}

	results := make([]RunSummary, 0, len(rows))
	for _, r := range rows {
		results = append(results, RunSummary{
			RunID:      string(r.RunID),
			ScenarioID: r.ScenarioID,
			Scenario:   r.ScenarioName,
			ProcessID:  r.ProcessID,
			Process:    r.ProcessName,
			FlowID:     r.FlowID,
			Flow:       r.FlowName,
			Status:     string(r.Status),
			Timestamp:  r.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return QueryResponse{Success: true, Count: len(results), Results: results}, nil
}

// EnsureFresh refresh dataset kalau umurnya lewat MaxAge. Request yang datang
// barengan menumpang satu refresh yang sama, bukan bikin refresh sendiri.
func (s *Service) EnsureFresh(ctx context.Context) error {
	if err := s.seed(ctx); err != nil {
		return fmt.Errorf("loading refresh state: %w", err)
	}
	if !s.stale(s.Clock.Now()) {
		return nil
	}

	s.logger().Info("dataset stale, refreshing", zap.Time("lastRefreshed", s.LastRefreshedAt()))
	ch := s.group.DoChan(refreshSingleflightKey, func() (interface{}, error) {
		// refresh jalan di context sendiri: putusnya satu client tidak boleh
		// membatalkan refresh yang ditumpangi request lain
		rctx, cancel := context.WithTimeout(context.Background(), s.refreshBudget())
		defer cancel()

		if !s.stale(s.Clock.Now()) {
			return nil, nil
		}
		if err := s.Refresher.Refresh(rctx); err != nil {
			s.logger().Error("refresh failed", zap.Error(err))
			return nil, errors.Join(scenarios.ErrRefreshFailed, err)
		}
		s.mu.Lock()
		s.lastRefreshed = s.Clock.Now()
		s.mu.Unlock()
		s.logger().Info("refresh done")
		return nil, nil
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LastRefreshedAt stempel refresh terakhir yang diketahui service.
func (s *Service) LastRefreshedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRefreshed
}

func (s *Service) seed(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seeded {
		return nil
	}
	ts, err := s.Repo.LastRefreshedAt(ctx)
	if err != nil {
		return err
	}
	s.lastRefreshed = ts
	s.seeded = true
	return nil
}

func (s *Service) stale(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRefreshed.IsZero() || now.Sub(s.lastRefreshed) > s.maxAge()
}

func (s *Service) maxAge() time.Duration {
	if s.MaxAge > 0 {
		return s.MaxAge
	}
	return defaultMaxAge
}

func (s *Service) refreshBudget() time.Duration {
	if s.RefreshBudget > 0 {
		return s.RefreshBudget
	}
	return defaultRefreshBudget
}

func (s *Service) interpretBudget() time.Duration {
	if s.InterpretBudget > 0 {
		return s.InterpretBudget
	}
	return defaultInterpretBudget
}

func (s *Service) logger() *zap.Logger {
	if s.Log != nil {
		return s.Log
	}
	return zap.NewNop()
}
