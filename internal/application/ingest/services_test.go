package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/scenario-search/internal/application"
	"github.com/bryanwahyu/scenario-search/internal/domain/scenarios"
)

var testNow = time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)

type fakeRepo struct {
	replaced   map[scenarios.RunID][]*scenarios.ScenarioRun
	replaceErr error
	last       time.Time
	lastErr    error
}

func (f *fakeRepo) ReplaceRun(ctx context.Context, run scenarios.RunID, rows []*scenarios.ScenarioRun) error {
	if f.replaceErr != nil {
		return f.replaceErr
	}
	if f.replaced == nil {
		f.replaced = map[scenarios.RunID][]*scenarios.ScenarioRun{}
	}
	f.replaced[run] = rows
	return nil
}

func (f *fakeRepo) Query(ctx context.Context, filter scenarios.Filter) ([]*scenarios.ScenarioRun, error) {
	return nil, nil
}

func (f *fakeRepo) LastRefreshedAt(ctx context.Context) (time.Time, error) {
	return f.last, f.lastErr
}

func (f *fakeRepo) Count(ctx context.Context) (int64, error) {
	return 0, nil
}

type fakeSource struct {
	reports []*scenarios.RunReport
	err     error
	calls   int
}

func (f *fakeSource) FetchAll(ctx context.Context) ([]*scenarios.RunReport, error) {
	f.calls++
	return f.reports, f.err
}

type fakeArchive struct {
	keys []string
	err  error
}

func (f *fakeArchive) PutSnapshot(ctx context.Context, key string, payload []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.keys = append(f.keys, key)
	return "http://archive/" + key, nil
}

func report(run string, n int) *scenarios.RunReport {
	rep := &scenarios.RunReport{
		RunID: scenarios.RunID(run),
		Raw:   []byte(`{"data":{}}`),
	}
	for i := 0; i < n; i++ {
		rep.Rows = append(rep.Rows, &scenarios.ScenarioRun{
			RunID:      rep.RunID,
			ScenarioID: string(rune('a' + i)),
			Status:     scenarios.StatusPassed,
			CreatedAt:  testNow.Add(-time.Hour),
		})
	}
	return rep
}

func newService(repo *fakeRepo, source *fakeSource, archive scenarios.SnapshotArchive) *Service {
	return &Service{
		Repo:    repo,
		Source:  source,
		Archive: archive,
		Clock:   application.FrozenClock{T: testNow},
	}
}

func TestRefresh(t *testing.T) {
	t.Run("stores every run and stamps rows", func(t *testing.T) {
		repo := &fakeRepo{}
		source := &fakeSource{reports: []*scenarios.RunReport{report("101", 3), report("102", 1)}}
		svc := newService(repo, source, nil)

		require.NoError(t, svc.Refresh(context.Background()))
		require.Len(t, repo.replaced, 2)
		assert.Len(t, repo.replaced["101"], 3)
		assert.Len(t, repo.replaced["102"], 1)
		for _, rows := range repo.replaced {
			for _, row := range rows {
				assert.Equal(t, testNow, row.LastUpdated)
			}
		}
	})

	t.Run("archives raw payload per run", func(t *testing.T) {
		archive := &fakeArchive{}
		source := &fakeSource{reports: []*scenarios.RunReport{report("101", 1), report("102", 1)}}
		svc := newService(&fakeRepo{}, source, archive)

		require.NoError(t, svc.Refresh(context.Background()))
		require.Len(t, archive.keys, 2)
		for _, key := range archive.keys {
			assert.True(t, strings.HasPrefix(key, "snapshots/"), key)
			assert.True(t, strings.HasSuffix(key, ".json"), key)
		}
		assert.True(t, strings.HasSuffix(archive.keys[0], "/101.json"), archive.keys[0])
		assert.True(t, strings.HasSuffix(archive.keys[1], "/102.json"), archive.keys[1])
	})

	t.Run("archive failure does not fail the ingest", func(t *testing.T) {
		repo := &fakeRepo{}
		source := &fakeSource{reports: []*scenarios.RunReport{report("101", 1)}}
		svc := newService(repo, source, &fakeArchive{err: errors.New("bucket gone")})

		require.NoError(t, svc.Refresh(context.Background()))
		assert.Len(t, repo.replaced, 1)
	})

	t.Run("source failure propagates", func(t *testing.T) {
		repo := &fakeRepo{}
		source := &fakeSource{err: scenarios.ErrUpstreamUnavailable}
		svc := newService(repo, source, nil)

		err := svc.Refresh(context.Background())
		assert.ErrorIs(t, err, scenarios.ErrUpstreamUnavailable)
		assert.Empty(t, repo.replaced)
	})

	t.Run("store failure propagates", func(t *testing.T) {
		repo := &fakeRepo{replaceErr: errors.New("disk full")}
		source := &fakeSource{reports: []*scenarios.RunReport{report("101", 1)}}
		svc := newService(repo, source, nil)

		err := svc.Refresh(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storing run 101")
	})

	t.Run("empty source leaves store untouched", func(t *testing.T) {
		repo := &fakeRepo{}
		svc := newService(repo, &fakeSource{}, nil)

		require.NoError(t, svc.Refresh(context.Background()))
		assert.Empty(t, repo.replaced)
	})
}

func TestRunOnce(t *testing.T) {
	t.Run("skips when dataset fresh", func(t *testing.T) {
		repo := &fakeRepo{last: testNow.Add(-time.Hour)}
		source := &fakeSource{reports: []*scenarios.RunReport{report("101", 1)}}
		svc := newService(repo, source, nil)

		ran, err := svc.RunOnce(context.Background(), 24*time.Hour)
		require.NoError(t, err)
		assert.False(t, ran)
		assert.Zero(t, source.calls)
	})

	t.Run("runs when dataset stale", func(t *testing.T) {
		repo := &fakeRepo{last: testNow.Add(-25 * time.Hour)}
		source := &fakeSource{reports: []*scenarios.RunReport{report("101", 1)}}
		svc := newService(repo, source, nil)

		ran, err := svc.RunOnce(context.Background(), 24*time.Hour)
		require.NoError(t, err)
		assert.True(t, ran)
		assert.Len(t, repo.replaced, 1)
	})

	t.Run("runs when store empty", func(t *testing.T) {
		repo := &fakeRepo{}
		source := &fakeSource{reports: []*scenarios.RunReport{report("101", 1)}}
		svc := newService(repo, source, nil)

		ran, err := svc.RunOnce(context.Background(), 24*time.Hour)
		require.NoError(t, err)
		assert.True(t, ran)
	})

	t.Run("state read failure propagates", func(t *testing.T) {
		repo := &fakeRepo{lastErr: errors.New("no such table")}
		svc := newService(repo, &fakeSource{}, nil)

		_, err := svc.RunOnce(context.Background(), 24*time.Hour)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "loading refresh state")
	})
}
