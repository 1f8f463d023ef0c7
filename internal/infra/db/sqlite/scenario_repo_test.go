package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/scenario-search/internal/domain/scenarios"
)

func newTestRepo(t *testing.T) *ScenarioRepository {
	t.Helper()
	db, err := Connect(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewScenarioRepository(db)
}

func row(run, scenario string, status domain.RunStatus, created time.Time) *domain.ScenarioRun {
	return &domain.ScenarioRun{
		RunID:        domain.RunID(run),
		ScenarioID:   scenario,
		ScenarioName: "Scenario " + scenario,
		ProcessID:    "p1",
		ProcessName:  "Checkout",
		FlowID:       "f1",
		FlowName:     "Guest checkout",
		Status:       status,
		CreatedAt:    created,
		LastUpdated:  created.Add(time.Hour),
	}
}

func TestReplaceRun(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	created := time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)

	require.NoError(t, repo.ReplaceRun(ctx, "101", []*domain.ScenarioRun{
		row("101", "a", domain.StatusPassed, created),
		row("101", "b", domain.StatusFailed, created),
	}))
	require.NoError(t, repo.ReplaceRun(ctx, "102", []*domain.ScenarioRun{
		row("102", "a", domain.StatusPassed, created.Add(time.Hour)),
	}))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	// replay run 101 dengan satu baris saja, baris lama harus hilang
	require.NoError(t, repo.ReplaceRun(ctx, "101", []*domain.ScenarioRun{
		row("101", "c", domain.StatusPassed, created),
	}))

	got, err := repo.Query(ctx, domain.Filter{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	ids := []string{string(got[0].RunID) + "/" + got[0].ScenarioID, string(got[1].RunID) + "/" + got[1].ScenarioID}
	assert.Equal(t, []string{"102/a", "101/c"}, ids)
}

func TestReplaceRunEmptyClearsRun(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	created := time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)

	require.NoError(t, repo.ReplaceRun(ctx, "101", []*domain.ScenarioRun{
		row("101", "a", domain.StatusPassed, created),
	}))
	require.NoError(t, repo.ReplaceRun(ctx, "101", nil))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestReplaceRunLargeBatch(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	created := time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)

	var rows []*domain.ScenarioRun
	for i := 0; i < 2*insertBatchSize+7; i++ {
		r := row("101", string(rune('a'+i%26))+string(rune('a'+i/26)), domain.StatusPassed, created)
		rows = append(rows, r)
	}
	require.NoError(t, repo.ReplaceRun(ctx, "101", rows))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, len(rows), count)
}

func TestQueryFilters(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	jun8 := time.Date(2025, 6, 8, 12, 0, 0, 0, time.UTC)
	jun10 := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	jun12 := time.Date(2025, 6, 12, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.ReplaceRun(ctx, "101", []*domain.ScenarioRun{
		row("101", "a", domain.StatusPassed, jun8),
		row("101", "b", domain.StatusFailed, jun10),
	}))
	require.NoError(t, repo.ReplaceRun(ctx, "102", []*domain.ScenarioRun{
		row("102", "a", domain.StatusFailed, jun12),
	}))

	t.Run("status only", func(t *testing.T) {
		got, err := repo.Query(ctx, domain.Filter{Status: domain.StatusFailed})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, domain.RunID("102"), got[0].RunID)
		assert.Equal(t, domain.RunID("101"), got[1].RunID)
	})

	t.Run("window inclusive", func(t *testing.T) {
		got, err := repo.Query(ctx, domain.Filter{From: jun8, To: jun10})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("window excludes outside", func(t *testing.T) {
		got, err := repo.Query(ctx, domain.Filter{From: jun10.Add(time.Hour), To: jun12.Add(time.Hour)})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, domain.RunID("102"), got[0].RunID)
	})

	t.Run("status and window combined", func(t *testing.T) {
		got, err := repo.Query(ctx, domain.Filter{Status: domain.StatusFailed, From: jun8, To: jun10})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "b", got[0].ScenarioID)
	})

	t.Run("limit", func(t *testing.T) {
		got, err := repo.Query(ctx, domain.Filter{Limit: 1})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, domain.RunID("102"), got[0].RunID)
	})

	t.Run("match on scenario name", func(t *testing.T) {
		got, err := repo.Query(ctx, domain.Filter{Match: []string{"scenario b"}})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "b", got[0].ScenarioID)
	})

	t.Run("match on process name", func(t *testing.T) {
		got, err := repo.Query(ctx, domain.Filter{Match: []string{"checkout"}})
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})

	t.Run("match with wildcard chars is literal", func(t *testing.T) {
		got, err := repo.Query(ctx, domain.Filter{Match: []string{"%"}})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("no rows", func(t *testing.T) {
		got, err := repo.Query(ctx, domain.Filter{Status: domain.StatusPassed, From: jun12, To: jun12.Add(time.Hour)})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("roundtrip fields", func(t *testing.T) {
		got, err := repo.Query(ctx, domain.Filter{Match: []string{"Scenario a"}, From: jun8, To: jun8.Add(time.Hour)})
		require.NoError(t, err)
		require.Len(t, got, 1)
		s := got[0]
		assert.Equal(t, domain.RunID("101"), s.RunID)
		assert.Equal(t, "Scenario a", s.ScenarioName)
		assert.Equal(t, "Checkout", s.ProcessName)
		assert.Equal(t, "Guest checkout", s.FlowName)
		assert.Equal(t, jun8, s.CreatedAt)
		assert.Equal(t, jun8.Add(time.Hour), s.LastUpdated)
	})
}

func TestLastRefreshedAt(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	ts, err := repo.LastRefreshedAt(ctx)
	require.NoError(t, err)
	assert.True(t, ts.IsZero())

	created := time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)
	require.NoError(t, repo.ReplaceRun(ctx, "101", []*domain.ScenarioRun{
		row("101", "a", domain.StatusPassed, created),
	}))

	ts, err = repo.LastRefreshedAt(ctx)
	require.NoError(t, err)
	assert.Equal(t, created.Add(time.Hour), ts)
}
