package openai

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/scenario-search/internal/domain/nlq"
	"github.com/bryanwahyu/scenario-search/internal/domain/scenarios"
)

func TestParseFilter(t *testing.T) {
	t.Run("full filter", func(t *testing.T) {
		f, err := ParseFilter(`{"status":"Failed","from":"2025-06-08T00:00:00Z","to":"2025-06-14T23:59:59Z","match":["checkout"],"limit":0}`)
		require.NoError(t, err)
		assert.Equal(t, scenarios.StatusFailed, f.Status)
		assert.Equal(t, time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC), f.From)
		assert.Equal(t, time.Date(2025, 6, 14, 23, 59, 59, 0, time.UTC), f.To)
		assert.Equal(t, []string{"checkout"}, f.Match)
		assert.Zero(t, f.Limit)
	})

	t.Run("status case insensitive", func(t *testing.T) {
		f, err := ParseFilter(`{"status":"passed","from":"","to":"","match":[],"limit":0}`)
		require.NoError(t, err)
		assert.Equal(t, scenarios.StatusPassed, f.Status)
	})

	t.Run("empty filter", func(t *testing.T) {
		f, err := ParseFilter(`{"status":"","from":"","to":"","match":[],"limit":0}`)
		require.NoError(t, err)
		assert.Empty(t, f.Status)
		assert.True(t, f.From.IsZero())
		assert.True(t, f.To.IsZero())
		assert.Nil(t, f.Match)
	})

	t.Run("reversed window gets swapped", func(t *testing.T) {
		f, err := ParseFilter(`{"status":"","from":"2025-06-14T00:00:00Z","to":"2025-06-08T00:00:00Z","match":[],"limit":0}`)
		require.NoError(t, err)
		assert.True(t, f.From.Before(f.To))
	})

	t.Run("offset timestamps normalized to UTC", func(t *testing.T) {
		f, err := ParseFilter(`{"status":"","from":"2025-06-08T07:00:00+07:00","to":"","match":[],"limit":0}`)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC), f.From)
	})

	t.Run("blank match entries dropped", func(t *testing.T) {
		f, err := ParseFilter(`{"status":"","from":"","to":"","match":["  ","payment",""],"limit":0}`)
		require.NoError(t, err)
		assert.Equal(t, []string{"payment"}, f.Match)
	})

	t.Run("explicit limit kept", func(t *testing.T) {
		f, err := ParseFilter(`{"status":"","from":"","to":"","match":[],"limit":5}`)
		require.NoError(t, err)
		assert.Equal(t, 5, f.Limit)
	})

	t.Run("model declined", func(t *testing.T) {
		_, err := ParseFilter(`{"error":"unintelligible"}`)
		assert.ErrorIs(t, err, nlq.ErrUnintelligible)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		_, err := ParseFilter(`show me the failed runs`)
		assert.ErrorIs(t, err, nlq.ErrUnintelligible)
	})

	t.Run("unknown status", func(t *testing.T) {
		_, err := ParseFilter(`{"status":"Flaky","from":"","to":"","match":[],"limit":0}`)
		assert.ErrorIs(t, err, nlq.ErrUnintelligible)
	})

	t.Run("bad timestamp", func(t *testing.T) {
		_, err := ParseFilter(`{"status":"","from":"last week","to":"","match":[],"limit":0}`)
		assert.ErrorIs(t, err, nlq.ErrUnintelligible)
	})
}
