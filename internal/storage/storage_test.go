package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leontonobunaga/amaprice/internal/models"
)

func testEntries() []models.RankingEntry {
	return []models.RankingEntry{
		{ASIN: "B001TEST00", CategoryName: "家電", Rank: 1, Name: "電気ケトル", DetailURL: "https://www.amazon.co.jp/dp/B001TEST00"},
		{ASIN: "B002TEST00", CategoryName: "家電", Rank: 2, Name: "炊飯器", DetailURL: "https://www.amazon.co.jp/dp/B002TEST00"},
	}
}

func TestCheckpointTrack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")
	cp, err := NewCheckpoint(path)
	require.NoError(t, err)

	require.NoError(t, cp.Track(testEntries()))

	t.Run("entries start pending", func(t *testing.T) {
		state, ok := cp.Get("B001TEST00")
		require.True(t, ok)
		assert.Equal(t, StatusPending, state.Status)
		assert.Equal(t, "家電", state.CategoryName)
		assert.Equal(t, 1, state.Rank)
	})

	t.Run("entries without an ASIN are ignored", func(t *testing.T) {
		require.NoError(t, cp.Track([]models.RankingEntry{{Name: "広告枠"}}))
		assert.Equal(t, 2, cp.Stats()["total"])
	})

	t.Run("re-tracking keeps an existing status", func(t *testing.T) {
		require.NoError(t, cp.MarkCompleted("B001TEST00"))
		require.NoError(t, cp.Track(testEntries()))

		assert.True(t, cp.IsCompleted("B001TEST00"))
	})
}

func TestCheckpointStatusTransitions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")
	cp, err := NewCheckpoint(path)
	require.NoError(t, err)
	require.NoError(t, cp.Track(testEntries()))

	t.Run("mark completed", func(t *testing.T) {
		require.NoError(t, cp.MarkCompleted("B001TEST00"))
		assert.True(t, cp.IsCompleted("B001TEST00"))
		assert.False(t, cp.IsCompleted("B002TEST00"))
	})

	t.Run("mark failed records the error", func(t *testing.T) {
		require.NoError(t, cp.MarkFailed("B002TEST00", "bot interstitial"))

		state, ok := cp.Get("B002TEST00")
		require.True(t, ok)
		assert.Equal(t, StatusFailed, state.Status)
		assert.Equal(t, "bot interstitial", state.Error)
	})

	t.Run("untracked ASIN is an error", func(t *testing.T) {
		assert.Error(t, cp.MarkCompleted("B009TEST00"))
	})

	t.Run("stats count by status", func(t *testing.T) {
		stats := cp.Stats()
		assert.Equal(t, 2, stats["total"])
		assert.Equal(t, 1, stats[StatusCompleted])
		assert.Equal(t, 1, stats[StatusFailed])
	})

	t.Run("pending excludes finished work", func(t *testing.T) {
		assert.Empty(t, cp.Pending())
	})
}

func TestCheckpointReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")

	cp, err := NewCheckpoint(path)
	require.NoError(t, err)
	require.NoError(t, cp.Track(testEntries()))
	require.NoError(t, cp.MarkCompleted("B001TEST00"))

	reloaded, err := NewCheckpoint(path)
	require.NoError(t, err)

	assert.True(t, reloaded.IsCompleted("B001TEST00"))
	assert.False(t, reloaded.IsCompleted("B002TEST00"))

	pending := reloaded.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, "B002TEST00", pending[0].ASIN)
}

func TestCheckpointMissingFile(t *testing.T) {
	cp, err := NewCheckpoint(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Zero(t, cp.Stats()["total"])
}
