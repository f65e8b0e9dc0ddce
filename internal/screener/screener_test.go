package screener

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestScreen(t *testing.T) {
	s := New([]string{"偽物", "replica", "コピー品"}, testLogger())

	t.Run("flags a matching term", func(t *testing.T) {
		result := s.Screen("高品質な偽物ブランド時計")
		assert.True(t, result.Flagged)
		assert.Equal(t, []string{"偽物"}, result.MatchedTerms)
	})

	t.Run("matching is case insensitive", func(t *testing.T) {
		result := s.Screen("Luxury REPLICA watch")
		assert.True(t, result.Flagged)
		assert.Equal(t, []string{"replica"}, result.MatchedTerms)
	})

	t.Run("union across texts without duplicates", func(t *testing.T) {
		result := s.Screen("偽物注意", "これはコピー品です 偽物")
		assert.True(t, result.Flagged)
		assert.ElementsMatch(t, []string{"偽物", "コピー品"}, result.MatchedTerms)
	})

	t.Run("clean texts are not flagged", func(t *testing.T) {
		result := s.Screen("電気ケトル 1.2L ホワイト", "調理家電")
		assert.False(t, result.Flagged)
		assert.Empty(t, result.MatchedTerms)
	})

	t.Run("substring containment matches inside longer words", func(t *testing.T) {
		result := s.Screen("ハードコピー品質の印刷")
		assert.True(t, result.Flagged)
	})
}

func TestScreenEmptyTermList(t *testing.T) {
	s := New(nil, testLogger())
	result := s.Screen("偽物", "replica")
	assert.False(t, result.Flagged)
	assert.Zero(t, s.TermCount())
}

func TestNewTrimsTerms(t *testing.T) {
	s := New([]string{" 偽物 ", "", "  ", "replica"}, testLogger())
	assert.Equal(t, 2, s.TermCount())

	result := s.Screen("偽物")
	assert.Equal(t, []string{"偽物"}, result.MatchedTerms)
}

func TestLoadFile(t *testing.T) {
	t.Run("skips blank lines and comments", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ng_words.txt")
		content := "# 出品禁止ワード\n偽物\n\nreplica\n  コピー品  \n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		s, err := LoadFile(testLogger(), path)
		require.NoError(t, err)
		assert.Equal(t, 3, s.TermCount())
	})

	t.Run("comma separated rows", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ng_words.csv")
		require.NoError(t, os.WriteFile(path, []byte("偽物,replica\nコピー品\n"), 0644))

		s, err := LoadFile(testLogger(), path)
		require.NoError(t, err)
		assert.Equal(t, 3, s.TermCount())
		assert.True(t, s.Screen("REPLICA watch").Flagged)
	})

	t.Run("first existing path wins", func(t *testing.T) {
		dir := t.TempDir()
		second := filepath.Join(dir, "fallback.txt")
		require.NoError(t, os.WriteFile(second, []byte("偽物\n"), 0644))

		s, err := LoadFile(testLogger(), filepath.Join(dir, "missing.txt"), second)
		require.NoError(t, err)
		assert.Equal(t, 1, s.TermCount())
	})

	t.Run("no existing path disables screening", func(t *testing.T) {
		s, err := LoadFile(testLogger(), filepath.Join(t.TempDir(), "missing.txt"))
		require.NoError(t, err)
		assert.Zero(t, s.TermCount())
		assert.False(t, s.Screen("偽物").Flagged)
	})
}
