package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadCategoriesCSV(t *testing.T) {
	t.Run("rows with multiple URLs", func(t *testing.T) {
		path := writeTempFile(t, "categories.csv",
			"category,url\n"+
				"家電,https://www.amazon.co.jp/gp/bestsellers/electronics,https://www.amazon.co.jp/gp/bestsellers/electronics/2\n"+
				"本,https://www.amazon.co.jp/gp/bestsellers/books\n")

		categories, err := LoadCategories(path)
		require.NoError(t, err)
		require.Len(t, categories, 2)

		assert.Equal(t, "家電", categories[0].Name)
		assert.Len(t, categories[0].URLs, 2)
		assert.Equal(t, "本", categories[1].Name)
		assert.Equal(t, []string{"https://www.amazon.co.jp/gp/bestsellers/books"}, categories[1].URLs)
	})

	t.Run("header row and malformed rows are skipped", func(t *testing.T) {
		path := writeTempFile(t, "categories.csv",
			"category,url\n"+
				",https://www.amazon.co.jp/gp/bestsellers/electronics\n"+
				"キッチン,not-a-url\n"+
				"家電,https://www.amazon.co.jp/gp/bestsellers/electronics\n")

		categories, err := LoadCategories(path)
		require.NoError(t, err)
		require.Len(t, categories, 1)
		assert.Equal(t, "家電", categories[0].Name)
	})

	t.Run("no usable rows is an error", func(t *testing.T) {
		path := writeTempFile(t, "categories.csv", "category,url\n")

		_, err := LoadCategories(path)
		assert.ErrorContains(t, err, "no categories found")
	})
}

func TestLoadCategoriesYAML(t *testing.T) {
	t.Run("document with a categories list", func(t *testing.T) {
		path := writeTempFile(t, "categories.yaml", `
categories:
  - name: 家電
    urls:
      - https://www.amazon.co.jp/gp/bestsellers/electronics
      - https://www.amazon.co.jp/gp/bestsellers/electronics/2
  - name: 本
    urls:
      - https://www.amazon.co.jp/gp/bestsellers/books
`)

		categories, err := LoadCategories(path)
		require.NoError(t, err)
		require.Len(t, categories, 2)
		assert.Equal(t, "家電", categories[0].Name)
		assert.Len(t, categories[0].URLs, 2)
	})

	t.Run("entries without name or urls are dropped", func(t *testing.T) {
		path := writeTempFile(t, "categories.yml", `
categories:
  - name: ""
    urls: [https://www.amazon.co.jp/gp/bestsellers/electronics]
  - name: 本
    urls: []
  - name: 家電
    urls: [https://www.amazon.co.jp/gp/bestsellers/electronics]
`)

		categories, err := LoadCategories(path)
		require.NoError(t, err)
		require.Len(t, categories, 1)
		assert.Equal(t, "家電", categories[0].Name)
	})

	t.Run("invalid YAML is an error", func(t *testing.T) {
		path := writeTempFile(t, "categories.yaml", "categories: [unterminated")

		_, err := LoadCategories(path)
		assert.Error(t, err)
	})
}

func TestLoadCategoriesMissingFile(t *testing.T) {
	_, err := LoadCategories(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
