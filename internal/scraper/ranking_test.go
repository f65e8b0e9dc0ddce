package scraper

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRanking(t *testing.T) {
	t.Run("entries from anchor links", func(t *testing.T) {
		html := `<html><body>
			<div class="zg-grid-general-faceout">
				<a href="/dp/B001TEST00?ref=zg_bs"><img alt="電気ケトル 1.2L"></a>
			</div>
			<div class="zg-grid-general-faceout">
				<a href="https://www.amazon.co.jp/kettle/dp/B002TEST00"><img alt="炊飯器 5.5合"></a>
			</div>
		</body></html>`

		entries, err := ParseRanking(html, "家電")
		require.NoError(t, err)
		require.Len(t, entries, 2)

		assert.Equal(t, "B001TEST00", entries[0].ASIN)
		assert.Equal(t, 1, entries[0].Rank)
		assert.Equal(t, "家電", entries[0].CategoryName)
		assert.Equal(t, "電気ケトル 1.2L", entries[0].Name)
		assert.Equal(t, "https://www.amazon.co.jp/dp/B001TEST00?ref=zg_bs", entries[0].DetailURL)

		assert.Equal(t, "B002TEST00", entries[1].ASIN)
		assert.Equal(t, 2, entries[1].Rank)
		assert.Equal(t, "https://www.amazon.co.jp/kettle/dp/B002TEST00", entries[1].DetailURL)
	})

	t.Run("data-asin fallback when the anchor is missing", func(t *testing.T) {
		html := `<html><body>
			<div class="zg-item" data-asin="B003TEST00"><span>ミキサー</span></div>
		</body></html>`

		entries, err := ParseRanking(html, "家電")
		require.NoError(t, err)
		require.Len(t, entries, 1)

		assert.Equal(t, "B003TEST00", entries[0].ASIN)
		assert.Equal(t, "https://www.amazon.co.jp/dp/B003TEST00", entries[0].DetailURL)
		assert.Equal(t, "ミキサー", entries[0].Name)
	})

	t.Run("items without a resolvable ASIN are skipped", func(t *testing.T) {
		html := `<html><body>
			<div class="zg-item"><span>広告枠</span></div>
			<div class="zg-item"><a href="/dp/B004TEST00"><img alt="トースター"></a></div>
		</body></html>`

		entries, err := ParseRanking(html, "家電")
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "B004TEST00", entries[0].ASIN)

		// Rank follows document order, skipped slots included.
		assert.Equal(t, 2, entries[0].Rank)
	})

	t.Run("capped at twenty entries", func(t *testing.T) {
		var b strings.Builder
		b.WriteString("<html><body>")
		for i := 0; i < 30; i++ {
			fmt.Fprintf(&b, `<div class="zg-item"><a href="/dp/B%09dX"><img alt="商品"></a></div>`, i)
		}
		b.WriteString("</body></html>")

		entries, err := ParseRanking(b.String(), "家電")
		require.NoError(t, err)
		assert.Len(t, entries, 20)
		assert.Equal(t, 20, entries[19].Rank)
	})

	t.Run("placeholder name when no alt or span text", func(t *testing.T) {
		html := `<html><body>
			<div class="zg-item"><a href="/dp/B005TEST00"></a></div>
		</body></html>`

		entries, err := ParseRanking(html, "家電")
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "商品1", entries[0].Name)
	})

	t.Run("empty page yields no entries", func(t *testing.T) {
		entries, err := ParseRanking(`<html><body></body></html>`, "家電")
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestExtractASIN(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{
			name: "full product URL",
			url:  "https://www.amazon.co.jp/dp/B001TEST00",
			want: "B001TEST00",
		},
		{
			name: "URL with product slug",
			url:  "https://www.amazon.co.jp/電気ケトル/dp/B001TEST00/ref=sr_1_1",
			want: "B001TEST00",
		},
		{
			name: "gp product path",
			url:  "https://www.amazon.co.jp/gp/product/B001TEST00",
			want: "B001TEST00",
		},
		{
			name: "relative link",
			url:  "/dp/B001TEST00?ref=zg_bs_electronics",
			want: "B001TEST00",
		},
		{
			name:    "no ASIN in URL",
			url:     "https://www.amazon.co.jp/gp/bestsellers/electronics",
			wantErr: true,
		},
		{
			name:    "empty URL",
			url:     "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			asin, err := ExtractASIN(tt.url)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidURL)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, asin)
		})
	}
}
