package scraper

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/leontonobunaga/amaprice/internal/models"
)

// maxRankingEntries caps how many positions of one ranking page are
// captured.
const maxRankingEntries = 20

// rankingItemSelector matches the product containers best-seller pages
// render, across the grid and immersion templates.
const rankingItemSelector = ".zg-grid-general-faceout, .zg-item-immersion, .zg-item"

// ScrapeRanking fetches one best-sellers page and returns its entries
// in rank order.
func (s *AmazonScraper) ScrapeRanking(ctx context.Context, url, categoryName string) ([]models.RankingEntry, error) {
	html, err := s.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ranking page: %w", err)
	}

	entries, err := ParseRanking(html, categoryName)
	if err != nil {
		return nil, err
	}

	s.logger.Info("scraped ranking page",
		"category", categoryName, "url", url, "entries", len(entries))
	return entries, nil
}

// ParseRanking extracts ranking entries from rendered best-seller page
// HTML. Items without a resolvable ASIN are skipped; rank positions
// follow document order.
func ParseRanking(html, categoryName string) ([]models.RankingEntry, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var entries []models.RankingEntry
	doc.Find(rankingItemSelector).EachWithBreak(func(i int, item *goquery.Selection) bool {
		if i >= maxRankingEntries {
			return false
		}
		rank := i + 1

		link, _ := item.Find(`a[href*="/dp/"]`).First().Attr("href")
		asin := ""

		// Grid templates carry the ASIN as a data attribute even when
		// the anchor is missing.
		if link == "" {
			if dataASIN, ok := item.Attr("data-asin"); ok && dataASIN != "" {
				asin = dataASIN
				link = "/dp/" + dataASIN
			}
		}

		if link != "" && asin == "" {
			if extracted, err := ExtractASIN(link); err == nil {
				asin = extracted
			}
		}

		if asin == "" || link == "" {
			return true
		}

		name := rankingItemName(item, rank)

		detailURL := link
		if !strings.HasPrefix(detailURL, "http") {
			detailURL = amazonJPBaseURL + detailURL
		}

		entries = append(entries, models.RankingEntry{
			CategoryName: categoryName,
			Rank:         rank,
			ASIN:         asin,
			Name:         name,
			DetailURL:    detailURL,
		})
		return true
	})

	return entries, nil
}

// rankingItemName finds a short display name for the entry; the real
// title comes from the detail page later.
func rankingItemName(item *goquery.Selection, rank int) string {
	if alt, ok := item.Find("img").First().Attr("alt"); ok {
		if alt = strings.TrimSpace(alt); alt != "" {
			return truncateRunes(alt, 50)
		}
	}
	if text := strings.TrimSpace(item.Find("span").First().Text()); text != "" {
		return truncateRunes(text, 50)
	}
	return fmt.Sprintf("商品%d", rank)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
