package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/leontonobunaga/amaprice/internal/browser"
	"github.com/leontonobunaga/amaprice/internal/identifier"
	"github.com/leontonobunaga/amaprice/internal/models"
	"github.com/leontonobunaga/amaprice/internal/ratelimit"
)

// Marketplace describes how to search one competing site and where the
// first result's fields live in its markup.
type Marketplace struct {
	Name             string
	SearchURLFormat  string // fmt format with one %s for the escaped keyword
	BaseURL          string // prefix for relative result links
	ItemSelector     string
	PriceSelector    string
	DeliverySelector string
	LinkSelector     string
}

// Marketplaces is the fixed set of competing sites consulted per
// product, in lookup order.
var Marketplaces = []Marketplace{
	{
		Name:             "rakuten",
		SearchURLFormat:  "https://search.rakuten.co.jp/search/mall/%s",
		BaseURL:          "https://search.rakuten.co.jp",
		ItemSelector:     ".searchresultitem",
		PriceSelector:    ".important",
		DeliverySelector: ".delivery",
		LinkSelector:     "a",
	},
	{
		Name:             "yahoo",
		SearchURLFormat:  "https://shopping.yahoo.co.jp/search?p=%s",
		BaseURL:          "https://shopping.yahoo.co.jp",
		ItemSelector:     ".Product",
		PriceSelector:    ".Product__price",
		DeliverySelector: ".Product__delivery",
		LinkSelector:     "a",
	},
	{
		Name:             "yodobashi",
		SearchURLFormat:  "https://www.yodobashi.com/category/search/?word=%s",
		BaseURL:          "https://www.yodobashi.com",
		ItemSelector:     ".pListItem",
		PriceSelector:    ".pPrice",
		DeliverySelector: ".pDelivery",
		LinkSelector:     "a",
	},
	{
		Name:             "yamada",
		SearchURLFormat:  "https://www.yamada-denkiweb.com/search/?word=%s",
		BaseURL:          "https://www.yamada-denkiweb.com",
		ItemSelector:     ".p-result-item",
		PriceSelector:    ".p-result-item__price",
		DeliverySelector: ".p-result-item__delivery",
		LinkSelector:     "a",
	},
	{
		Name:             "bic",
		SearchURLFormat:  "https://www.biccamera.com/bc/category/search/?q=%s",
		BaseURL:          "https://www.biccamera.com",
		ItemSelector:     ".bcs_item",
		PriceSelector:    ".bcs_price",
		DeliverySelector: ".bcs_delivery",
		LinkSelector:     "a",
	},
}

// SearchURL builds the search page URL for a keyword.
func (m Marketplace) SearchURL(keyword string) string {
	return fmt.Sprintf(m.SearchURLFormat, url.QueryEscape(keyword))
}

// ParseQuote reads the first search result out of rendered HTML. A page
// without results yields an unavailable quote.
func (m Marketplace) ParseQuote(html string) models.SourceQuote {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return models.UnavailableQuote(m.Name)
	}

	item := doc.Find(m.ItemSelector).First()
	if item.Length() == 0 {
		return models.UnavailableQuote(m.Name)
	}

	quote := models.SourceQuote{
		Source:   m.Name,
		Price:    normalizePrice(models.FieldOf(strings.TrimSpace(item.Find(m.PriceSelector).Text()))),
		Delivery: models.FieldOf(strings.TrimSpace(item.Find(m.DeliverySelector).Text())),
	}

	if href, ok := item.Find(m.LinkSelector).First().Attr("href"); ok && href != "" {
		if !strings.HasPrefix(href, "http") {
			href = m.BaseURL + href
		}
		quote.URL = models.FieldOf(href)
	}

	return quote
}

// normalizePrice keeps digits and thousands separators only.
func normalizePrice(f models.Field) models.Field {
	if !f.OK() {
		return f
	}
	var b strings.Builder
	for _, r := range f.Value() {
		if (r >= '0' && r <= '9') || r == ',' {
			b.WriteRune(r)
		}
	}
	return models.FieldOf(b.String())
}

// QuoteScraper searches one marketplace through the shared browser. It
// implements the pipeline's QuoteSource; every failure degrades to an
// unavailable quote so one bad site never fails a product.
type QuoteScraper struct {
	market  Marketplace
	browser *browser.Browser
	limiter ratelimit.RateLimiter
	logger  *slog.Logger
}

func NewQuoteScraper(market Marketplace, b *browser.Browser, limiter ratelimit.RateLimiter, logger *slog.Logger) *QuoteScraper {
	return &QuoteScraper{
		market:  market,
		browser: b,
		limiter: limiter,
		logger:  logger.With("component", "quote_scraper", "marketplace", market.Name),
	}
}

func (q *QuoteScraper) Name() string {
	return q.market.Name
}

func (q *QuoteScraper) Lookup(ctx context.Context, key identifier.SearchKey) models.SourceQuote {
	if err := q.limiter.Wait(ctx); err != nil {
		return models.UnavailableQuote(q.market.Name)
	}

	searchURL := q.market.SearchURL(key.Keyword)
	q.logger.Debug("searching", "type", key.Type, "keyword", key.Keyword)

	page, err := q.browser.NewPage()
	if err != nil {
		q.logger.Warn("failed to create page", "error", err)
		return models.UnavailableQuote(q.market.Name)
	}
	defer page.Close()

	if err := q.browser.NavigateWithRetry(page, searchURL, 2); err != nil {
		q.logger.Warn("search navigation failed", "error", err)
		return models.UnavailableQuote(q.market.Name)
	}

	html, err := page.Content()
	if err != nil {
		q.logger.Warn("failed to get page content", "error", err)
		return models.UnavailableQuote(q.market.Name)
	}

	return q.market.ParseQuote(html)
}

// NewQuoteScrapers builds one QuoteScraper per configured marketplace,
// each with its own rate limiter.
func NewQuoteScrapers(b *browser.Browser, newLimiter func() ratelimit.RateLimiter, logger *slog.Logger) []*QuoteScraper {
	scrapers := make([]*QuoteScraper, 0, len(Marketplaces))
	for _, m := range Marketplaces {
		scrapers = append(scrapers, NewQuoteScraper(m, b, newLimiter(), logger))
	}
	return scrapers
}
