// Package pipeline orchestrates the per-product reconciliation run:
// extract attributes, resolve the lookup key, gather marketplace
// quotes, classify shipping, compare sources, assemble the record.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/leontonobunaga/amaprice/internal/compare"
	"github.com/leontonobunaga/amaprice/internal/extract"
	"github.com/leontonobunaga/amaprice/internal/identifier"
	"github.com/leontonobunaga/amaprice/internal/models"
	"github.com/leontonobunaga/amaprice/internal/shipping"
)

// HomeSource is the marketplace the ranking pages come from.
const HomeSource = "Amazon"

// DocumentSource supplies rendered page content for a URL.
type DocumentSource interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// QuoteSource looks a product up on one other marketplace. Lookups are
// fallible and independent; failures surface as unavailable quotes,
// never as errors.
type QuoteSource interface {
	Name() string
	Lookup(ctx context.Context, key identifier.SearchKey) models.SourceQuote
}

// Screener yields the content verdict attached verbatim to the record.
type Screener interface {
	Screen(texts ...string) models.ScreenResult
}

type Pipeline struct {
	source    DocumentSource
	quotes    []QuoteSource
	screener  Screener
	extractor *extract.Extractor
	logger    *slog.Logger
	workers   int
	now       func() time.Time
}

type Option func(*Pipeline)

// WithWorkers bounds the per-category worker pool.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

func withClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

func New(source DocumentSource, quotes []QuoteSource, screener Screener, logger *slog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		source:    source,
		quotes:    quotes,
		screener:  screener,
		extractor: extract.NewExtractor(),
		logger:    logger.With("component", "pipeline"),
		workers:   1,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process runs one product end to end. Extraction misses and
// unavailable quotes degrade the record; only a document fetch failure
// aborts this product. State never leaks between invocations.
func (p *Pipeline) Process(ctx context.Context, entry models.RankingEntry) (*models.ProductRecord, error) {
	html, err := p.source.Fetch(ctx, entry.DetailURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch document: %w", err)
	}

	bag, err := p.extractor.Extract(html)
	if err != nil {
		return nil, fmt.Errorf("failed to extract attributes: %w", err)
	}

	key := identifier.Resolve(bag.Identifiers, bag.Title)
	p.logger.Debug("resolved search key",
		"asin", entry.ASIN, "type", key.Type, "keyword", key.Keyword)

	quotes := p.lookupQuotes(ctx, key)

	home := models.SourceQuote{
		Source:   HomeSource,
		Price:    bag.CurrentPrice,
		Delivery: bag.DeliveryDays,
		URL:      models.FieldOf(entry.DetailURL),
	}

	record := &models.ProductRecord{
		ID:           uuid.New().String(),
		CapturedAt:   p.now(),
		CategoryName: entry.CategoryName,
		Rank:         entry.Rank,
		ASIN:         entry.ASIN,
		Attributes:   bag,
		Shipping:     shipping.Classify(bag.WeightRaw, bag.DimensionsRaw),
		Quotes:       quotes,
		Comparison:   compare.Compare(home, quotes),
		Screen: p.screener.Screen(
			bag.Title.Value(), bag.Description.Value(), bag.Breadcrumb.Value()),
	}

	return record, nil
}

// lookupQuotes consults every configured marketplace in order. An empty
// search key skips the lookups entirely; each source is otherwise
// consulted regardless of the others' outcomes.
func (p *Pipeline) lookupQuotes(ctx context.Context, key identifier.SearchKey) []models.SourceQuote {
	quotes := make([]models.SourceQuote, 0, len(p.quotes))
	for _, src := range p.quotes {
		if key.Empty() {
			quotes = append(quotes, models.UnavailableQuote(src.Name()))
			continue
		}
		quotes = append(quotes, src.Lookup(ctx, key))
	}
	return quotes
}

// CategorySummary reports one category's batch outcome for operator
// visibility.
type CategorySummary struct {
	Name      string `json:"name"`
	Attempted int    `json:"attempted"`
	Succeeded int    `json:"succeeded"`
	LastError string `json:"last_error,omitempty"`
}

// RunCategory processes the entries behind a bounded worker pool. A
// failure is local to its product: the record slot stays empty, the
// summary counts it, and the batch continues. Returned records keep
// ranking order.
func (p *Pipeline) RunCategory(ctx context.Context, name string, entries []models.RankingEntry) ([]*models.ProductRecord, CategorySummary) {
	summary := CategorySummary{Name: name, Attempted: len(entries)}
	results := make([]*models.ProductRecord, len(entries))

	type job struct {
		index int
		entry models.RankingEntry
	}

	jobs := make(chan job)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				record, err := p.Process(ctx, j.entry)
				if err != nil {
					p.logger.Error("product failed",
						"category", name, "asin", j.entry.ASIN, "error", err)
					mu.Lock()
					summary.LastError = err.Error()
					mu.Unlock()
					continue
				}
				mu.Lock()
				results[j.index] = record
				summary.Succeeded++
				mu.Unlock()
			}
		}()
	}

	for i, entry := range entries {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return compact(results), summary
		case jobs <- job{index: i, entry: entry}:
		}
	}
	close(jobs)
	wg.Wait()

	return compact(results), summary
}

func compact(records []*models.ProductRecord) []*models.ProductRecord {
	out := make([]*models.ProductRecord, 0, len(records))
	for _, r := range records {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}
