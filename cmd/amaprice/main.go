package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/leontonobunaga/amaprice/internal/browser"
	"github.com/leontonobunaga/amaprice/internal/config"
	"github.com/leontonobunaga/amaprice/internal/export"
	"github.com/leontonobunaga/amaprice/internal/models"
	"github.com/leontonobunaga/amaprice/internal/pipeline"
	"github.com/leontonobunaga/amaprice/internal/queue"
	"github.com/leontonobunaga/amaprice/internal/ratelimit"
	"github.com/leontonobunaga/amaprice/internal/screener"
	"github.com/leontonobunaga/amaprice/internal/scraper"
	"github.com/leontonobunaga/amaprice/internal/storage"
	"github.com/leontonobunaga/amaprice/pkg/logger"
)

func main() {
	var (
		categoriesFile = flag.String("categories", "", "categories file (CSV or YAML), overrides SCRAPER_CATEGORIES_FILE")
		ngWordFile     = flag.String("ngwords", "", "NG word list, overrides SCRAPER_NG_WORD_FILE")
		outDir         = flag.String("out", "", "export directory, overrides EXPORT_DIR")
		resume         = flag.Bool("resume", false, "skip products already captured in the checkpoint")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}
	if *categoriesFile != "" {
		cfg.Scraper.CategoriesFile = *categoriesFile
	}
	if *ngWordFile != "" {
		cfg.Scraper.NGWordFile = *ngWordFile
	}
	if *outDir != "" {
		cfg.Export.Dir = *outDir
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "invalid config:", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	categories, err := config.LoadCategories(cfg.Scraper.CategoriesFile)
	if err != nil {
		log.Error("failed to load categories", "error", err)
		os.Exit(1)
	}
	log.Info("loaded categories", "count", len(categories))

	checkpoint, err := storage.NewCheckpoint(cfg.Scraper.CheckpointFile)
	if err != nil {
		log.Error("failed to open checkpoint", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Info("interrupt received, finishing current work")
		cancel()
	}()

	b, err := browser.New(&browser.Options{
		Headless:       cfg.Browser.Headless,
		Timeout:        cfg.Browser.Timeout,
		UserAgent:      cfg.Scraper.UserAgents[0],
		ViewportWidth:  cfg.Browser.ViewportWidth,
		ViewportHeight: cfg.Browser.ViewportHeight,
		AcceptLanguage: cfg.Browser.AcceptLanguage,
		TimezoneID:     cfg.Browser.TimezoneID,
		Locale:         cfg.Browser.Locale,
	})
	if err != nil {
		log.Error("failed to initialize browser", "error", err)
		os.Exit(1)
	}
	defer b.Close()

	amazon := scraper.NewAmazonScraper(b,
		ratelimit.NewAdaptiveRateLimiter(cfg.Scraper.RateLimitMin, cfg.Scraper.RateLimitMax), log)

	quoteScrapers := scraper.NewQuoteScrapers(b, func() ratelimit.RateLimiter {
		return ratelimit.NewSimpleRateLimiter(cfg.Scraper.RateLimitMin, cfg.Scraper.RateLimitMax)
	}, log)
	quotes := make([]pipeline.QuoteSource, len(quoteScrapers))
	for i, qs := range quoteScrapers {
		quotes[i] = qs
	}

	screen, err := screener.LoadFile(log, cfg.Scraper.NGWordFile)
	if err != nil {
		log.Error("failed to load NG-word list", "error", err)
		os.Exit(1)
	}

	pl := pipeline.New(amazon, quotes, screen, log,
		pipeline.WithWorkers(cfg.Scraper.ConcurrentLimit))

	// One task per ranking page URL, in file order.
	tasks := queue.NewInMemoryQueue()
	for i, category := range categories {
		for _, url := range category.URLs {
			tasks.Push(&queue.Task{
				ID:           uuid.New().String(),
				CategoryName: category.Name,
				URL:          url,
				Priority:     len(categories) - i,
				CreatedAt:    time.Now(),
			})
		}
	}
	tasks.Close()

	var allRecords []*models.ProductRecord
	var summaries []pipeline.CategorySummary

	for {
		task, err := tasks.Pop(ctx)
		if err != nil {
			if !errors.Is(err, queue.ErrQueueClosed) && !errors.Is(err, context.Canceled) {
				log.Error("failed to pop task", "error", err)
			}
			break
		}

		records, summary := runTask(ctx, log, amazon, pl, checkpoint, task, *resume)
		allRecords = append(allRecords, records...)
		summaries = append(summaries, summary)

		if ctx.Err() != nil {
			break
		}
	}

	if len(allRecords) > 0 {
		if err := os.MkdirAll(cfg.Export.Dir, 0755); err != nil {
			log.Error("failed to create export directory", "error", err)
			os.Exit(1)
		}
		path := filepath.Join(cfg.Export.Dir,
			fmt.Sprintf("records_%s.csv", time.Now().Format("20060102_150405")))
		if err := export.WriteFile(path, allRecords); err != nil {
			log.Error("failed to export records", "error", err)
			os.Exit(1)
		}
		log.Info("records exported", "path", path, "count", len(allRecords))
	}

	for _, s := range summaries {
		log.Info("category summary",
			"category", s.Name,
			"attempted", s.Attempted,
			"succeeded", s.Succeeded,
			"last_error", s.LastError)
	}
}

func runTask(ctx context.Context, log *slog.Logger, amazon *scraper.AmazonScraper, pl *pipeline.Pipeline, checkpoint *storage.Checkpoint, task *queue.Task, resume bool) ([]*models.ProductRecord, pipeline.CategorySummary) {
	log.Info("crawling category", "category", task.CategoryName, "url", task.URL)

	entries, err := amazon.ScrapeRanking(ctx, task.URL, task.CategoryName)
	if err != nil {
		log.Error("failed to scrape ranking",
			"category", task.CategoryName, "error", err)
		return nil, pipeline.CategorySummary{
			Name: task.CategoryName, LastError: err.Error(),
		}
	}

	if err := checkpoint.Track(entries); err != nil {
		log.Error("failed to update checkpoint", "error", err)
	}

	if resume {
		remaining := entries[:0:0]
		for _, entry := range entries {
			if !checkpoint.IsCompleted(entry.ASIN) {
				remaining = append(remaining, entry)
			}
		}
		entries = remaining
	}

	records, summary := pl.RunCategory(ctx, task.CategoryName, entries)

	done := make(map[string]bool, len(records))
	for _, record := range records {
		done[record.ASIN] = true
		if err := checkpoint.MarkCompleted(record.ASIN); err != nil {
			log.Error("failed to update checkpoint", "error", err)
		}
	}
	for _, entry := range entries {
		if !done[entry.ASIN] {
			checkpoint.MarkFailed(entry.ASIN, summary.LastError)
		}
	}

	return records, summary
}
