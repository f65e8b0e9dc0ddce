package jobs

import (
	"context"
	"time"

	"github.com/leontonobunaga/amaprice/internal/events"
)

// StartWorker polls for pending jobs until the context is cancelled.
func (m *Manager) StartWorker(ctx context.Context) {
	m.logger.Info("job worker started")

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("job worker stopping")
			return
		case <-ticker.C:
			m.processNextJob(ctx)
		}
	}
}

// processNextJob claims and runs the oldest pending job. SKIP LOCKED
// lets multiple workers poll the same table without stepping on each
// other.
func (m *Manager) processNextJob(ctx context.Context) {
	query := `
		SELECT id, category_name, url
		FROM crawl_jobs
		WHERE status = 'pending'
		ORDER BY created_at
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	`

	var jobID, categoryName, url string

	err := m.db.QueryRow(ctx, query).Scan(&jobID, &categoryName, &url)
	if err != nil {
		// No pending jobs
		return
	}

	m.logger.Info("processing job", "id", jobID, "category", categoryName)

	if err := m.updateJobStatus(ctx, jobID, "running", nil); err != nil {
		m.logger.Error("failed to update job status", "error", err)
		return
	}

	if err := m.processJob(ctx, jobID, categoryName, url); err != nil {
		m.logger.Error("job failed", "id", jobID, "error", err)
		m.updateJobStatus(ctx, jobID, "failed", err)
		return
	}

	if err := m.updateJobStatus(ctx, jobID, "completed", nil); err != nil {
		m.logger.Error("failed to mark job as completed", "error", err)
	}

	m.logger.Info("job completed", "id", jobID)
}

// processJob scrapes the ranking page and runs every entry through the
// pipeline. Individual product failures are reflected in the summary,
// not in the job status.
func (m *Manager) processJob(ctx context.Context, jobID, categoryName, url string) error {
	entries, err := m.ranking.ScrapeRanking(ctx, url, categoryName)
	if err != nil {
		return err
	}

	if err := m.updateJobProgress(ctx, jobID, len(entries), 0); err != nil {
		m.logger.Error("failed to update progress", "error", err)
	}

	records, summary := m.pipeline.RunCategory(ctx, categoryName, entries)

	created := 0
	for _, record := range records {
		if err := m.records.Insert(ctx, record); err != nil {
			m.logger.Error("failed to save record",
				"asin", record.ASIN, "error", err)
			continue
		}
		created++

		if record.Screen.Flagged {
			payload := &events.RecordFlaggedPayload{
				RecordID:     record.ID,
				ASIN:         record.ASIN,
				CategoryName: record.CategoryName,
				MatchedTerms: record.Screen.MatchedTerms,
			}
			if err := m.publisher.PublishRecordFlagged(ctx, payload); err != nil {
				m.logger.Error("failed to publish flagged event",
					"record_id", record.ID, "error", err)
			}
		}
	}

	if err := m.updateJobProgress(ctx, jobID, len(entries), created); err != nil {
		m.logger.Error("failed to update progress", "error", err)
	}

	crawled := &events.CategoryCrawledPayload{
		CategoryName: categoryName,
		Attempted:    summary.Attempted,
		Succeeded:    summary.Succeeded,
		LastError:    summary.LastError,
	}
	if err := m.publisher.PublishCategoryCrawled(ctx, crawled); err != nil {
		m.logger.Error("failed to publish crawled event",
			"category", categoryName, "error", err)
	}

	m.logger.Info("job processing complete",
		"job", jobID, "entries", len(entries), "records", created)
	return nil
}
