// Package jobs runs category crawls requested over the API. A job names
// one category ranking page; the worker scrapes it, runs every entry
// through the pipeline and stores the resulting records.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/leontonobunaga/amaprice/internal/database"
	"github.com/leontonobunaga/amaprice/internal/events"
	"github.com/leontonobunaga/amaprice/internal/models"
	"github.com/leontonobunaga/amaprice/internal/pipeline"
)

// RankingSource scrapes one best-sellers page into ranking entries.
type RankingSource interface {
	ScrapeRanking(ctx context.Context, url, categoryName string) ([]models.RankingEntry, error)
}

type Manager struct {
	db        *database.DB
	records   *database.RecordRepository
	ranking   RankingSource
	pipeline  *pipeline.Pipeline
	publisher *events.Publisher
	logger    *slog.Logger
}

func NewManager(db *database.DB, ranking RankingSource, pl *pipeline.Pipeline, publisher *events.Publisher, logger *slog.Logger) *Manager {
	return &Manager{
		db:        db,
		records:   database.NewRecordRepository(db),
		ranking:   ranking,
		pipeline:  pl,
		publisher: publisher,
		logger:    logger.With("component", "job_manager"),
	}
}

// Job is one requested category crawl.
type Job struct {
	ID             string     `json:"id"`
	CategoryName   string     `json:"category_name"`
	URL            string     `json:"url"`
	Status         string     `json:"status"`
	EntriesFound   int        `json:"entries_found"`
	RecordsCreated int        `json:"records_created"`
	CreatedAt      time.Time  `json:"created_at"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	Error          string     `json:"error,omitempty"`
}

// Stats summarizes crawl activity for the stats endpoint.
type Stats struct {
	TotalJobs     int     `json:"total_jobs"`
	PendingJobs   int     `json:"pending_jobs"`
	RunningJobs   int     `json:"running_jobs"`
	CompletedJobs int     `json:"completed_jobs"`
	FailedJobs    int     `json:"failed_jobs"`
	TotalRecords  int     `json:"total_records"`
	SuccessRate   float64 `json:"success_rate"`
}

// CreateJob enqueues a crawl for one category ranking page.
func (m *Manager) CreateJob(ctx context.Context, categoryName, url string) (*Job, error) {
	job := &Job{
		ID:           uuid.New().String(),
		CategoryName: categoryName,
		URL:          url,
		Status:       "pending",
		CreatedAt:    time.Now(),
	}

	query := `
		INSERT INTO crawl_jobs
		(id, category_name, url, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := m.db.Exec(ctx, query,
		job.ID, job.CategoryName, job.URL, job.Status, job.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	m.logger.Info("job created", "id", job.ID, "category", categoryName)
	return job, nil
}

// GetJob retrieves a job by ID
func (m *Manager) GetJob(ctx context.Context, jobID string) (*Job, error) {
	query := `
		SELECT id, category_name, url, status,
		       entries_found, records_created,
		       created_at, started_at, completed_at, error
		FROM crawl_jobs
		WHERE id = $1
	`

	job := &Job{}
	err := m.db.QueryRow(ctx, query, jobID).Scan(
		&job.ID, &job.CategoryName, &job.URL, &job.Status,
		&job.EntriesFound, &job.RecordsCreated,
		&job.CreatedAt, &job.StartedAt, &job.CompletedAt, &job.Error,
	)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("job not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return job, nil
}

// ListJobs lists recent jobs, newest first.
func (m *Manager) ListJobs(ctx context.Context) ([]*Job, error) {
	query := `
		SELECT id, category_name, url, status,
		       entries_found, records_created,
		       created_at, started_at, completed_at
		FROM crawl_jobs
		ORDER BY created_at DESC
		LIMIT 100
	`

	rows, err := m.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job := &Job{}
		err := rows.Scan(
			&job.ID, &job.CategoryName, &job.URL, &job.Status,
			&job.EntriesFound, &job.RecordsCreated,
			&job.CreatedAt, &job.StartedAt, &job.CompletedAt,
		)
		if err != nil {
			continue
		}
		jobs = append(jobs, job)
	}

	return jobs, nil
}

// GetStats retrieves crawl statistics
func (m *Manager) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	query := `
		SELECT
			COUNT(*) as total_jobs,
			COUNT(CASE WHEN status = 'pending' THEN 1 END) as pending_jobs,
			COUNT(CASE WHEN status = 'running' THEN 1 END) as running_jobs,
			COUNT(CASE WHEN status = 'completed' THEN 1 END) as completed_jobs,
			COUNT(CASE WHEN status = 'failed' THEN 1 END) as failed_jobs
		FROM crawl_jobs
	`

	err := m.db.QueryRow(ctx, query).Scan(
		&stats.TotalJobs, &stats.PendingJobs, &stats.RunningJobs,
		&stats.CompletedJobs, &stats.FailedJobs,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}

	if stats.TotalJobs > 0 {
		stats.SuccessRate = float64(stats.CompletedJobs) / float64(stats.TotalJobs) * 100
	}

	m.db.QueryRow(ctx, `SELECT COUNT(*) FROM product_record`).Scan(&stats.TotalRecords)

	return stats, nil
}

// updateJobStatus updates the status of a job
func (m *Manager) updateJobStatus(ctx context.Context, jobID, status string, jobErr error) error {
	var query string
	var args []interface{}

	now := time.Now()
	switch {
	case status == "running":
		query = `UPDATE crawl_jobs SET status = $1, started_at = $2 WHERE id = $3`
		args = []interface{}{status, now, jobID}
	case status == "completed":
		query = `UPDATE crawl_jobs SET status = $1, completed_at = $2 WHERE id = $3`
		args = []interface{}{status, now, jobID}
	case status == "failed" && jobErr != nil:
		query = `UPDATE crawl_jobs SET status = $1, completed_at = $2, error = $3 WHERE id = $4`
		args = []interface{}{status, now, jobErr.Error(), jobID}
	default:
		query = `UPDATE crawl_jobs SET status = $1 WHERE id = $2`
		args = []interface{}{status, jobID}
	}

	_, execErr := m.db.Exec(ctx, query, args...)
	return execErr
}

// updateJobProgress updates job progress counters
func (m *Manager) updateJobProgress(ctx context.Context, jobID string, entriesFound, recordsCreated int) error {
	query := `
		UPDATE crawl_jobs
		SET entries_found = $1, records_created = $2
		WHERE id = $3
	`
	_, err := m.db.Exec(ctx, query, entriesFound, recordsCreated, jobID)
	return err
}
