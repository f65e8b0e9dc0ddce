// Package api exposes crawl jobs and captured records over HTTP.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/leontonobunaga/amaprice/internal/database"
	"github.com/leontonobunaga/amaprice/internal/jobs"
)

const defaultListLimit = 100

type Handlers struct {
	jobs    *jobs.Manager
	records *database.RecordRepository
	logger  *slog.Logger
}

func NewHandlers(jobsManager *jobs.Manager, records *database.RecordRepository, logger *slog.Logger) *Handlers {
	return &Handlers{
		jobs:    jobsManager,
		records: records,
		logger:  logger,
	}
}

// Routes mounts every endpoint on the given router.
func (h *Handlers) Routes(r chi.Router) {
	r.Post("/jobs", h.CreateJob)
	r.Get("/jobs", h.ListJobs)
	r.Get("/jobs/{jobID}", h.GetJob)
	r.Get("/records", h.ListRecords)
	r.Get("/records/{recordID}", h.GetRecord)
	r.Get("/stats", h.GetStats)
}

// CreateJobRequest names the category ranking page to crawl.
type CreateJobRequest struct {
	CategoryName string `json:"category_name"`
	URL          string `json:"url"`
}

type CreateJobResponse struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// CreateJob handles new crawl job creation
func (h *Handlers) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.CategoryName == "" {
		h.respondError(w, http.StatusBadRequest, "category_name is required")
		return
	}
	if req.URL == "" {
		h.respondError(w, http.StatusBadRequest, "url is required")
		return
	}

	job, err := h.jobs.CreateJob(r.Context(), req.CategoryName, req.URL)
	if err != nil {
		h.logger.Error("failed to create job", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to create job")
		return
	}

	h.respondJSON(w, http.StatusCreated, CreateJobResponse{
		JobID:   job.ID,
		Status:  job.Status,
		Message: "Job created successfully",
	})
}

// GetJob handles job status retrieval
func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if jobID == "" {
		h.respondError(w, http.StatusBadRequest, "job ID is required")
		return
	}

	job, err := h.jobs.GetJob(r.Context(), jobID)
	if err != nil {
		h.respondError(w, http.StatusNotFound, "job not found")
		return
	}

	h.respondJSON(w, http.StatusOK, job)
}

// ListJobs handles listing recent jobs
func (h *Handlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobList, err := h.jobs.ListJobs(r.Context())
	if err != nil {
		h.logger.Error("failed to list jobs", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to list jobs")
		return
	}

	h.respondJSON(w, http.StatusOK, jobList)
}

// ListRecords returns captured records filtered by category or capture
// time.
func (h *Handlers) ListRecords(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	if category := r.URL.Query().Get("category"); category != "" {
		records, err := h.records.ListByCategory(r.Context(), category, limit)
		if err != nil {
			h.logger.Error("failed to list records", "error", err)
			h.respondError(w, http.StatusInternalServerError, "failed to list records")
			return
		}
		h.respondJSON(w, http.StatusOK, records)
		return
	}

	since := time.Now().Add(-24 * time.Hour)
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "since must be RFC3339")
			return
		}
		since = parsed
	}

	records, err := h.records.ListSince(r.Context(), since, limit)
	if err != nil {
		h.logger.Error("failed to list records", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to list records")
		return
	}

	h.respondJSON(w, http.StatusOK, records)
}

// GetRecord returns one captured record by ID.
func (h *Handlers) GetRecord(w http.ResponseWriter, r *http.Request) {
	recordID := chi.URLParam(r, "recordID")
	if recordID == "" {
		h.respondError(w, http.StatusBadRequest, "record ID is required")
		return
	}

	record, err := h.records.Get(r.Context(), recordID)
	if err != nil {
		h.logger.Error("failed to get record", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to get record")
		return
	}
	if record == nil {
		h.respondError(w, http.StatusNotFound, "record not found")
		return
	}

	h.respondJSON(w, http.StatusOK, record)
}

// GetStats handles statistics retrieval
func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.jobs.GetStats(r.Context())
	if err != nil {
		h.logger.Error("failed to get stats", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to get stats")
		return
	}

	h.respondJSON(w, http.StatusOK, stats)
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
