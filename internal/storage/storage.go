// Package storage persists per-ASIN capture progress so an interrupted
// batch run can resume without refetching completed products.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/leontonobunaga/amaprice/internal/models"
)

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

type CaptureState struct {
	ASIN         string    `json:"asin"`
	CategoryName string    `json:"category_name"`
	Rank         int       `json:"rank"`
	Name         string    `json:"name"`
	URL          string    `json:"url"`
	Status       string    `json:"status"`
	AddedAt      time.Time `json:"added_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Error        string    `json:"error,omitempty"`
}

type Checkpoint struct {
	mu       sync.RWMutex
	states   map[string]*CaptureState
	filename string
}

func NewCheckpoint(filename string) (*Checkpoint, error) {
	cp := &Checkpoint{
		states:   make(map[string]*CaptureState),
		filename: filename,
	}

	if err := cp.Load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	return cp, nil
}

// Track registers ranking entries as pending. Entries already tracked
// keep their current status so completed work survives a restart.
func (cp *Checkpoint) Track(entries []models.RankingEntry) error {
	cp.mu.Lock()
	defer cp.mu.Unlock()

	for _, entry := range entries {
		if entry.ASIN == "" {
			continue
		}
		if _, exists := cp.states[entry.ASIN]; exists {
			continue
		}

		cp.states[entry.ASIN] = &CaptureState{
			ASIN:         entry.ASIN,
			CategoryName: entry.CategoryName,
			Rank:         entry.Rank,
			Name:         entry.Name,
			URL:          entry.DetailURL,
			Status:       StatusPending,
			AddedAt:      time.Now(),
			UpdatedAt:    time.Now(),
		}
	}

	return cp.save()
}

func (cp *Checkpoint) Get(asin string) (*CaptureState, bool) {
	cp.mu.RLock()
	defer cp.mu.RUnlock()

	state, exists := cp.states[asin]
	return state, exists
}

// IsCompleted reports whether an ASIN was already captured in a
// previous run.
func (cp *Checkpoint) IsCompleted(asin string) bool {
	cp.mu.RLock()
	defer cp.mu.RUnlock()

	state, exists := cp.states[asin]
	return exists && state.Status == StatusCompleted
}

func (cp *Checkpoint) MarkCompleted(asin string) error {
	return cp.updateStatus(asin, StatusCompleted, "")
}

func (cp *Checkpoint) MarkFailed(asin string, errMsg string) error {
	return cp.updateStatus(asin, StatusFailed, errMsg)
}

func (cp *Checkpoint) updateStatus(asin, status, errMsg string) error {
	cp.mu.Lock()
	defer cp.mu.Unlock()

	state, exists := cp.states[asin]
	if !exists {
		return fmt.Errorf("asin not tracked: %s", asin)
	}

	state.Status = status
	state.UpdatedAt = time.Now()
	state.Error = errMsg

	return cp.save()
}

func (cp *Checkpoint) Pending() []*CaptureState {
	cp.mu.RLock()
	defer cp.mu.RUnlock()

	var pending []*CaptureState
	for _, state := range cp.states {
		if state.Status == StatusPending {
			pending = append(pending, state)
		}
	}
	return pending
}

func (cp *Checkpoint) Stats() map[string]int {
	cp.mu.RLock()
	defer cp.mu.RUnlock()

	stats := make(map[string]int)
	for _, state := range cp.states {
		stats[state.Status]++
	}
	stats["total"] = len(cp.states)
	return stats
}

func (cp *Checkpoint) save() error {
	data, err := json.MarshalIndent(cp.states, "", "  ")
	if err != nil {
		return err
	}

	// Write to temp file first for atomicity
	tmpFile := cp.filename + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0644); err != nil {
		return err
	}

	return os.Rename(tmpFile, cp.filename)
}

func (cp *Checkpoint) Load() error {
	data, err := os.ReadFile(cp.filename)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, &cp.states)
}
