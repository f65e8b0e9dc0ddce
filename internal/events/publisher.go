// Package events publishes crawl outcomes through the transactional
// outbox so downstream consumers see them on the Redis stream.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/leontonobunaga/amaprice/internal/database"
)

type EventType string

const (
	// EventTypeCategoryCrawled is published after a category batch
	// finishes, successful or not.
	EventTypeCategoryCrawled EventType = "CATEGORY_CRAWLED"

	// EventTypeRecordFlagged is published when the content screener
	// flags a captured record.
	EventTypeRecordFlagged EventType = "RECORD_FLAGGED"
)

// CategoryCrawledPayload summarizes one category batch.
type CategoryCrawledPayload struct {
	EventID      string    `json:"event_id"`
	EventType    string    `json:"event_type"`
	Timestamp    time.Time `json:"timestamp"`
	CategoryName string    `json:"category_name"`
	Attempted    int       `json:"attempted"`
	Succeeded    int       `json:"succeeded"`
	LastError    string    `json:"last_error,omitempty"`
}

// RecordFlaggedPayload carries the screener verdict for one record.
type RecordFlaggedPayload struct {
	EventID      string    `json:"event_id"`
	EventType    string    `json:"event_type"`
	Timestamp    time.Time `json:"timestamp"`
	RecordID     string    `json:"record_id"`
	ASIN         string    `json:"asin"`
	CategoryName string    `json:"category_name"`
	MatchedTerms []string  `json:"matched_terms"`
}

// Publisher writes events into the outbox; the relay delivers them.
type Publisher struct {
	db     *database.DB
	outbox *database.OutboxRepository
	logger *slog.Logger
}

func NewPublisher(db *database.DB, logger *slog.Logger) *Publisher {
	return &Publisher{
		db:     db,
		outbox: database.NewOutboxRepository(db),
		logger: logger.With("component", "event_publisher"),
	}
}

// PublishCategoryCrawled enqueues a CATEGORY_CRAWLED event.
func (p *Publisher) PublishCategoryCrawled(ctx context.Context, payload *CategoryCrawledPayload) error {
	stampPayload(&payload.EventID, &payload.Timestamp)
	payload.EventType = string(EventTypeCategoryCrawled)

	return p.publish(ctx, &database.OutboxEvent{
		AggregateType: "category",
		AggregateID:   payload.CategoryName,
		EventType:     payload.EventType,
	}, payload)
}

// PublishRecordFlagged enqueues a RECORD_FLAGGED event.
func (p *Publisher) PublishRecordFlagged(ctx context.Context, payload *RecordFlaggedPayload) error {
	stampPayload(&payload.EventID, &payload.Timestamp)
	payload.EventType = string(EventTypeRecordFlagged)

	return p.publish(ctx, &database.OutboxEvent{
		AggregateType: "product_record",
		AggregateID:   payload.RecordID,
		EventType:     payload.EventType,
	}, payload)
}

func (p *Publisher) publish(ctx context.Context, event *database.OutboxEvent, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	event.Payload = data

	err = p.db.WithTx(ctx, func(tx pgx.Tx) error {
		return p.outbox.InsertWithTx(ctx, tx, event)
	})
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Info("event published to outbox",
		"type", event.EventType,
		"aggregate_id", event.AggregateID,
		"outbox_id", event.ID,
	)

	return nil
}

func stampPayload(id *string, ts *time.Time) {
	if *id == "" {
		*id = uuid.New().String()
	}
	if ts.IsZero() {
		*ts = time.Now()
	}
}
