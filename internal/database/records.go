package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/leontonobunaga/amaprice/internal/models"
)

// EventRecordCreated announces a freshly captured product record.
const EventRecordCreated = "record.created"

// RecordRepository persists finished product records. The full record
// is stored as JSONB next to the columns queries filter on.
type RecordRepository struct {
	db *DB
}

func NewRecordRepository(db *DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// Insert stores a record and enqueues its created event in the same
// transaction.
func (r *RecordRepository) Insert(ctx context.Context, record *models.ProductRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	outbox := NewOutboxRepository(r.db)

	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO product_record (
				id, captured_at, category_name, rank, asin, data
			) VALUES (
				$1, $2, $3, $4, $5, $6
			)`

		_, err := tx.Exec(ctx, query,
			record.ID, record.CapturedAt, record.CategoryName,
			record.Rank, record.ASIN, data,
		)
		if err != nil {
			return fmt.Errorf("failed to insert record: %w", err)
		}

		return outbox.InsertWithTx(ctx, tx, &OutboxEvent{
			AggregateType: "product_record",
			AggregateID:   record.ID,
			EventType:     EventRecordCreated,
			Payload:       data,
		})
	})
}

// Get retrieves one record by ID, nil when not found.
func (r *RecordRepository) Get(ctx context.Context, id string) (*models.ProductRecord, error) {
	var data []byte
	err := r.db.pool.QueryRow(ctx,
		`SELECT data FROM product_record WHERE id = $1`, id).Scan(&data)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	return unmarshalRecord(data)
}

// ListByCategory returns a category's records from the most recent
// capture first, ranking order within one capture.
func (r *RecordRepository) ListByCategory(ctx context.Context, category string, limit int) ([]*models.ProductRecord, error) {
	query := `
		SELECT data
		FROM product_record
		WHERE category_name = $1
		ORDER BY captured_at DESC, rank ASC
		LIMIT $2`

	rows, err := r.db.pool.Query(ctx, query, category, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// ListSince returns records captured at or after the cutoff.
func (r *RecordRepository) ListSince(ctx context.Context, since time.Time, limit int) ([]*models.ProductRecord, error) {
	query := `
		SELECT data
		FROM product_record
		WHERE captured_at >= $1
		ORDER BY captured_at DESC, rank ASC
		LIMIT $2`

	rows, err := r.db.pool.Query(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// CountByCategory returns record counts grouped by category.
func (r *RecordRepository) CountByCategory(ctx context.Context) (map[string]int, error) {
	query := `
		SELECT category_name, COUNT(*)
		FROM product_record
		GROUP BY category_name`

	rows, err := r.db.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count records: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[category] = count
	}

	return counts, rows.Err()
}

func scanRecords(rows pgx.Rows) ([]*models.ProductRecord, error) {
	var records []*models.ProductRecord
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		record, err := unmarshalRecord(data)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return records, nil
}

func unmarshalRecord(data []byte) (*models.ProductRecord, error) {
	var record models.ProductRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return &record, nil
}
