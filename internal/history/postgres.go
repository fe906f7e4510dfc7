package history

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"lingo_gateway/internal/storage"
)

// Repository is the Postgres-backed audit log.
type Repository struct {
	db       *storage.DB
	pageSize int
}

// NewRepository creates a repository over the given database.
func NewRepository(db *storage.DB, pageSize int) *Repository {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &Repository{db: db, pageSize: pageSize}
}

// Append inserts a record.
func (r *Repository) Append(ctx context.Context, record Record) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}

	query := `
		INSERT INTO request_history (id, created_at, feature, detail, source, usage_units)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Conn().ExecContext(ctx, query,
		record.ID, record.Timestamp, record.Feature,
		record.Detail, record.Source, record.UsageUnits)
	if err != nil {
		return fmt.Errorf("failed to insert history record: %w", err)
	}
	return nil
}

// AppendBatch inserts multiple records in a single transaction.
func (r *Repository) AppendBatch(ctx context.Context, records []Record) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO request_history (id, created_at, feature, detail, source, usage_units)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for _, record := range records {
		if record.ID == uuid.Nil {
			record.ID = uuid.New()
		}
		if record.Timestamp.IsZero() {
			record.Timestamp = time.Now()
		}
		if _, err := tx.ExecContext(ctx, query,
			record.ID, record.Timestamp, record.Feature,
			record.Detail, record.Source, record.UsageUnits); err != nil {
			return fmt.Errorf("failed to insert history record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// List returns the given 1-based page, most recent entries first.
func (r *Repository) List(ctx context.Context, page int) (*Page, error) {
	if page < 1 {
		page = 1
	}

	var total int
	err := r.db.Conn().GetContext(ctx, &total, "SELECT COUNT(*) FROM request_history")
	if err != nil {
		return nil, fmt.Errorf("failed to count history records: %w", err)
	}

	offset, totalPages := paginate(total, page, r.pageSize)

	query := `
		SELECT id, created_at, feature, detail, source, usage_units
		FROM request_history
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	entries := make([]Record, 0, r.pageSize)
	if err := r.db.Conn().SelectContext(ctx, &entries, query, r.pageSize, offset); err != nil {
		return nil, fmt.Errorf("failed to list history records: %w", err)
	}

	return &Page{
		Entries:     entries,
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalCount:  total,
		HasPrev:     page > 1,
		HasNext:     page < totalPages,
	}, nil
}

// Clear removes all records.
func (r *Repository) Clear(ctx context.Context) error {
	if _, err := r.db.Conn().ExecContext(ctx, "DELETE FROM request_history"); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

var _ Recorder = (*Repository)(nil)
