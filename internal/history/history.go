// Package history records one audit entry per completed request and serves
// them back most-recent-first. Two backends exist: a bounded in-memory ring
// for standalone deployments and a paginated Postgres repository for durable
// ones.
package history

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Sources classify where a request's response came from.
const (
	SourceProvider = "provider"
	SourceCache    = "cache"
	SourceError    = "error"
)

// Record is one audit-log entry.
type Record struct {
	ID         uuid.UUID `json:"id" db:"id"`
	Timestamp  time.Time `json:"timestamp" db:"created_at"`
	Feature    string    `json:"feature" db:"feature"`
	Detail     string    `json:"detail" db:"detail"`
	Source     string    `json:"source" db:"source"`
	UsageUnits int       `json:"usage_units" db:"usage_units"`
}

// Page is one page of audit-log entries, most recent first.
type Page struct {
	Entries     []Record `json:"entries"`
	CurrentPage int      `json:"current_page"`
	TotalPages  int      `json:"total_pages"`
	TotalCount  int      `json:"total_count"`
	HasPrev     bool     `json:"has_prev"`
	HasNext     bool     `json:"has_next"`
}

// Recorder is the audit-log store.
type Recorder interface {
	// Append adds a record. Backends assign the ID and timestamp when unset.
	Append(ctx context.Context, record Record) error

	// List returns the given 1-based page, most recent entries first.
	List(ctx context.Context, page int) (*Page, error)

	// Clear removes all records.
	Clear(ctx context.Context) error
}

// paginate computes page bounds over a total count. Pages are 1-based and a
// page past the end is valid but empty.
func paginate(total, page, pageSize int) (offset, totalPages int) {
	if page < 1 {
		page = 1
	}
	totalPages = (total + pageSize - 1) / pageSize
	return (page - 1) * pageSize, totalPages
}
