package history

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Ring is a bounded in-memory audit log. When full, appending evicts the
// oldest record.
type Ring struct {
	mu       sync.Mutex
	records  []Record // oldest first
	capacity int
	pageSize int

	// now is injectable for tests.
	now func() time.Time
}

// NewRing creates an empty ring holding up to capacity records.
func NewRing(capacity, pageSize int) *Ring {
	if capacity <= 0 {
		capacity = 50
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return &Ring{
		records:  make([]Record, 0, capacity),
		capacity: capacity,
		pageSize: pageSize,
		now:      time.Now,
	}
}

// Append adds a record, evicting the oldest one when the ring is full.
func (r *Ring) Append(ctx context.Context, record Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = r.now()
	}

	if len(r.records) == r.capacity {
		copy(r.records, r.records[1:])
		r.records = r.records[:len(r.records)-1]
	}
	r.records = append(r.records, record)
	return nil
}

// List returns the given 1-based page, most recent entries first.
func (r *Ring) List(ctx context.Context, page int) (*Page, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if page < 1 {
		page = 1
	}
	total := len(r.records)
	offset, totalPages := paginate(total, page, r.pageSize)

	entries := make([]Record, 0, r.pageSize)
	// Walk backwards so entries come out newest first.
	for i := total - 1 - offset; i >= 0 && len(entries) < r.pageSize; i-- {
		entries = append(entries, r.records[i])
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
func (r *Ring) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records = r.records[:0]
	return nil
}

// Len returns the current number of records.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

var _ Recorder = (*Ring)(nil)
