package accounting

import (
	"context"
	"sync"
	"time"
)

// periodFormat is the accounting bucket label, one per calendar month.
const periodFormat = "2006-01"

// Accountant accumulates provider-reported usage units into a per-period
// ledger. Only the current period is retained; historical totals live in the
// audit log.
type Accountant interface {
	// Record adds units to the current period and returns the new total.
	// Recording into a new period replaces the ledger (lazy rollover).
	Record(ctx context.Context, units int) (int, error)

	// Total returns the current period's accumulated units.
	Total(ctx context.Context) (int, error)

	// Reset zeroes the current period.
	Reset(ctx context.Context) error
}

// Ledger is the in-memory accountant. Updates are mutex-serialized so the
// additive invariant holds under concurrent writers.
type Ledger struct {
	mu     sync.Mutex
	period string
	total  int

	// now is injectable for rollover tests.
	now func() time.Time
}

// NewLedger creates an empty in-memory ledger.
func NewLedger() *Ledger {
	return &Ledger{now: time.Now}
}

// Record adds units to the current period's total, replacing the ledger when
// the period label has moved on since the last write.
func (l *Ledger) Record(ctx context.Context, units int) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	period := l.now().Format(periodFormat)
	if period != l.period {
		l.period = period
		l.total = 0
	}
	l.total += units
	return l.total, nil
}

// Total returns the current period's accumulated units. A stored total from
// a past period reads as zero.
func (l *Ledger) Total(ctx context.Context) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.now().Format(periodFormat) != l.period {
		return 0, nil
	}
	return l.total, nil
}

// Reset zeroes the current period.
func (l *Ledger) Reset(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.period = l.now().Format(periodFormat)
	l.total = 0
	return nil
}

// Period returns the label of the period the ledger currently holds.
func (l *Ledger) Period() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.period
}

var _ Accountant = (*Ledger)(nil)
