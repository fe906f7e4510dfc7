package accounting

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestLedger_RecordAdditive(t *testing.T) {
	ledger := NewLedger()
	ctx := context.Background()

	total, err := ledger.Record(ctx, 100)
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if total != 100 {
		t.Errorf("Expected 100, got %d", total)
	}

	total, err = ledger.Record(ctx, 50)
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if total != 150 {
		t.Errorf("Expected 150, got %d", total)
	}

	got, err := ledger.Total(ctx)
	if err != nil {
		t.Fatalf("Total failed: %v", err)
	}
	if got != 150 {
		t.Errorf("Expected 150, got %d", got)
	}
}

func TestLedger_LazyRollover(t *testing.T) {
	ledger := NewLedger()
	ctx := context.Background()

	now := time.Date(2026, time.August, 29, 12, 0, 0, 0, time.UTC)
	ledger.now = func() time.Time { return now }

	ledger.Record(ctx, 500)
	if ledger.Period() != "2026-08" {
		t.Errorf("Expected period 2026-08, got %s", ledger.Period())
	}

	// Crossing the month boundary: reads report zero before any write.
	now = time.Date(2026, time.September, 1, 0, 0, 1, 0, time.UTC)
	total, err := ledger.Total(ctx)
	if err != nil {
		t.Fatalf("Total failed: %v", err)
	}
	if total != 0 {
		t.Errorf("Expected 0 after rollover, got %d", total)
	}

	// First write of the new month starts fresh, not additive with August.
	total, err = ledger.Record(ctx, 25)
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if total != 25 {
		t.Errorf("Expected 25 in new period, got %d", total)
	}
	if ledger.Period() != "2026-09" {
		t.Errorf("Expected period 2026-09, got %s", ledger.Period())
	}
}

func TestLedger_Reset(t *testing.T) {
	ledger := NewLedger()
	ctx := context.Background()

	ledger.Record(ctx, 300)
	if err := ledger.Reset(ctx); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	total, _ := ledger.Total(ctx)
	if total != 0 {
		t.Errorf("Expected 0 after reset, got %d", total)
	}
}

func TestLedger_ConcurrentRecords(t *testing.T) {
	ledger := NewLedger()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ledger.Record(ctx, 10)
		}()
	}
	wg.Wait()

	total, _ := ledger.Total(ctx)
	if total != 1000 {
		t.Errorf("Expected 1000, got %d", total)
	}
}
