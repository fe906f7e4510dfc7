package history

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func appendN(t *testing.T, r *Ring, n int) {
	t.Helper()
	ctx := context.Background()
	for i := 1; i <= n; i++ {
		err := r.Append(ctx, Record{
			Feature:    "translate",
			Detail:     fmt.Sprintf("entry %d", i),
			Source:     SourceProvider,
			UsageUnits: i,
		})
		if err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}
}

func TestRing_BoundedEviction(t *testing.T) {
	r := NewRing(50, 20)
	appendN(t, r, 55)

	if r.Len() != 50 {
		t.Fatalf("Expected 50 records after 55 appends, got %d", r.Len())
	}

	// The five oldest entries are gone; the oldest survivor is entry 6.
	page, err := r.List(context.Background(), 3)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(page.Entries) != 10 {
		t.Fatalf("Expected 10 entries on last page, got %d", len(page.Entries))
	}
	oldest := page.Entries[len(page.Entries)-1]
	if oldest.Detail != "entry 6" {
		t.Errorf("Expected oldest survivor to be entry 6, got %s", oldest.Detail)
	}
}

func TestRing_ListNewestFirst(t *testing.T) {
	r := NewRing(50, 20)
	appendN(t, r, 30)

	page, err := r.List(context.Background(), 1)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	if page.Entries[0].Detail != "entry 30" {
		t.Errorf("Expected newest entry first, got %s", page.Entries[0].Detail)
	}
	if page.Entries[19].Detail != "entry 11" {
		t.Errorf("Expected entry 11 last on page, got %s", page.Entries[19].Detail)
	}
}

func TestRing_Pagination(t *testing.T) {
	r := NewRing(50, 20)
	appendN(t, r, 45)

	page1, _ := r.List(context.Background(), 1)
	if page1.TotalCount != 45 || page1.TotalPages != 3 {
		t.Errorf("Expected 45 records over 3 pages, got %d over %d", page1.TotalCount, page1.TotalPages)
	}
	if page1.HasPrev || !page1.HasNext {
		t.Error("Page 1 should have next but no prev")
	}

	page3, _ := r.List(context.Background(), 3)
	if len(page3.Entries) != 5 {
		t.Errorf("Expected 5 entries on last page, got %d", len(page3.Entries))
	}
	if !page3.HasPrev || page3.HasNext {
		t.Error("Last page should have prev but no next")
	}

	// Pages never overlap.
	seen := make(map[string]bool)
	for p := 1; p <= 3; p++ {
		page, _ := r.List(context.Background(), p)
		for _, e := range page.Entries {
			if seen[e.Detail] {
				t.Errorf("Entry %s appeared on multiple pages", e.Detail)
			}
			seen[e.Detail] = true
		}
	}
	if len(seen) != 45 {
		t.Errorf("Expected 45 distinct entries across pages, got %d", len(seen))
	}
}

func TestRing_PagePastEndIsEmpty(t *testing.T) {
	r := NewRing(50, 20)
	appendN(t, r, 5)

	page, err := r.List(context.Background(), 9)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(page.Entries) != 0 {
		t.Errorf("Expected empty page, got %d entries", len(page.Entries))
	}
	if page.CurrentPage != 9 {
		t.Errorf("Expected current page preserved, got %d", page.CurrentPage)
	}
}

func TestRing_AssignsIDAndTimestamp(t *testing.T) {
	r := NewRing(10, 10)
	before := time.Now()

	if err := r.Append(context.Background(), Record{Feature: "translate"}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	page, _ := r.List(context.Background(), 1)
	rec := page.Entries[0]
	if rec.ID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Error("Expected assigned ID")
	}
	if rec.Timestamp.Before(before) {
		t.Error("Expected assigned timestamp")
	}
}

func TestRing_Clear(t *testing.T) {
	r := NewRing(50, 20)
	appendN(t, r, 10)

	if err := r.Clear(context.Background()); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if r.Len() != 0 {
		t.Errorf("Expected empty ring, got %d", r.Len())
	}

	page, _ := r.List(context.Background(), 1)
	if page.TotalCount != 0 || page.TotalPages != 0 {
		t.Errorf("Expected empty pagination, got %+v", page)
	}
}
