package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lingo_gateway/internal/queue"
)

func testWorkerConfig() *queue.Config {
	cfg := queue.DefaultConfig("history-test")
	cfg.BatchWait = 20 * time.Millisecond
	cfg.MaxRetries = 2
	cfg.RetryBackoff = time.Millisecond
	return cfg
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestWorker_DrainsQueueIntoRecorder(t *testing.T) {
	cfg := testWorkerConfig()
	q := queue.NewMemoryQueue(cfg)
	ring := NewRing(50, 20)

	worker := NewWorker(q, queue.NewMemoryDeadLetter(), ring, cfg)
	worker.Start(context.Background())
	defer worker.Stop()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, worker.Enqueue(ctx, Record{
			Feature:    "translate",
			Source:     SourceProvider,
			UsageUnits: 10,
		}))
	}

	waitFor(t, 2*time.Second, func() bool { return ring.Len() == 5 })

	page, err := ring.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, page.Entries, 5)
	for _, rec := range page.Entries {
		assert.Equal(t, "translate", rec.Feature)
		assert.Equal(t, SourceProvider, rec.Source)
	}
}

// failingRecorder fails a fixed number of appends before recovering.
type failingRecorder struct {
	*Ring
	failures int
}

func (f *failingRecorder) Append(ctx context.Context, record Record) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("database unavailable")
	}
	return f.Ring.Append(ctx, record)
}

func TestWorker_RetriesFailedWrites(t *testing.T) {
	cfg := testWorkerConfig()
	q := queue.NewMemoryQueue(cfg)
	recorder := &failingRecorder{Ring: NewRing(50, 20), failures: 2}

	worker := NewWorker(q, queue.NewMemoryDeadLetter(), recorder, cfg)
	worker.Start(context.Background())
	defer worker.Stop()

	require.NoError(t, worker.Enqueue(context.Background(), Record{Feature: "translate"}))

	// Two failures fit within MaxRetries, so the record lands eventually.
	waitFor(t, 2*time.Second, func() bool { return recorder.Len() == 1 })
}

func TestWorker_DeadLettersExhaustedWrites(t *testing.T) {
	cfg := testWorkerConfig()
	q := queue.NewMemoryQueue(cfg)
	dlq := queue.NewMemoryDeadLetter()
	recorder := &failingRecorder{Ring: NewRing(50, 20), failures: 100}

	worker := NewWorker(q, dlq, recorder, cfg)
	worker.Start(context.Background())
	defer worker.Stop()

	ctx := context.Background()
	require.NoError(t, worker.Enqueue(ctx, Record{Feature: "translate", Detail: "doomed"}))

	waitFor(t, 2*time.Second, func() bool {
		items, err := dlq.List(ctx, 10)
		return err == nil && len(items) == 1
	})

	items, err := dlq.List(ctx, 10)
	require.NoError(t, err)
	assert.Contains(t, items[0].Error, "database unavailable")
}

func TestWorker_RetryDeadLetterItem(t *testing.T) {
	cfg := testWorkerConfig()
	q := queue.NewMemoryQueue(cfg)
	dlq := queue.NewMemoryDeadLetter()
	recorder := &failingRecorder{Ring: NewRing(50, 20), failures: cfg.MaxRetries + 1}

	worker := NewWorker(q, dlq, recorder, cfg)
	worker.Start(context.Background())
	defer worker.Stop()

	ctx := context.Background()
	require.NoError(t, worker.Enqueue(ctx, Record{Feature: "translate"}))

	waitFor(t, 2*time.Second, func() bool {
		items, _ := dlq.List(ctx, 10)
		return len(items) == 1
	})

	items, err := dlq.List(ctx, 10)
	require.NoError(t, err)

	// The recorder has recovered by now, so the replay succeeds.
	require.NoError(t, worker.RetryDeadLetterItem(ctx, items[0].ID))
	waitFor(t, 2*time.Second, func() bool { return recorder.Len() == 1 })

	items, err = dlq.List(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestAsyncRecorder_ReadsGoStraightThrough(t *testing.T) {
	cfg := testWorkerConfig()
	q := queue.NewMemoryQueue(cfg)
	ring := NewRing(50, 20)

	worker := NewWorker(q, queue.NewMemoryDeadLetter(), ring, cfg)
	worker.Start(context.Background())
	defer worker.Stop()

	async := NewAsyncRecorder(worker, ring)
	ctx := context.Background()

	require.NoError(t, async.Append(ctx, Record{Feature: "translate"}))
	waitFor(t, 2*time.Second, func() bool { return ring.Len() == 1 })

	page, err := async.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, page.Entries, 1)

	require.NoError(t, async.Clear(ctx))
	assert.Equal(t, 0, ring.Len())
}
