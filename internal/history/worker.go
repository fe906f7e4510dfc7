package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"lingo_gateway/internal/queue"
	"lingo_gateway/internal/utils"
)

// batchAppender is implemented by recorders that can insert a whole batch in
// one transaction.
type batchAppender interface {
	AppendBatch(ctx context.Context, records []Record) error
}

// Worker drains queued audit records and writes them to a Recorder. Failed
// records are retried with exponential backoff and dead-lettered when the
// retries run out.
type Worker struct {
	queue       queue.Queue
	dlq         queue.DeadLetter
	recorder    Recorder
	config      *queue.Config
	logger      *utils.Logger
	stopChan    chan struct{}
	stoppedChan chan struct{}
}

// NewWorker creates a worker writing to the given recorder.
func NewWorker(q queue.Queue, dlq queue.DeadLetter, recorder Recorder, config *queue.Config) *Worker {
	if config == nil {
		config = queue.DefaultConfig("history")
	}
	return &Worker{
		queue:       q,
		dlq:         dlq,
		recorder:    recorder,
		config:      config,
		logger:      utils.NewLogger("history-worker"),
		stopChan:    make(chan struct{}),
		stoppedChan: make(chan struct{}),
	}
}

// Start starts the worker goroutine.
func (w *Worker) Start(ctx context.Context) {
	go w.run(ctx)
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() error {
	close(w.stopChan)
	<-w.stoppedChan
	return nil
}

// Enqueue serializes a record onto the queue for later writing.
func (w *Worker) Enqueue(ctx context.Context, record Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal history record: %w", err)
	}
	return w.queue.Enqueue(ctx, data)
}

// QueueLength returns the current queue length.
func (w *Worker) QueueLength(ctx context.Context) (int, error) {
	return w.queue.Length(ctx)
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.stoppedChan)

	for {
		select {
		case <-w.stopChan:
			w.logger.Info("History worker stopping")
			return
		case <-ctx.Done():
			w.logger.Info("History worker context cancelled")
			return
		default:
			w.processBatch(ctx)
		}
	}
}

func (w *Worker) processBatch(ctx context.Context) {
	payloads, err := w.queue.Dequeue(ctx, w.config.BatchSize, w.config.BatchWait)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		w.logger.Error("Failed to dequeue history records", "error", err)
		time.Sleep(1 * time.Second) // back off on error
		return
	}
	if len(payloads) == 0 {
		return
	}

	w.logger.Debug("Processing history batch", "count", len(payloads))

	records := make([]Record, 0, len(payloads))
	for _, payload := range payloads {
		var record Record
		if err := json.Unmarshal(payload, &record); err != nil {
			w.logger.Error("Failed to unmarshal history record", "error", err)
			continue
		}
		records = append(records, record)
	}
	if len(records) == 0 {
		return
	}

	if batcher, ok := w.recorder.(batchAppender); ok {
		if err := batcher.AppendBatch(ctx, records); err == nil {
			w.logger.Debug("Inserted batch successfully", "count", len(records))
			return
		}
		w.logger.Error("Batch insert failed, falling back to individual writes")
	}

	for _, record := range records {
		if err := w.processRecord(ctx, record); err != nil {
			w.logger.Error("Failed to process history record", "error", err)
		}
	}
}

// processRecord writes one record with retries, dead-lettering on exhaustion.
func (w *Worker) processRecord(ctx context.Context, record Record) error {
	var lastErr error
	for attempt := 0; attempt <= w.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := w.config.RetryBackoff * time.Duration(1<<uint(attempt-1))
			w.logger.Debug("Retrying history record", "attempt", attempt, "backoff", backoff)
			time.Sleep(backoff)
		}

		if err := w.recorder.Append(ctx, record); err != nil {
			lastErr = err
			continue
		}
		return nil
	}

	if w.dlq != nil {
		data, err := json.Marshal(record)
		if err == nil {
			if err := w.dlq.Add(ctx, data, lastErr); err != nil {
				w.logger.Error("Failed to add to dead letter queue", "error", err)
			} else {
				w.logger.Warn("History record moved to DLQ", "record_id", record.ID, "error", lastErr)
			}
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// DeadLetterItems returns items from the dead letter queue.
func (w *Worker) DeadLetterItems(ctx context.Context, maxItems int) ([]queue.DeadItem, error) {
	if w.dlq == nil {
		return nil, fmt.Errorf("dead letter queue not configured")
	}
	return w.dlq.List(ctx, maxItems)
}

// RetryDeadLetterItem re-enqueues a dead-lettered record by ID.
func (w *Worker) RetryDeadLetterItem(ctx context.Context, id string) error {
	if w.dlq == nil {
		return fmt.Errorf("dead letter queue not configured")
	}

	items, err := w.dlq.List(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to list dead letter items: %w", err)
	}
	for _, item := range items {
		if item.ID != id {
			continue
		}
		if err := w.queue.Enqueue(ctx, item.Payload); err != nil {
			return fmt.Errorf("failed to re-enqueue item: %w", err)
		}
		if err := w.dlq.Remove(ctx, id); err != nil {
			return fmt.Errorf("failed to remove from DLQ: %w", err)
		}
		return nil
	}

	return queue.ErrItemNotFound
}

// AsyncRecorder fronts a Recorder with a queue so the request path never
// blocks on the audit write. Reads and clears go straight through.
type AsyncRecorder struct {
	worker   *Worker
	recorder Recorder
}

// NewAsyncRecorder wraps recorder with the given worker's queue.
func NewAsyncRecorder(worker *Worker, recorder Recorder) *AsyncRecorder {
	return &AsyncRecorder{worker: worker, recorder: recorder}
}

// Append enqueues the record for asynchronous writing.
func (a *AsyncRecorder) Append(ctx context.Context, record Record) error {
	return a.worker.Enqueue(ctx, record)
}

// List returns the given page from the underlying recorder.
func (a *AsyncRecorder) List(ctx context.Context, page int) (*Page, error) {
	return a.recorder.List(ctx, page)
}

// Clear removes all records from the underlying recorder.
func (a *AsyncRecorder) Clear(ctx context.Context) error {
	return a.recorder.Clear(ctx)
}

var _ Recorder = (*AsyncRecorder)(nil)
