package logging

import (
	"context"
	"sync"
	"time"

	"lingo_gateway/internal/utils"
)

// BatchWriter persists a batch of archive records somewhere durable.
type BatchWriter interface {
	WriteBatch(ctx context.Context, records []*ArchiveRecord) (string, error)
}

// BufferedSink collects records in memory and flushes them to a BatchWriter
// when the buffer reaches flushSize or the flush interval elapses. Records
// are dropped rather than blocking the request path when the buffer is full.
type BufferedSink struct {
	writer        BatchWriter
	flushSize     int
	flushInterval time.Duration
	logger        *utils.Logger

	mu      sync.Mutex
	pending []*ArchiveRecord

	recordCh chan *ArchiveRecord
	doneCh   chan struct{}
	wg       sync.WaitGroup
	closed   bool
}

// NewBufferedSink creates a sink and starts its flush worker.
func NewBufferedSink(writer BatchWriter, bufferSize, flushSize int, flushInterval time.Duration) *BufferedSink {
	if bufferSize <= 0 {
		bufferSize = 10000
	}
	if flushSize <= 0 {
		flushSize = 1000
	}
	if flushInterval <= 0 {
		flushInterval = 5 * time.Minute
	}

	s := &BufferedSink{
		writer:        writer,
		flushSize:     flushSize,
		flushInterval: flushInterval,
		logger:        utils.NewLogger("archive-sink"),
		pending:       make([]*ArchiveRecord, 0, flushSize),
		recordCh:      make(chan *ArchiveRecord, bufferSize),
		doneCh:        make(chan struct{}),
	}

	s.wg.Add(1)
	go s.run()
	return s
}

// Enqueue buffers a record. Full buffers drop the record.
func (s *BufferedSink) Enqueue(rec *ArchiveRecord) error {
	select {
	case s.recordCh <- rec:
		return nil
	default:
		s.logger.Warn("Archive buffer full, dropping record", "feature", rec.Feature)
		return nil
	}
}

func (s *BufferedSink) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case rec := <-s.recordCh:
			s.append(rec)
		case <-ticker.C:
			s.flush()
		case <-s.doneCh:
			// Drain what is left, then flush once.
			for {
				select {
				case rec := <-s.recordCh:
					s.append(rec)
				default:
					s.flush()
					return
				}
			}
		}
	}
}

func (s *BufferedSink) append(rec *ArchiveRecord) {
	s.mu.Lock()
	s.pending = append(s.pending, rec)
	full := len(s.pending) >= s.flushSize
	s.mu.Unlock()

	if full {
		s.flush()
	}
}

func (s *BufferedSink) flush() {
	s.mu.Lock()
	if len(s.pending) == 0 {
		s.mu.Unlock()
		return
	}
	batch := s.pending
	s.pending = make([]*ArchiveRecord, 0, s.flushSize)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := s.writer.WriteBatch(ctx, batch); err != nil {
		s.logger.Error("Archive flush failed", "count", len(batch), "error", err)
	}
}

// Shutdown flushes remaining records and stops the worker.
func (s *BufferedSink) Shutdown() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	close(s.doneCh)
	s.wg.Wait()
}

var _ Sink = (*BufferedSink)(nil)
