// Package logging archives completed requests to object storage. Records are
// buffered in memory and flushed to S3 as JSON Lines batches.
package logging

import "time"

// ArchiveRecord is one archived request.
type ArchiveRecord struct {
	Timestamp  time.Time `json:"timestamp"`
	RequestID  string    `json:"request_id"`
	CallerID   string    `json:"caller_id,omitempty"`
	Feature    string    `json:"feature"`
	Source     string    `json:"source"`
	UsageUnits int       `json:"usage_units"`
	GatewayMs  int64     `json:"gateway_ms"`
	Error      string    `json:"error,omitempty"`
}

// Sink receives archive records from the gateway.
type Sink interface {
	Enqueue(rec *ArchiveRecord) error
}

// NoopSink discards archive records. Used when archiving is disabled.
type NoopSink struct{}

func NewNoopSink() *NoopSink {
	return &NoopSink{}
}

func (s *NoopSink) Enqueue(rec *ArchiveRecord) error {
	return nil
}
