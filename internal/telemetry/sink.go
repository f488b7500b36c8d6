package telemetry

import (
	"context"
	"sync"

	"github.com/harrylevesque/wssgateway/internal/gatewaycore"
)

// NoopTelemetrySink discards every record; the default for deployments that
// don't need a telemetry warehouse.
type NoopTelemetrySink struct{}

// Insert implements gatewaycore.TelemetrySink.
func (NoopTelemetrySink) Insert(ctx context.Context, partitionKey string, record gatewaycore.TelemetryRecord) error {
	return nil
}

// MemoryTelemetrySink retains the most recent records per partition key, for
// tests and the operator API's device-inspection views.
type MemoryTelemetrySink struct {
	mu      sync.Mutex
	byPart  map[string][]gatewaycore.TelemetryRecord
	maxKept int
}

// NewMemoryTelemetrySink creates a sink retaining up to maxKept records per
// partition key, discarding the oldest once full.
func NewMemoryTelemetrySink(maxKept int) *MemoryTelemetrySink {
	return &MemoryTelemetrySink{byPart: map[string][]gatewaycore.TelemetryRecord{}, maxKept: maxKept}
}

// NewSink builds the TelemetrySink a deployment's config.Gateway.TelemetryRetention
// selects: NoopTelemetrySink when retention is zero or negative (no
// inspection view wanted), otherwise a MemoryTelemetrySink capped at
// retention records per partition.
func NewSink(retention int) gatewaycore.TelemetrySink {
	if retention <= 0 {
		return NoopTelemetrySink{}
	}
	return NewMemoryTelemetrySink(retention)
}

// Insert implements gatewaycore.TelemetrySink.
func (s *MemoryTelemetrySink) Insert(ctx context.Context, partitionKey string, record gatewaycore.TelemetryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := append(s.byPart[partitionKey], record)
	if len(records) > s.maxKept {
		records = records[len(records)-s.maxKept:]
	}
	s.byPart[partitionKey] = records
	return nil
}

// Recent returns a copy of the retained records for partitionKey.
func (s *MemoryTelemetrySink) Recent(partitionKey string) []gatewaycore.TelemetryRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]gatewaycore.TelemetryRecord(nil), s.byPart[partitionKey]...)
}
