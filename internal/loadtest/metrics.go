package loadtest

import "time"

// MetricsReporter receives engine events for external monitoring.
// Implementations must be safe for concurrent use by many workers.
type MetricsReporter interface {
	RecordQuery(backend string, query QueryType, elapsed time.Duration, success bool)
	RecordWorkers(backend string, delta int)
	RecordScenario(target string, users int, running bool)
}

// NoopMetrics discards all events. Used when no monitoring endpoint is configured.
type NoopMetrics struct{}

func (NoopMetrics) RecordQuery(string, QueryType, time.Duration, bool) {}
func (NoopMetrics) RecordWorkers(string, int)                         {}
func (NoopMetrics) RecordScenario(string, int, bool)                  {}
