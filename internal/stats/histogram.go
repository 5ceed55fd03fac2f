package stats

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Quantiles is a single-lock snapshot of the latency distribution,
// already converted to milliseconds for display.
type Quantiles struct {
	P50Ms float64
	P95Ms float64
	P99Ms float64
	MaxMs float64
}

// LatencyTrack accumulates successful query latencies for live snapshots.
// It wraps an HDR histogram behind a mutex so many workers can record
// while the snapshot ticker reads.
type LatencyTrack struct {
	mu   sync.Mutex
	hist *hdrhistogram.Histogram
}

func NewLatencyTrack() *LatencyTrack {
	// 1us to 10min, 3 significant figures
	return &LatencyTrack{
		hist: hdrhistogram.New(1, int64(10*time.Minute/time.Microsecond), 3),
	}
}

// Record clamps out-of-range values instead of dropping them so the
// counters and histogram never disagree about how many queries landed.
func (t *LatencyTrack) Record(elapsed time.Duration) {
	us := elapsed.Microseconds()
	if us < 1 {
		us = 1
	} else if max := t.hist.HighestTrackableValue(); us > max {
		us = max
	}
	t.mu.Lock()
	t.hist.RecordValue(us)
	t.mu.Unlock()
}

// Quantiles reads all display percentiles under one lock acquisition
// so a snapshot sees a consistent distribution.
func (t *LatencyTrack) Quantiles() Quantiles {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Quantiles{
		P50Ms: float64(t.hist.ValueAtQuantile(50)) / 1000.0,
		P95Ms: float64(t.hist.ValueAtQuantile(95)) / 1000.0,
		P99Ms: float64(t.hist.ValueAtQuantile(99)) / 1000.0,
		MaxMs: float64(t.hist.Max()) / 1000.0,
	}
}

func (t *LatencyTrack) count() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.hist.TotalCount()
}

func (t *LatencyTrack) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hist.Reset()
}
