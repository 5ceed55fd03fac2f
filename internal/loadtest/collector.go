package loadtest

import (
	"sync"
	"sync/atomic"
)

// SampleCollector accumulates samples from all workers of one backend
// during a scenario run. Record is safe under arbitrary concurrent
// writers; Drain must only be called after the run's join barrier,
// which the ScenarioRunner enforces.
type SampleCollector struct {
	mu       sync.Mutex
	samples  []Sample
	recorded uint64
}

func NewSampleCollector(capacityHint int) *SampleCollector {
	if capacityHint < 0 {
		capacityHint = 0
	}
	return &SampleCollector{samples: make([]Sample, 0, capacityHint)}
}

// Record appends one sample. Every call adds exactly one entry;
// concurrent callers never lose or duplicate a write.
func (c *SampleCollector) Record(s Sample) {
	c.mu.Lock()
	c.samples = append(c.samples, s)
	c.mu.Unlock()
	atomic.AddUint64(&c.recorded, 1)
}

// Count returns the number of samples recorded so far. Safe to call
// while workers are still writing; used for live progress only.
func (c *SampleCollector) Count() uint64 {
	return atomic.LoadUint64(&c.recorded)
}

// Drain returns the accumulated samples and resets the collector.
func (c *SampleCollector) Drain() []Sample {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.samples
	c.samples = nil
	atomic.StoreUint64(&c.recorded, 0)
	return out
}
