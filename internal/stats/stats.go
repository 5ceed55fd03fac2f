package stats

import (
	"sync/atomic"
	"time"
)

// Live holds real-time aggregated metrics for one backend during a run.
// Counters are updated with atomics so the snapshot loop never blocks workers.
type Live struct {
	Queries uint64
	Success uint64
	Fail    uint64
	Records uint64

	// Latency histogram for successful queries
	Latency *LatencyTrack
}

func NewLive() *Live {
	return &Live{Latency: NewLatencyTrack()}
}

func (l *Live) Add(success bool, records int64, elapsed time.Duration) {
	atomic.AddUint64(&l.Queries, 1)
	if success {
		atomic.AddUint64(&l.Success, 1)
		atomic.AddUint64(&l.Records, uint64(records))
		l.Latency.Record(elapsed)
	} else {
		atomic.AddUint64(&l.Fail, 1)
	}
}

func (l *Live) Reset() {
	atomic.StoreUint64(&l.Queries, 0)
	atomic.StoreUint64(&l.Success, 0)
	atomic.StoreUint64(&l.Fail, 0)
	atomic.StoreUint64(&l.Records, 0)
	l.Latency.Reset()
}

// View is a cheap copy of one backend's live counters.
type View struct {
	Backend string
	Queries uint64
	Success uint64
	Fail    uint64
	Records uint64

	Latency Quantiles
}

func (l *Live) View(backend string) View {
	return View{
		Backend: backend,
		Queries: atomic.LoadUint64(&l.Queries),
		Success: atomic.LoadUint64(&l.Success),
		Fail:    atomic.LoadUint64(&l.Fail),
		Records: atomic.LoadUint64(&l.Records),
		Latency: l.Latency.Quantiles(),
	}
}

// ErrorRate is the failed fraction of this view's queries, in percent.
func (v View) ErrorRate() float64 {
	if v.Queries == 0 {
		return 0
	}
	return (float64(v.Fail) / float64(v.Queries)) * 100
}
