package loadtest

import (
	"context"
	"fmt"
	"time"

	"pairbench/internal/stats"
)

// clientWorker simulates one concurrent user against one backend. It
// owns its executor handle exclusively; the collector and live stats
// are the only shared state it touches.
type clientWorker struct {
	backend   string
	exec      QueryExecutor
	query     Query
	thinkTime time.Duration

	collector *SampleCollector
	live      *stats.Live
	metrics   MetricsReporter
}

// run executes queries until the deadline passes or, when single is
// set, exactly once. The deadline is checked before each iteration so
// an in-flight query is never cut off mid-flight; ctx cancellation is
// the global stop signal and is observed at the same point.
func (w *clientWorker) run(ctx context.Context, deadline time.Time, single bool) {
	w.metrics.RecordWorkers(w.backend, 1)
	defer w.metrics.RecordWorkers(w.backend, -1)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if !single && time.Now().After(deadline) {
			return
		}

		w.attempt(ctx)

		if single {
			return
		}
		if w.thinkTime > 0 {
			time.Sleep(w.thinkTime)
		}
	}
}

// attempt performs one query and records exactly one sample, whatever
// the outcome. A panicking executor degrades to a failure sample.
func (w *clientWorker) attempt(ctx context.Context) {
	started := time.Now()

	records, err := w.execute(ctx)

	elapsed := time.Since(started)
	s := Sample{
		Backend: w.backend,
		Query:   w.query.Type,
		Started: started,
		Elapsed: elapsed,
		Records: records,
	}
	if err != nil {
		s.Success = false
		s.Records = 0
		s.Reason = err.Error()
	} else {
		s.Success = true
	}

	w.collector.Record(s)
	w.live.Add(s.Success, s.Records, elapsed)
	w.metrics.RecordQuery(w.backend, w.query.Type, elapsed, s.Success)
}

func (w *clientWorker) execute(ctx context.Context) (records int64, err error) {
	defer func() {
		if r := recover(); r != nil {
			records = 0
			err = fmt.Errorf("executor panic: %v", r)
		}
	}()
	return w.exec.Execute(ctx, w.query)
}
