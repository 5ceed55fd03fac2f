package loadtest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"pairbench/internal/stats"
)

// ErrScenarioSetup marks failures before any worker ran, e.g. the
// backend refused to hand out the requested number of executor handles.
var ErrScenarioSetup = errors.New("scenario setup failed")

// Snapshot is a cheap copy of live run state, pushed to the UI.
type Snapshot struct {
	Target  string
	Users   int
	Elapsed time.Duration
	Total   time.Duration

	A stats.View
	B stats.View
}

// SnapshotChan carries non-blocking live updates; slow consumers drop frames.
type SnapshotChan chan Snapshot

// RunResult holds both filled collectors of one scenario plus the
// wall-clock span from first worker start to last worker join.
type RunResult struct {
	A    *SampleCollector
	B    *SampleCollector
	Wall time.Duration
}

// ScenarioRunner orchestrates a single scenario: it acquires executor
// handles for both backends, launches the workers concurrently, and
// joins them all before handing the collectors back.
type ScenarioRunner struct {
	log     *slog.Logger
	metrics MetricsReporter
	updates SnapshotChan

	liveA *stats.Live
	liveB *stats.Live
}

func NewScenarioRunner(log *slog.Logger, metrics MetricsReporter, updates SnapshotChan) *ScenarioRunner {
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &ScenarioRunner{
		log:     log,
		metrics: metrics,
		updates: updates,
		liveA:   stats.NewLive(),
		liveB:   stats.NewLive(),
	}
}

// Run executes one scenario against both backends at once, so the two
// sides are measured under the same contention rather than back to back.
func (r *ScenarioRunner) Run(ctx context.Context, target string, spec ScenarioSpec, a, b BackendTarget) (*RunResult, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScenarioSetup, err)
	}

	execsA, err := acquireAll(ctx, a.Provider, spec.Users)
	if err != nil {
		return nil, fmt.Errorf("%w: backend %s: %v", ErrScenarioSetup, a.Name, err)
	}
	execsB, err := acquireAll(ctx, b.Provider, spec.Users)
	if err != nil {
		releaseAll(r.log, a.Name, execsA)
		return nil, fmt.Errorf("%w: backend %s: %v", ErrScenarioSetup, b.Name, err)
	}
	defer releaseAll(r.log, a.Name, execsA)
	defer releaseAll(r.log, b.Name, execsB)

	collA := NewSampleCollector(spec.Users)
	collB := NewSampleCollector(spec.Users)
	r.liveA.Reset()
	r.liveB.Reset()

	r.log.Info("scenario starting",
		"target", target, "users", spec.Users,
		"query", spec.Query.Type, "duration", spec.Duration)
	r.metrics.RecordScenario(target, spec.Users, true)
	defer r.metrics.RecordScenario(target, spec.Users, false)

	tickCtx, stopTicks := context.WithCancel(context.Background())
	defer stopTicks()

	var wg sync.WaitGroup
	start := time.Now()
	deadline := start.Add(spec.Duration)
	single := spec.Duration == 0

	r.startTickLoop(tickCtx, target, spec, a.Name, b.Name, start)

	spawn := func(backend string, execs []QueryExecutor, coll *SampleCollector, live *stats.Live) {
		for _, exec := range execs {
			w := &clientWorker{
				backend:   backend,
				exec:      exec,
				query:     spec.Query,
				thinkTime: spec.ThinkTime,
				collector: coll,
				live:      live,
				metrics:   r.metrics,
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				w.run(ctx, deadline, single)
			}()
		}
	}
	spawn(a.Name, execsA, collA, r.liveA)
	spawn(b.Name, execsB, collB, r.liveB)

	wg.Wait()
	wall := time.Since(start)

	r.sendSnapshot(target, spec, a.Name, b.Name, wall)
	r.log.Info("scenario finished",
		"target", target, "users", spec.Users,
		"wall", wall.Round(time.Millisecond),
		"samples_a", collA.Count(), "samples_b", collB.Count())

	return &RunResult{A: collA, B: collB, Wall: wall}, nil
}

func (r *ScenarioRunner) startTickLoop(ctx context.Context, target string, spec ScenarioSpec, nameA, nameB string, start time.Time) {
	if r.updates == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(200 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.sendSnapshot(target, spec, nameA, nameB, time.Since(start))
			}
		}
	}()
}

func (r *ScenarioRunner) sendSnapshot(target string, spec ScenarioSpec, nameA, nameB string, elapsed time.Duration) {
	if r.updates == nil {
		return
	}
	s := Snapshot{
		Target:  target,
		Users:   spec.Users,
		Elapsed: elapsed,
		Total:   spec.Duration,
		A:       r.liveA.View(nameA),
		B:       r.liveB.View(nameB),
	}
	select {
	case r.updates <- s:
	default:
		// Drop update if channel full, UI acts as backpressure
	}
}

func acquireAll(ctx context.Context, p ExecutorProvider, n int) ([]QueryExecutor, error) {
	execs := make([]QueryExecutor, 0, n)
	for i := 0; i < n; i++ {
		exec, err := p.Acquire(ctx)
		if err != nil {
			for _, e := range execs {
				e.Close()
			}
			return nil, fmt.Errorf("handle %d/%d: %w", i+1, n, err)
		}
		execs = append(execs, exec)
	}
	return execs, nil
}

func releaseAll(log *slog.Logger, backend string, execs []QueryExecutor) {
	for _, e := range execs {
		if err := e.Close(); err != nil {
			log.Warn("executor close failed", "backend", backend, "error", err)
		}
	}
}
