package loadtest

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Entry is one scenario's outcome: the parameters it ran under plus one
// summary per backend. Err is set when the scenario never ran (setup
// failure), which keeps a skipped scenario distinguishable from one
// that ran and measured zeros.
type Entry struct {
	Spec ScenarioSpec `json:"spec"`
	A    Summary      `json:"a"`
	B    Summary      `json:"b"`
	Err  string       `json:"error,omitempty"`
}

func (e Entry) Skipped() bool { return e.Err != "" }

// Report is the full comparison for one target bucket/collection,
// ordered by ascending user count. Immutable once Run returns it.
type Report struct {
	ID         string    `json:"id"`
	Target     string    `json:"target"`
	BackendA   string    `json:"backend_a"`
	BackendB   string    `json:"backend_b"`
	Query      Query     `json:"query"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Entries    []Entry   `json:"entries"`
}

// SampleSink observes each backend's raw samples after a scenario
// completes, before they are discarded. Used for artifact export.
type SampleSink func(spec ScenarioSpec, backend string, samples []Sample)

// EngineConfig drives one full comparison matrix for a single target.
type EngineConfig struct {
	Target     string
	UserCounts []int
	Query      Query
	Duration   time.Duration
	ThinkTime  time.Duration

	// Pause between scenarios so one run's connection teardown does
	// not bleed into the next measurement.
	SettleDelay time.Duration

	// Setup failures fail fast by default; retries with a fixed
	// backoff are opt-in.
	SetupRetries int
	SetupBackoff time.Duration
}

// Engine runs the scenario matrix sequentially, aggregates each pair
// of collectors, and assembles the ComparisonReport.
type Engine struct {
	cfg    EngineConfig
	a, b   BackendTarget
	runner *ScenarioRunner
	log    *slog.Logger
	sink   SampleSink
}

func NewEngine(cfg EngineConfig, a, b BackendTarget, runner *ScenarioRunner, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{cfg: cfg, a: a, b: b, runner: runner, log: log}
}

// WithSampleSink registers a raw-sample observer. Must be called before Run.
func (e *Engine) WithSampleSink(sink SampleSink) *Engine {
	e.sink = sink
	return e
}

// Run executes one scenario per configured user count, in ascending
// order. A scenario whose setup fails is recorded as skipped and the
// matrix continues; only context cancellation aborts the whole run.
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	counts := append([]int(nil), e.cfg.UserCounts...)
	sort.Ints(counts)

	report := &Report{
		ID:        uuid.New().String(),
		Target:    e.cfg.Target,
		BackendA:  e.a.Name,
		BackendB:  e.b.Name,
		Query:     e.cfg.Query,
		StartedAt: time.Now(),
		Entries:   make([]Entry, 0, len(counts)),
	}

	for i, users := range counts {
		if err := ctx.Err(); err != nil {
			report.FinishedAt = time.Now()
			return report, err
		}

		spec := ScenarioSpec{
			Users:     users,
			Query:     e.cfg.Query,
			Duration:  e.cfg.Duration,
			ThinkTime: e.cfg.ThinkTime,
		}

		entry := e.runScenario(ctx, spec)
		report.Entries = append(report.Entries, entry)

		if i < len(counts)-1 && e.cfg.SettleDelay > 0 {
			e.log.Debug("settling before next scenario", "delay", e.cfg.SettleDelay)
			select {
			case <-ctx.Done():
				report.FinishedAt = time.Now()
				return report, ctx.Err()
			case <-time.After(e.cfg.SettleDelay):
			}
		}
	}

	report.FinishedAt = time.Now()
	return report, nil
}

func (e *Engine) runScenario(ctx context.Context, spec ScenarioSpec) Entry {
	entry := Entry{Spec: spec}

	res, err := e.runWithRetry(ctx, spec)
	if err != nil {
		e.log.Error("scenario skipped",
			"target", e.cfg.Target, "users", spec.Users, "error", err)
		entry.Err = err.Error()
		return entry
	}

	samplesA := res.A.Drain()
	samplesB := res.B.Drain()
	if e.sink != nil {
		e.sink(spec, e.a.Name, samplesA)
		e.sink(spec, e.b.Name, samplesB)
	}

	entry.A = Aggregate(e.a.Name, samplesA, res.Wall)
	entry.B = Aggregate(e.b.Name, samplesB, res.Wall)
	return entry
}

func (e *Engine) runWithRetry(ctx context.Context, spec ScenarioSpec) (*RunResult, error) {
	var lastErr error
	for attempt := 0; attempt <= e.cfg.SetupRetries; attempt++ {
		if attempt > 0 {
			e.log.Warn("retrying scenario setup",
				"users", spec.Users, "attempt", attempt, "error", lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(e.cfg.SetupBackoff):
			}
		}
		res, err := e.runner.Run(ctx, e.cfg.Target, spec, e.a, e.b)
		if err == nil {
			return res, nil
		}
		lastErr = err
		if !errors.Is(err, ErrScenarioSetup) {
			return nil, err
		}
	}
	return nil, lastErr
}
