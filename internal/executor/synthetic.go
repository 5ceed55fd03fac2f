package executor

import (
	"context"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"pairbench/internal/loadtest"
)

// SyntheticConfig shapes the simulated backend.
type SyntheticConfig struct {
	// BaseLatency plus up to Jitter of uniform noise per query.
	BaseLatency time.Duration
	Jitter      time.Duration

	// Fraction of queries in [0,1] that fail.
	FailureRate float64

	// Record count reported by successful queries.
	Records int64

	// MaxHandles caps concurrent executors; 0 means unlimited. Lets
	// dry runs exercise the scenario-skip path at high user counts.
	MaxHandles int64
}

// SyntheticProvider is an in-process stand-in for a real backend, used
// for dry runs and demos without any database at hand.
type SyntheticProvider struct {
	cfg  SyntheticConfig
	open int64
	seed int64
}

func NewSyntheticProvider(cfg SyntheticConfig) *SyntheticProvider {
	return &SyntheticProvider{cfg: cfg, seed: time.Now().UnixNano()}
}

func (p *SyntheticProvider) Acquire(ctx context.Context) (loadtest.QueryExecutor, error) {
	if p.cfg.MaxHandles > 0 && atomic.AddInt64(&p.open, 1) > p.cfg.MaxHandles {
		atomic.AddInt64(&p.open, -1)
		return nil, fmt.Errorf("handle limit %d reached", p.cfg.MaxHandles)
	}
	seed := atomic.AddInt64(&p.seed, 1)
	return &syntheticExecutor{provider: p, rng: rand.New(rand.NewSource(seed))}, nil
}

type syntheticExecutor struct {
	provider *SyntheticProvider
	rng      *rand.Rand
	closed   bool
}

func (e *syntheticExecutor) Execute(ctx context.Context, q loadtest.Query) (int64, error) {
	cfg := e.provider.cfg

	delay := cfg.BaseLatency
	if cfg.Jitter > 0 {
		delay += time.Duration(e.rng.Int63n(int64(cfg.Jitter)))
	}
	if delay > 0 {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(delay):
		}
	}

	if cfg.FailureRate > 0 && e.rng.Float64() < cfg.FailureRate {
		return 0, fmt.Errorf("simulated backend error")
	}
	if q.Type == loadtest.QueryCount {
		return cfg.Records, nil
	}
	n := cfg.Records
	if n > pageSize {
		n = pageSize
	}
	return n, nil
}

func (e *syntheticExecutor) Close() error {
	if !e.closed {
		e.closed = true
		if e.provider.cfg.MaxHandles > 0 {
			atomic.AddInt64(&e.provider.open, -1)
		}
	}
	return nil
}
