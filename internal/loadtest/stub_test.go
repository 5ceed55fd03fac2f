package loadtest_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"pairbench/internal/loadtest"
)

// stubExecutor is a deterministic in-memory backend for engine tests.
type stubExecutor struct {
	provider *stubProvider

	delay    time.Duration
	err      error
	panicMsg string
	records  int64
}

func (e *stubExecutor) Execute(ctx context.Context, q loadtest.Query) (int64, error) {
	if e.panicMsg != "" {
		panic(e.panicMsg)
	}
	if e.delay > 0 {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(e.delay):
		}
	}
	if e.err != nil {
		return 0, e.err
	}
	return e.records, nil
}

func (e *stubExecutor) Close() error {
	atomic.AddInt32(&e.provider.closed, 1)
	return nil
}

// stubProvider tracks handle lifecycles so tests can assert that every
// acquired executor gets released.
type stubProvider struct {
	delay    time.Duration
	err      error
	panicMsg string
	records  int64

	// Acquire fails once maxHandles have been handed out (0 = unlimited).
	maxHandles int32
	// Acquire fails this many times before succeeding.
	failFirst int32

	acquired int32
	closed   int32
	failures int32
}

var errNoHandles = errors.New("no executor handles available")

func (p *stubProvider) Acquire(ctx context.Context) (loadtest.QueryExecutor, error) {
	if p.failFirst > 0 && atomic.AddInt32(&p.failures, 1) <= p.failFirst {
		return nil, errNoHandles
	}
	if p.maxHandles > 0 && atomic.LoadInt32(&p.acquired) >= p.maxHandles {
		return nil, errNoHandles
	}
	atomic.AddInt32(&p.acquired, 1)
	return &stubExecutor{
		provider: p,
		delay:    p.delay,
		err:      p.err,
		panicMsg: p.panicMsg,
		records:  p.records,
	}, nil
}

func target(name string, p *stubProvider) loadtest.BackendTarget {
	return loadtest.BackendTarget{Name: name, Provider: p}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
