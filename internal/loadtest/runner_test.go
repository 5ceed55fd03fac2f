package loadtest_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pairbench/internal/loadtest"
)

func newRunner() *loadtest.ScenarioRunner {
	return loadtest.NewScenarioRunner(discardLogger(), nil, nil)
}

func singleShotSpec(users int) loadtest.ScenarioSpec {
	return loadtest.ScenarioSpec{
		Users: users,
		Query: loadtest.Query{Type: loadtest.QueryCount},
	}
}

func TestScenarioRunner_SingleShotOneSamplePerUser(t *testing.T) {
	provA := &stubProvider{records: 5}
	provB := &stubProvider{records: 7}

	res, err := newRunner().Run(context.Background(), "orders", singleShotSpec(10),
		target("a", provA), target("b", provB))
	require.NoError(t, err)

	samplesA := res.A.Drain()
	samplesB := res.B.Drain()
	assert.Len(t, samplesA, 10)
	assert.Len(t, samplesB, 10)
	for _, s := range samplesA {
		assert.True(t, s.Success)
		assert.Equal(t, int64(5), s.Records)
		assert.Equal(t, "a", s.Backend)
	}
	assert.Positive(t, res.Wall)
}

func TestScenarioRunner_DurationBounds(t *testing.T) {
	provA := &stubProvider{records: 1, delay: 20 * time.Millisecond}
	provB := &stubProvider{records: 1, delay: 20 * time.Millisecond}

	spec := loadtest.ScenarioSpec{
		Users:    4,
		Query:    loadtest.Query{Type: loadtest.QuerySelectAll},
		Duration: 150 * time.Millisecond,
	}

	res, err := newRunner().Run(context.Background(), "orders", spec,
		target("a", provA), target("b", provB))
	require.NoError(t, err)

	// Wall clock covers the window plus at most one in-flight query.
	assert.GreaterOrEqual(t, res.Wall, 150*time.Millisecond)
	assert.Less(t, res.Wall, 500*time.Millisecond)

	// Each worker got through several iterations.
	assert.GreaterOrEqual(t, len(res.A.Drain()), 4*2)
}

func TestScenarioRunner_FailuresDoNotStopWorkers(t *testing.T) {
	provA := &stubProvider{err: errors.New("connection reset"), delay: 5 * time.Millisecond}
	provB := &stubProvider{records: 1, delay: 5 * time.Millisecond}

	spec := loadtest.ScenarioSpec{
		Users:    3,
		Query:    loadtest.Query{Type: loadtest.QueryCount},
		Duration: 100 * time.Millisecond,
	}

	res, err := newRunner().Run(context.Background(), "orders", spec,
		target("a", provA), target("b", provB))
	require.NoError(t, err)

	samples := res.A.Drain()
	// Failing workers kept looping for the whole window.
	assert.Greater(t, len(samples), 3)
	for _, s := range samples {
		assert.False(t, s.Success)
		assert.Equal(t, "connection reset", s.Reason)
	}
}

func TestScenarioRunner_PanicBecomesFailureSample(t *testing.T) {
	provA := &stubProvider{panicMsg: "index out of range"}
	provB := &stubProvider{records: 1}

	res, err := newRunner().Run(context.Background(), "orders", singleShotSpec(5),
		target("a", provA), target("b", provB))
	require.NoError(t, err)

	samples := res.A.Drain()
	require.Len(t, samples, 5)
	for _, s := range samples {
		assert.False(t, s.Success)
		assert.Contains(t, s.Reason, "executor panic")
	}
	// The other backend is unaffected.
	assert.Len(t, res.B.Drain(), 5)
}

func TestScenarioRunner_SetupFailureReleasesAcquiredHandles(t *testing.T) {
	provA := &stubProvider{records: 1}
	provB := &stubProvider{maxHandles: 3}

	_, err := newRunner().Run(context.Background(), "orders", singleShotSpec(10),
		target("a", provA), target("b", provB))
	require.Error(t, err)
	assert.ErrorIs(t, err, loadtest.ErrScenarioSetup)

	// Everything handed out was closed again, on both sides.
	assert.Equal(t, atomic.LoadInt32(&provA.acquired), atomic.LoadInt32(&provA.closed))
	assert.Equal(t, atomic.LoadInt32(&provB.acquired), atomic.LoadInt32(&provB.closed))
}

func TestScenarioRunner_HandlesReleasedAfterRun(t *testing.T) {
	provA := &stubProvider{records: 1}
	provB := &stubProvider{records: 1}

	_, err := newRunner().Run(context.Background(), "orders", singleShotSpec(8),
		target("a", provA), target("b", provB))
	require.NoError(t, err)

	assert.Equal(t, int32(8), atomic.LoadInt32(&provA.closed))
	assert.Equal(t, int32(8), atomic.LoadInt32(&provB.closed))
}

func TestScenarioRunner_InvalidSpec(t *testing.T) {
	_, err := newRunner().Run(context.Background(), "orders",
		loadtest.ScenarioSpec{Users: 0, Query: loadtest.Query{Type: loadtest.QueryCount}},
		target("a", &stubProvider{}), target("b", &stubProvider{}))
	assert.ErrorIs(t, err, loadtest.ErrScenarioSetup)
}

// The reference scenario: one backend answers in ~5ms with one record,
// the other always fails.
func TestScenarioRunner_EndToEndComparison(t *testing.T) {
	provA := &stubProvider{records: 1, delay: 5 * time.Millisecond}
	provB := &stubProvider{err: errors.New("auth failed")}

	res, err := newRunner().Run(context.Background(), "orders", singleShotSpec(10),
		target("couch", provA), target("mongo", provB))
	require.NoError(t, err)

	sumA := loadtest.Aggregate("couch", res.A.Drain(), res.Wall)
	sumB := loadtest.Aggregate("mongo", res.B.Drain(), res.Wall)

	assert.Equal(t, 10, sumA.TotalQueries)
	assert.InDelta(t, 1.0, sumA.SuccessRate, 1e-9)
	assert.Equal(t, int64(10), sumA.TotalRecords)
	assert.InDelta(t, float64(5*time.Millisecond), float64(sumA.Avg), float64(15*time.Millisecond))

	assert.Equal(t, 10, sumB.TotalQueries)
	assert.Zero(t, sumB.SuccessRate)
	assert.Zero(t, sumB.Avg)
	assert.Zero(t, sumB.P99)
	assert.Equal(t, []string{"auth failed"}, sumB.Errors)
}
