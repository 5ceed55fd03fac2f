package loadtest_test

import (
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pairbench/internal/loadtest"
)

func successSample(elapsed time.Duration, records int64) loadtest.Sample {
	return loadtest.Sample{Backend: "a", Success: true, Elapsed: elapsed, Records: records}
}

func failedSample(reason string) loadtest.Sample {
	return loadtest.Sample{Backend: "a", Success: false, Reason: reason}
}

func TestAggregate_KnownDistribution(t *testing.T) {
	var samples []loadtest.Sample
	for i := 1; i <= 10; i++ {
		samples = append(samples, successSample(time.Duration(i)*time.Millisecond, 2))
	}
	samples = append(samples, failedSample("timeout"), failedSample("timeout"))

	s := loadtest.Aggregate("couch", samples, 10*time.Second)

	assert.Equal(t, "couch", s.Backend)
	assert.Equal(t, 12, s.TotalQueries)
	assert.Equal(t, 10, s.SuccessfulQueries)
	assert.Equal(t, 2, s.FailedQueries)
	assert.Equal(t, int64(20), s.TotalRecords)

	assert.Equal(t, 1*time.Millisecond, s.Min)
	assert.Equal(t, 10*time.Millisecond, s.Max)
	assert.Equal(t, 5500*time.Microsecond, s.Avg)
	// Nearest rank: ceil(.5*10)=5, ceil(.95*10)=10, ceil(.99*10)=10
	assert.Equal(t, 5*time.Millisecond, s.Median)
	assert.Equal(t, 10*time.Millisecond, s.P95)
	assert.Equal(t, 10*time.Millisecond, s.P99)

	assert.InDelta(t, 1.0, s.ThroughputQPS, 1e-9)
	assert.InDelta(t, 10.0/12.0, s.SuccessRate, 1e-9)
	assert.Equal(t, []string{"timeout"}, s.Errors)
}

func TestAggregate_IsPure(t *testing.T) {
	samples := []loadtest.Sample{
		successSample(3*time.Millisecond, 1),
		successSample(7*time.Millisecond, 1),
		failedSample("conn refused"),
	}
	first := loadtest.Aggregate("a", samples, time.Second)
	second := loadtest.Aggregate("a", samples, time.Second)
	require.Equal(t, first, second)
}

func TestAggregate_ZeroSuccesses(t *testing.T) {
	samples := []loadtest.Sample{
		failedSample("err one"),
		failedSample("err two"),
		failedSample("err one"),
	}
	s := loadtest.Aggregate("b", samples, 5*time.Second)

	assert.Equal(t, 3, s.TotalQueries)
	assert.Equal(t, 0, s.SuccessfulQueries)
	assert.Zero(t, s.SuccessRate)
	assert.Zero(t, s.ThroughputQPS)
	assert.Zero(t, s.Min)
	assert.Zero(t, s.Max)
	assert.Zero(t, s.Avg)
	assert.Zero(t, s.Median)
	assert.Zero(t, s.P95)
	assert.Zero(t, s.P99)
	assert.ElementsMatch(t, []string{"err one", "err two"}, s.Errors)
}

func TestAggregate_EmptyInput(t *testing.T) {
	s := loadtest.Aggregate("a", nil, time.Second)
	assert.Zero(t, s.TotalQueries)
	assert.Zero(t, s.SuccessRate)
	assert.Zero(t, s.Max)
}

func TestAggregate_ErrorListCappedAndDistinct(t *testing.T) {
	var samples []loadtest.Sample
	for i := 0; i < 30; i++ {
		samples = append(samples, failedSample(fmt.Sprintf("reason %d", i%15)))
	}
	s := loadtest.Aggregate("a", samples, time.Second)
	assert.Len(t, s.Errors, 10)
}

func TestProperty_PercentileMonotonicity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("p50 <= p95 <= p99 <= max for any non-empty success set", prop.ForAll(
		func(elapsedNs []int64) bool {
			if len(elapsedNs) == 0 {
				return true
			}
			samples := make([]loadtest.Sample, 0, len(elapsedNs))
			for _, ns := range elapsedNs {
				samples = append(samples, successSample(time.Duration(ns), 1))
			}
			s := loadtest.Aggregate("a", samples, time.Second)
			return s.Median <= s.P95 && s.P95 <= s.P99 && s.P99 <= s.Max
		},
		gen.SliceOf(gen.Int64Range(1, int64(time.Minute))),
	))

	properties.Property("percentiles are insensitive to insertion order", prop.ForAll(
		func(elapsedNs []int64) bool {
			if len(elapsedNs) < 2 {
				return true
			}
			build := func(ns []int64) []loadtest.Sample {
				out := make([]loadtest.Sample, 0, len(ns))
				for _, v := range ns {
					out = append(out, successSample(time.Duration(v), 1))
				}
				return out
			}
			shuffled := append([]int64(nil), elapsedNs...)
			sort.Slice(shuffled, func(i, j int) bool { return shuffled[i] > shuffled[j] })

			a := loadtest.Aggregate("x", build(elapsedNs), time.Second)
			b := loadtest.Aggregate("x", build(shuffled), time.Second)
			return a.Median == b.Median && a.P95 == b.P95 && a.P99 == b.P99
		},
		gen.SliceOf(gen.Int64Range(1, int64(time.Minute))),
	))

	properties.TestingRun(t)
}
