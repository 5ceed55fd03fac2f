package loadtest

import (
	"math"
	"sort"
	"time"
)

const maxReportedErrors = 10

// Summary reduces one backend's samples from one scenario into
// comparable metrics. It is a pure function of the drained sample set
// and the measured wall-clock duration; latency fields cover
// successful samples only and are zero when nothing succeeded.
type Summary struct {
	Backend string `json:"backend"`

	TotalQueries      int   `json:"total_queries"`
	SuccessfulQueries int   `json:"successful_queries"`
	FailedQueries     int   `json:"failed_queries"`
	TotalRecords      int64 `json:"total_records_returned"`

	Min    time.Duration `json:"min_response_time_ns"`
	Max    time.Duration `json:"max_response_time_ns"`
	Avg    time.Duration `json:"avg_response_time_ns"`
	Median time.Duration `json:"median_response_time_ns"`
	P95    time.Duration `json:"p95_response_time_ns"`
	P99    time.Duration `json:"p99_response_time_ns"`

	ThroughputQPS float64 `json:"throughput_qps"`
	SuccessRate   float64 `json:"success_rate"`

	// First few distinct failure reasons, for the report.
	Errors []string `json:"errors,omitempty"`
}

// Aggregate computes the Summary for one backend's drained samples.
// wall is the scenario's measured wall-clock duration (join barrier to
// join barrier), the denominator for throughput.
func Aggregate(backend string, samples []Sample, wall time.Duration) Summary {
	s := Summary{Backend: backend, TotalQueries: len(samples)}

	elapsed := make([]time.Duration, 0, len(samples))
	seen := make(map[string]struct{})
	for _, smp := range samples {
		if smp.Success {
			s.SuccessfulQueries++
			s.TotalRecords += smp.Records
			elapsed = append(elapsed, smp.Elapsed)
			continue
		}
		s.FailedQueries++
		if _, dup := seen[smp.Reason]; !dup && len(s.Errors) < maxReportedErrors {
			seen[smp.Reason] = struct{}{}
			s.Errors = append(s.Errors, smp.Reason)
		}
	}

	if s.TotalQueries > 0 {
		s.SuccessRate = float64(s.SuccessfulQueries) / float64(s.TotalQueries)
	}
	if wall > 0 {
		s.ThroughputQPS = float64(s.SuccessfulQueries) / wall.Seconds()
	}

	if len(elapsed) == 0 {
		return s
	}

	sort.Slice(elapsed, func(i, j int) bool { return elapsed[i] < elapsed[j] })

	var sum time.Duration
	for _, d := range elapsed {
		sum += d
	}
	s.Min = elapsed[0]
	s.Max = elapsed[len(elapsed)-1]
	s.Avg = sum / time.Duration(len(elapsed))
	s.Median = nearestRank(elapsed, 0.50)
	s.P95 = nearestRank(elapsed, 0.95)
	s.P99 = nearestRank(elapsed, 0.99)
	return s
}

// nearestRank picks rank ceil(p*n) from the ascending sequence. Ties
// do not matter: the rank addresses the sorted multiset, not insertion
// order.
func nearestRank(sorted []time.Duration, p float64) time.Duration {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	rank := int(math.Ceil(p * float64(n)))
	if rank < 1 {
		rank = 1
	}
	if rank > n {
		rank = n
	}
	return sorted[rank-1]
}
