package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pairbench/internal/loadtest"
)

// Prometheus implements loadtest.MetricsReporter and optionally serves
// the scrape endpoint while a comparison run is in flight.
type Prometheus struct {
	queryDuration *prometheus.HistogramVec
	queryTotal    *prometheus.CounterVec
	workers       *prometheus.GaugeVec
	scenarioUsers *prometheus.GaugeVec

	registry *prometheus.Registry
	server   *http.Server
}

var _ loadtest.MetricsReporter = (*Prometheus)(nil)

func NewPrometheus() *Prometheus {
	registry := prometheus.NewRegistry()

	m := &Prometheus{
		queryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pairbench_query_duration_seconds",
				Help:    "Duration of individual benchmark queries",
				Buckets: prometheus.ExponentialBuckets(0.0005, 2, 16), // 0.5ms to ~16s
			},
			[]string{"backend", "query_type", "status"},
		),
		queryTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pairbench_queries_total",
				Help: "Total number of benchmark queries issued",
			},
			[]string{"backend", "query_type", "status"},
		),
		workers: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pairbench_workers",
				Help: "Currently running simulated users",
			},
			[]string{"backend"},
		),
		scenarioUsers: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pairbench_scenario_users",
				Help: "User count of the scenario currently running (0 when idle)",
			},
			[]string{"target"},
		),
		registry: registry,
	}

	registry.MustRegister(m.queryDuration, m.queryTotal, m.workers, m.scenarioUsers)
	return m
}

func (m *Prometheus) RecordQuery(backend string, query loadtest.QueryType, elapsed time.Duration, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	m.queryDuration.WithLabelValues(backend, string(query), status).Observe(elapsed.Seconds())
	m.queryTotal.WithLabelValues(backend, string(query), status).Inc()
}

func (m *Prometheus) RecordWorkers(backend string, delta int) {
	m.workers.WithLabelValues(backend).Add(float64(delta))
}

func (m *Prometheus) RecordScenario(target string, users int, running bool) {
	if running {
		m.scenarioUsers.WithLabelValues(target).Set(float64(users))
	} else {
		m.scenarioUsers.WithLabelValues(target).Set(0)
	}
}

// Serve exposes /metrics on addr until Stop is called.
func (m *Prometheus) Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	m.server = &http.Server{Addr: addr, Handler: mux}

	go func() {
		// ErrServerClosed is the normal shutdown path.
		_ = m.server.ListenAndServe()
	}()
	return nil
}

func (m *Prometheus) Stop(ctx context.Context) error {
	if m.server == nil {
		return nil
	}
	return m.server.Shutdown(ctx)
}
