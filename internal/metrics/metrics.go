// Package metrics exposes Prometheus collectors for filter passes, catalog
// fetches, sessions and HTTP requests.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "distrocompare"

// Metrics holds every collector on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	evaluations    prometheus.Counter
	evalDuration   prometheus.Histogram
	filteredRatio  prometheus.Histogram
	fetchFailures  *prometheus.CounterVec
	activeSessions prometheus.Gauge
	catalogRecords prometheus.Gauge
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

// New registers the collectors, plus the Go and process collectors, on a
// fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		evaluations: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Filter passes run.",
		}),
		evalDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "evaluation_duration_seconds",
			Help:      "Duration of a filter, score and sort pass.",
			Buckets:   []float64{.0001, .00025, .0005, .001, .0025, .005, .01, .025, .05},
		}),
		filteredRatio: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "evaluation_filtered_ratio",
			Help:      "Share of the catalog left visible by a filter pass.",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		}),
		fetchFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_fetch_failures_total",
			Help:      "Catalog documents that failed to load, by kind.",
		}, []string{"kind"}),
		activeSessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Open filter sessions.",
		}),
		catalogRecords: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_records",
			Help:      "Records in the loaded catalog.",
		}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern and status.",
		}, []string{"route", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// ObserveEvaluation implements catalog.Observer.
func (m *Metrics) ObserveEvaluation(d time.Duration, filtered, total int) {
	m.evaluations.Inc()
	m.evalDuration.Observe(d.Seconds())
	if total > 0 {
		m.filteredRatio.Observe(float64(filtered) / float64(total))
	}
}

// ObserveFetchFailure implements loader.FailureObserver.
func (m *Metrics) ObserveFetchFailure(kind string) {
	m.fetchFailures.WithLabelValues(kind).Inc()
}

// ObserveRequest implements server.RequestObserver.
func (m *Metrics) ObserveRequest(route string, status int, d time.Duration) {
	m.httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

// SetActiveSessions is a session count hook.
func (m *Metrics) SetActiveSessions(n int) {
	m.activeSessions.Set(float64(n))
}

// SetCatalogRecords records the size of the loaded catalog.
func (m *Metrics) SetCatalogRecords(n int) {
	m.catalogRecords.Set(float64(n))
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// RegisterRoutes implements server.RouteRegistrar.
func (m *Metrics) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("GET /metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
