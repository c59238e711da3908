package services

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Batch kinds
const (
	BatchRecompute       = "recompute"
	BatchRecommendations = "recommendations"
)

// Metrics holds every prometheus collector of the service on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	batchesTotal           *prometheus.CounterVec
	batchDuration          *prometheus.HistogramVec
	playersProcessed       prometheus.Counter
	playersSkipped         prometheus.Counter
	recommendationsCurrent prometheus.Gauge
	cacheRequests          *prometheus.CounterVec
	httpRequests           *prometheus.CounterVec
	httpRequestDuration    *prometheus.HistogramVec
}

// NewMetrics registers the service collectors plus the Go and process
// collectors on a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	auto := promauto.With(registry)

	const namespace = "hoops"

	return &Metrics{
		registry: registry,
		batchesTotal: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analytics",
			Name:      "batches_total",
			Help:      "Analytics batches run, by kind and outcome",
		}, []string{"kind", "status"}),
		batchDuration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analytics",
			Name:      "batch_duration_seconds",
			Help:      "Wall time of analytics batches",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"kind"}),
		playersProcessed: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analytics",
			Name:      "players_processed_total",
			Help:      "Players computed by a batch",
		}),
		playersSkipped: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analytics",
			Name:      "players_skipped_total",
			Help:      "Players skipped by a batch because their input was rejected",
		}),
		recommendationsCurrent: auto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "analytics",
			Name:      "recommendations_generated",
			Help:      "Size of the most recently generated recommendation list",
		}),
		cacheRequests: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "requests_total",
			Help:      "Cache lookups by result",
		}, []string{"result"}),
		httpRequests: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code",
		}, []string{"method", "route", "status"}),
		httpRequestDuration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// ObserveBatch records one finished batch.
func (m *Metrics) ObserveBatch(kind string, err error, elapsed time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.batchesTotal.WithLabelValues(kind, status).Inc()
	m.batchDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// ObservePlayers records per-player outcomes of a batch compute.
func (m *Metrics) ObservePlayers(processed, skipped int) {
	m.playersProcessed.Add(float64(processed))
	m.playersSkipped.Add(float64(skipped))
}

func (m *Metrics) SetRecommendations(n int) {
	m.recommendationsCurrent.Set(float64(n))
}

func (m *Metrics) CacheHit() {
	m.cacheRequests.WithLabelValues("hit").Inc()
}

func (m *Metrics) CacheMiss() {
	m.cacheRequests.WithLabelValues("miss").Inc()
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route, status string, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Registry exposes the underlying registry for tests and custom exporters.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
