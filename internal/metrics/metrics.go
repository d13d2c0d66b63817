// Package metrics exposes Prometheus collectors for the resolver service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	resolutionsTotal       *prometheus.CounterVec
	cacheLookupsTotal      *prometheus.CounterVec
	stageDurationSeconds   *prometheus.HistogramVec
	registrySweepCalls     prometheus.Counter
	registrySweepHitsTotal *prometheus.CounterVec
	httpRequestsTotal      *prometheus.CounterVec
	httpRequestDuration    *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		resolutionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edital_resolutions_total",
				Help: "Total resolutions, labeled by extraction method.",
			},
			[]string{"method"},
		)

		cacheLookupsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edital_cache_lookups_total",
				Help: "Cache lookups, labeled by outcome (hit, miss, expired).",
			},
			[]string{"outcome"},
		)

		stageDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "edital_stage_duration_seconds",
				Help:    "Histogram of pipeline stage latencies, labeled by stage.",
				Buckets: []float64{0.05, 0.25, 1, 5, 15, 60, 180},
			},
			[]string{"stage"},
		)

		registrySweepCalls = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "edital_registry_sweep_calls_total",
				Help: "Total publication-search calls issued by registry sweeps.",
			},
		)

		registrySweepHitsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edital_registry_sweep_hits_total",
				Help: "Registry sweep outcomes, labeled by lookup kind.",
			},
			[]string{"kind"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveResolution records one completed resolution by method.
func ObserveResolution(method string) {
	resolutionsTotal.WithLabelValues(method).Inc()
}

// ObserveCacheLookup records one cache lookup outcome.
func ObserveCacheLookup(outcome string) {
	cacheLookupsTotal.WithLabelValues(outcome).Inc()
}

// ObserveStage records the duration of one pipeline stage.
func ObserveStage(stage string, duration time.Duration) {
	stageDurationSeconds.WithLabelValues(stage).Observe(duration.Seconds())
}

// ObserveSweepCall counts one publication-search request.
func ObserveSweepCall() {
	registrySweepCalls.Inc()
}

// ObserveSweepHit counts a successful sweep lookup by kind.
func ObserveSweepHit(kind string) {
	registrySweepHitsTotal.WithLabelValues(kind).Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
