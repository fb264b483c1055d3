// Package observability holds the Prometheus collectors shared by the service.
package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cache outcomes.
const (
	OutcomeHit   = "hit"
	OutcomeMiss  = "miss"
	OutcomeStale = "stale"
	OutcomeError = "error"
)

var (
	cacheResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "city_explorer_cache_results_total",
			Help: "Resource cache reads by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	locationResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "city_explorer_location_resolutions_total",
			Help: "Location resolutions by outcome.",
		},
		[]string{"outcome"},
	)

	upstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "city_explorer_upstream_requests_total",
			Help: "Upstream provider calls by result.",
		},
		[]string{"provider", "result"},
	)

	upstreamLatencySeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "city_explorer_upstream_latency_seconds",
			Help:    "Latency of upstream provider calls in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~20s
		},
		[]string{"provider"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "city_explorer_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "city_explorer_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)
)

func ObserveCache(kind, outcome string) {
	cacheResults.WithLabelValues(kind, outcome).Inc()
}

func ObserveResolution(outcome string) {
	locationResolutions.WithLabelValues(outcome).Inc()
}

func ObserveUpstream(provider string, err error, durationSeconds float64) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	upstreamRequests.WithLabelValues(provider, result).Inc()
	upstreamLatencySeconds.WithLabelValues(provider).Observe(durationSeconds)
}

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(durationSeconds)
}
