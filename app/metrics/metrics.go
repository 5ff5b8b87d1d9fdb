// Package metrics provides Prometheus metrics for Navius.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "navius"

var (
	// HTTPRequestsTotal counts handled requests.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration measures request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// ReliabilityRequestsTotal counts requests by reliability outcome.
	ReliabilityRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reliability_requests_total",
			Help:      "Total number of requests by reliability outcome",
		},
		[]string{"outcome"},
	)

	// ReliabilityRetriesTotal counts retried upstream calls.
	ReliabilityRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reliability_retries_total",
			Help:      "Total number of retry attempts",
		},
	)

	// UpstreamRequestsTotal counts outbound calls by service and outcome.
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Total number of upstream calls by outcome",
		},
		[]string{"service", "outcome"},
	)

	// CircuitBreakerState tracks breaker state (0 = closed, 1 = half-open, 2 = open).
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0 = closed, 1 = half-open, 2 = open)",
		},
		[]string{"name"},
	)

	// InFlightRequests tracks requests holding a concurrency slot.
	InFlightRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reliability_in_flight",
			Help:      "Number of requests currently in flight",
		},
	)

	// CacheLookupsTotal counts cache lookups by resource type and result.
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Total number of cache lookups",
		},
		[]string{"resource", "result"},
	)

	// HealthComponentStatus tracks each health component (1 = up, 0 = not up).
	HealthComponentStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "health_component_up",
			Help:      "Health component status (1 = up, 0 = not up)",
		},
		[]string{"component"},
	)
)

// RecordHTTPRequest records a handled request.
func RecordHTTPRequest(method, route string, status int, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration)
}

// RecordCacheHit records a cache hit for a resource type.
func RecordCacheHit(resource string) {
	CacheLookupsTotal.WithLabelValues(resource, "hit").Inc()
}

// RecordCacheMiss records a cache miss for a resource type.
func RecordCacheMiss(resource string) {
	CacheLookupsTotal.WithLabelValues(resource, "miss").Inc()
}

// SetComponentUp sets a health component gauge.
func SetComponentUp(component string, up bool) {
	v := 0.0
	if up {
		v = 1
	}
	HealthComponentStatus.WithLabelValues(component).Set(v)
}
