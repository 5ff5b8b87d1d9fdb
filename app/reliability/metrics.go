package reliability

import (
	"net/http"
	"sync/atomic"

	"navius/app/metrics"
)

// Outcome labels for navius_reliability_requests_total.
const (
	OutcomeSuccessful    = "successful"
	OutcomeClientError   = "client_error"
	OutcomeServerError   = "server_error"
	OutcomeRateLimited   = "rate_limited"
	OutcomeCircuitBroken = "circuit_broken"
	OutcomeTimeout       = "timeout"
	OutcomeTransport     = "transport_error"
)

// Metrics counts request outcomes locally for snapshots and exports them to
// the Prometheus collectors in app/metrics. Inbound requests land in exactly
// one of successful, client, server or timeout; upstream calls are counted
// separately and never affect ErrorRate.
type Metrics struct {
	total         atomic.Uint64
	successful    atomic.Uint64
	clientErrors  atomic.Uint64
	serverErrors  atomic.Uint64
	rateLimited   atomic.Uint64
	circuitBroken atomic.Uint64
	timeouts      atomic.Uint64
	retries       atomic.Uint64

	upstreamTotal    atomic.Uint64
	upstreamFailures atomic.Uint64
}

// MetricsSnapshot is a point-in-time copy of the counters
type MetricsSnapshot struct {
	Total         uint64  `json:"total_requests"`
	Successful    uint64  `json:"successful_requests"`
	ClientErrors  uint64  `json:"client_errors"`
	ServerErrors  uint64  `json:"server_errors"`
	RateLimited   uint64  `json:"rate_limited"`
	CircuitBroken uint64  `json:"circuit_broken"`
	Timeouts      uint64  `json:"timeouts"`
	Retries       uint64  `json:"retries"`
	ErrorRate     float64 `json:"error_rate"`

	UpstreamRequests uint64 `json:"upstream_requests"`
	UpstreamFailures uint64 `json:"upstream_failures"`
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) inc(counter *atomic.Uint64, outcome string) {
	counter.Add(1)
	metrics.ReliabilityRequestsTotal.WithLabelValues(outcome).Inc()
}

// RecordStatus classifies a response status. 429 also counts as a client
// error and 503 also counts as a server error.
func (m *Metrics) RecordStatus(code int) {
	m.total.Add(1)

	switch {
	case code >= 200 && code < 300:
		m.inc(&m.successful, OutcomeSuccessful)
	case code == http.StatusTooManyRequests:
		m.inc(&m.rateLimited, OutcomeRateLimited)
		m.inc(&m.clientErrors, OutcomeClientError)
	case code >= 400 && code < 500:
		m.inc(&m.clientErrors, OutcomeClientError)
	case code == http.StatusServiceUnavailable:
		m.inc(&m.circuitBroken, OutcomeCircuitBroken)
		m.inc(&m.serverErrors, OutcomeServerError)
	case code >= 500:
		m.inc(&m.serverErrors, OutcomeServerError)
	}
}

// RecordTimeout counts an inbound request that hit its deadline. The request
// must not also be passed to RecordStatus.
func (m *Metrics) RecordTimeout() {
	m.total.Add(1)
	m.inc(&m.timeouts, OutcomeTimeout)
}

// RecordUpstream classifies the response of an outbound call to service
func (m *Metrics) RecordUpstream(service string, code int) {
	outcome := OutcomeSuccessful
	switch {
	case code >= 500:
		outcome = OutcomeServerError
	case code >= 400:
		outcome = OutcomeClientError
	case code < 200 || code >= 300:
		outcome = OutcomeServerError
	}
	m.upstream(service, outcome)
}

// RecordUpstreamError counts an outbound call that produced no response
func (m *Metrics) RecordUpstreamError(service string, timedOut bool) {
	outcome := OutcomeTransport
	if timedOut {
		outcome = OutcomeTimeout
	}
	m.upstream(service, outcome)
}

func (m *Metrics) upstream(service, outcome string) {
	m.upstreamTotal.Add(1)
	if outcome != OutcomeSuccessful {
		m.upstreamFailures.Add(1)
	}
	metrics.UpstreamRequestsTotal.WithLabelValues(service, outcome).Inc()
}

// RecordRetry counts one retried upstream attempt
func (m *Metrics) RecordRetry() {
	m.retries.Add(1)
	metrics.ReliabilityRetriesTotal.Inc()
}

// ObserveBreaker exports a breaker's state
func (m *Metrics) ObserveBreaker(name string, state State) {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// SetInFlight exports the number of requests holding a concurrency slot
func (m *Metrics) SetInFlight(n int64) {
	metrics.InFlightRequests.Set(float64(n))
}

// ErrorRate is server errors plus timeouts over all requests, in percent
func (m *Metrics) ErrorRate() float64 {
	total := m.total.Load()
	if total == 0 {
		return 0
	}
	return float64(m.serverErrors.Load()+m.timeouts.Load()) / float64(total) * 100
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Total:         m.total.Load(),
		Successful:    m.successful.Load(),
		ClientErrors:  m.clientErrors.Load(),
		ServerErrors:  m.serverErrors.Load(),
		RateLimited:   m.rateLimited.Load(),
		CircuitBroken: m.circuitBroken.Load(),
		Timeouts:      m.timeouts.Load(),
		Retries:       m.retries.Load(),
		ErrorRate:     m.ErrorRate(),

		UpstreamRequests: m.upstreamTotal.Load(),
		UpstreamFailures: m.upstreamFailures.Load(),
	}
}
