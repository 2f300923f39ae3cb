package observability

import "time"

// MetricsRegistry provides an interface for recording application metrics
// This replaces direct access to global Prometheus metrics with dependency injection
type MetricsRegistry interface {
	// HTTP request metrics
	IncrementRequests(endpoint, method, status string)
	RecordRequestLatency(endpoint, method string, duration time.Duration)

	// Engine metrics
	IncrementPasses(pass string)
	IncrementSourceFaults(key string)
	IncrementWriteFailures(bidder string)
	AddSignalsRouted(class string, n int)

	// Analytics sink metrics
	IncrementAnalyticsErrors()
}

// PrometheusRegistry implements MetricsRegistry using the global Prometheus metrics
type PrometheusRegistry struct{}

// NewPrometheusRegistry creates a new PrometheusRegistry
func NewPrometheusRegistry() *PrometheusRegistry {
	return &PrometheusRegistry{}
}

func (r *PrometheusRegistry) IncrementRequests(endpoint, method, status string) {
	RequestCount.WithLabelValues(endpoint, method, status).Inc()
}

func (r *PrometheusRegistry) RecordRequestLatency(endpoint, method string, duration time.Duration) {
	RequestLatency.WithLabelValues(endpoint, method).Observe(duration.Seconds())
}

func (r *PrometheusRegistry) IncrementPasses(pass string) {
	PassCount.WithLabelValues(pass).Inc()
}

func (r *PrometheusRegistry) IncrementSourceFaults(key string) {
	SourceFaultCount.WithLabelValues(key).Inc()
}

func (r *PrometheusRegistry) IncrementWriteFailures(bidder string) {
	WriteFailureCount.WithLabelValues(bidder).Inc()
}

func (r *PrometheusRegistry) AddSignalsRouted(class string, n int) {
	SignalsRouted.WithLabelValues(class).Add(float64(n))
}

func (r *PrometheusRegistry) IncrementAnalyticsErrors() {
	AnalyticsErrorCount.Inc()
}
