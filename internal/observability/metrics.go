package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// total requests per endpoint, method and status code
	RequestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signalbridge_requests_total",
			Help: "Total API requests received",
		},
		[]string{"endpoint", "method", "status"},
	)

	// request latency in seconds per endpoint/method
	RequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "signalbridge_request_duration_seconds",
			Help:    "Histogram of request latencies",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method"},
	)

	// enrichment passes run, labelled first/second
	PassCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signalbridge_passes_total",
			Help: "Total enrichment passes executed",
		},
		[]string{"pass"},
	)

	// store reads that fell back to a default, per source key
	SourceFaultCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signalbridge_source_faults_total",
			Help: "Signal source reads recovered with a default value",
		},
		[]string{"key"},
	)

	// per-bidder fragment writes that failed and were skipped
	WriteFailureCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signalbridge_write_failures_total",
			Help: "Per-bidder fragment writes skipped due to errors",
		},
		[]string{"bidder"},
	)

	// signal ids routed per class (ac, ssp, cc, topics)
	SignalsRouted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signalbridge_signals_routed_total",
			Help: "Signal identifiers routed to bidders, by class",
		},
		[]string{"class"},
	)

	// analytics sink failures (recording is best-effort)
	AnalyticsErrorCount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "signalbridge_analytics_errors_total",
			Help: "Failed enrichment-event inserts",
		},
	)
)

// RegisterMetrics registers all collectors with the default registry.
// Call once at startup.
func RegisterMetrics() {
	prometheus.MustRegister(
		RequestCount,
		RequestLatency,
		PassCount,
		SourceFaultCount,
		WriteFailureCount,
		SignalsRouted,
		AnalyticsErrorCount,
	)
}
