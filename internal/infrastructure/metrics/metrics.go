package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "invision",
			Subsystem: "server",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "invision",
			Subsystem: "server",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"method", "endpoint"},
	)

	// Stream counters by terminal outcome
	StreamsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "invision",
			Subsystem: "server",
			Name:      "streams_total",
			Help:      "Total workflow stream invocations",
		},
		[]string{"workflow", "outcome"},
	)

	// Stream duration histogram
	StreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "invision",
			Subsystem: "server",
			Name:      "stream_duration_seconds",
			Help:      "Workflow stream duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"workflow"},
	)

	// Events emitted on the wire
	StreamEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "invision",
			Subsystem: "server",
			Name:      "stream_events_total",
			Help:      "Total server-sent events emitted to clients",
		},
		[]string{"event"},
	)

	// Connector broker request duration
	ConnectorRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "invision",
			Subsystem: "server",
			Name:      "connector_request_duration_seconds",
			Help:      "Connector broker request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 15},
		},
		[]string{"operation"},
	)
)

// RecordRequest records an HTTP request
func RecordRequest(method, endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint).Observe(durationSec)
}

// RecordStream records a completed workflow stream
func RecordStream(workflow, outcome string, durationSec float64) {
	StreamsTotal.WithLabelValues(workflow, outcome).Inc()
	StreamDuration.WithLabelValues(workflow).Observe(durationSec)
}

// RecordStreamEvent records a server-sent event emitted to a client
func RecordStreamEvent(event string) {
	StreamEventsTotal.WithLabelValues(event).Inc()
}

// RecordConnectorRequest records a connector broker round trip
func RecordConnectorRequest(operation string, durationSec float64) {
	ConnectorRequestDuration.WithLabelValues(operation).Observe(durationSec)
}
