package metric

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request handling time in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)

	wsActiveConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ws_active_connections",
			Help: "Number of active WebSocket connections",
		},
		[]string{"role"},
	)

	signalsRelayedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signals_relayed_total",
			Help: "Signal messages fanned out to receivers",
		},
		[]string{"type"},
	)
)

// RecordHTTPMetrics records one handled HTTP request
func RecordHTTPMetrics(method, endpoint string, status int, duration time.Duration) {
	strStatus := strconv.Itoa(status)

	httpRequestsTotal.WithLabelValues(method, endpoint, strStatus).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint, strStatus).Observe(duration.Seconds())
}

func IncrementWSActiveConnections(role string) {
	wsActiveConnections.WithLabelValues(role).Inc()
}

func DecrementWSActiveConnections(role string) {
	wsActiveConnections.WithLabelValues(role).Dec()
}

func RecordSignalRelayed(msgType string, receivers int) {
	signalsRelayedTotal.WithLabelValues(msgType).Add(float64(receivers))
}
