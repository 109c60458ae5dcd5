// Package metrics exposes Prometheus collectors for the request
// orchestrator and the HTTP gateway.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the engine-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	dispatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "loyalty_client",
			Subsystem: "orchestrator",
			Name:      "dispatches_total",
			Help:      "Total number of intents dispatched per channel.",
		},
		[]string{"channel"},
	)

	settlements = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "loyalty_client",
			Subsystem: "orchestrator",
			Name:      "settlements_total",
			Help:      "Total number of settled dispatches per channel and outcome.",
		},
		[]string{"channel", "outcome"},
	)

	gatewayDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "loyalty_client",
			Subsystem: "gateway",
			Name:      "request_duration_seconds",
			Help:      "Duration of remote gateway calls.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"operation"},
	)

	notificationDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "loyalty_client",
			Subsystem: "notify",
			Name:      "queue_depth",
			Help:      "Current number of queued notifications.",
		},
	)
)

func init() {
	Registry.MustRegister(
		dispatches,
		settlements,
		gatewayDuration,
		notificationDepth,
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordDispatch counts a dispatched intent.
func RecordDispatch(channel string) {
	dispatches.WithLabelValues(channel).Inc()
}

// RecordSettlement counts a settled dispatch. Outcome is one of "applied",
// "failed" or "superseded".
func RecordSettlement(channel, outcome string) {
	settlements.WithLabelValues(channel, outcome).Inc()
}

// RecordGatewayCall records the duration of a remote gateway call.
func RecordGatewayCall(operation string, duration time.Duration) {
	if duration <= 0 {
		duration = time.Millisecond
	}
	gatewayDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// SetNotificationDepth updates the queued-notification gauge.
func SetNotificationDepth(n int) {
	notificationDepth.Set(float64(n))
}
