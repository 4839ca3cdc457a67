package httpclient

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	backendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "admin_backend_request_duration_seconds",
			Help:    "Duration of calls from the admin console to the backend API",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"client", "method", "status"},
	)

	circuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "admin_backend_circuit_breaker_state",
			Help: "Current state of the backend circuit breaker (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)

func observeBackendRequest(client, method string, status int, d time.Duration) {
	backendRequestDuration.WithLabelValues(client, method, statusLabel(status)).Observe(d.Seconds())
}
