package httpdelivery

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "code"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests being processed.",
		},
	)

	authOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_auth_operations_total",
			Help: "Total number of authentication operations.",
		},
		[]string{"operation", "status"},
	)
)

const (
	metricStatusSuccess = "success"
	metricStatusFailure = "failure"
)

// RecordAuthOperation records an authentication operation metric.
func RecordAuthOperation(operation string, success bool) {
	s := metricStatusSuccess
	if !success {
		s = metricStatusFailure
	}
	authOperationsTotal.WithLabelValues(operation, s).Inc()
}
