// Package metrics holds the Prometheus business metrics of the audit service.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	auditLogsRecordedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_logs_recorded_total",
			Help: "Total number of audit logs recorded",
		},
		[]string{"action", "status"},
	)

	auditMirrorTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_mirror_writes_total",
			Help: "Total number of audit log mirror writes",
		},
		[]string{"status"},
	)

	complianceChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compliance_checks_total",
			Help: "Total number of compliance checks",
		},
		[]string{"cached"},
	)

	notificationsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Total number of notification channel deliveries",
		},
		[]string{"channel", "status"},
	)

	aiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_requests_total",
			Help: "Total number of AI analysis requests",
		},
		[]string{"operation", "source"},
	)
)

// RecordAuditLog records a stored audit log.
func RecordAuditLog(action, status string) {
	auditLogsRecordedTotal.WithLabelValues(action, status).Inc()
}

// RecordMirrorWrite records a mirror write outcome.
func RecordMirrorWrite(success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	auditMirrorTotal.WithLabelValues(status).Inc()
}

// RecordComplianceCheck records a compliance check.
func RecordComplianceCheck(cached bool) {
	complianceChecksTotal.WithLabelValues(strconv.FormatBool(cached)).Inc()
}

// RecordNotification records a channel delivery outcome.
func RecordNotification(channel, status string) {
	notificationsSentTotal.WithLabelValues(channel, status).Inc()
}

// RecordAIRequest records an analysis request and the analyzer that served it.
func RecordAIRequest(operation, source string) {
	aiRequestsTotal.WithLabelValues(operation, source).Inc()
}
