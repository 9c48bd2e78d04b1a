package notification

import (
	"fmt"
	"strings"
	"time"
)

const displayTime = "2006-01-02 15:04:05"

// AlertData describes an audit alert.
type AlertData struct {
	Title       string
	Type        string
	Severity    string
	Description string
	// Priority picks the delivery channels. Empty means high.
	Priority Priority
}

// FormatAuditAlert renders the plain-text body of an audit alert.
func FormatAuditAlert(a AlertData, now time.Time) string {
	return strings.Join([]string{
		"AUDIT ALERT",
		"",
		"Alert Type: " + orDefault(a.Type, "Unknown"),
		"Severity: " + orDefault(a.Severity, "Medium"),
		"Description: " + orDefault(a.Description, "No description provided"),
		"",
		"Please review this alert and take appropriate action.",
		"",
		"Generated at: " + now.Format(displayTime),
	}, "\n")
}

// AuditAlertSubject builds the subject line of an audit alert.
func AuditAlertSubject(a AlertData) string {
	return "Audit Alert: " + orDefault(a.Title, "Unknown Alert")
}

// ComplianceSummary is the part of a compliance result quoted in warnings.
type ComplianceSummary struct {
	Score         float64
	OverallStatus string
	Frameworks    []string
}

// ComplianceWarningSubject is the fixed subject of compliance warnings.
const ComplianceWarningSubject = "Compliance Warning Detected"

// FormatComplianceWarning renders the plain-text body of a compliance warning.
func FormatComplianceWarning(c ComplianceSummary, now time.Time) string {
	return strings.Join([]string{
		"COMPLIANCE WARNING",
		"",
		fmt.Sprintf("Compliance Score: %.2f", c.Score),
		"Overall Status: " + orDefault(c.OverallStatus, "Unknown"),
		"",
		"Frameworks Checked: " + strings.Join(c.Frameworks, ", "),
		"",
		"Please review the compliance issues and address any violations.",
		"",
		"Generated at: " + now.Format(displayTime),
	}, "\n")
}

// ReportInfo describes a finished report.
type ReportInfo struct {
	ReportID    string
	ReportName  string
	ReportType  string
	URL         string
	GeneratedAt time.Time
}

// ReportReadySubject builds the subject line of a report-ready notice.
func ReportReadySubject(r ReportInfo) string {
	return "Report Ready: " + orDefault(r.ReportName, "Audit Report")
}

// FormatReportReady renders the plain-text body of a report-ready notice.
func FormatReportReady(r ReportInfo, now time.Time) string {
	generated := r.GeneratedAt
	if generated.IsZero() {
		generated = now
	}
	lines := []string{
		"REPORT READY",
		"",
		"Report: " + orDefault(r.ReportName, "Audit Report"),
		"Type: " + orDefault(r.ReportType, "Unknown"),
		"Generated: " + generated.UTC().Format(time.RFC3339),
		"",
		"Your requested report is now available for download.",
	}
	if r.URL != "" {
		lines = append(lines, "Download: "+r.URL)
	}
	lines = append(lines, "", "Report ID: "+orDefault(r.ReportID, "N/A"))
	return strings.Join(lines, "\n")
}

// DeadlineInfo describes an upcoming deadline.
type DeadlineInfo struct {
	TaskID       string
	TaskName     string
	DeadlineDate string
}

// DeadlinePriority is critical within a day of the deadline, high otherwise.
func DeadlinePriority(daysUntil int) Priority {
	if daysUntil <= 1 {
		return PriorityCritical
	}
	return PriorityHigh
}

// DeadlineReminderSubject builds the subject line of a deadline reminder.
func DeadlineReminderSubject(daysUntil int) string {
	return fmt.Sprintf("Deadline Reminder: %d days remaining", daysUntil)
}

// FormatDeadlineReminder renders the plain-text body of a deadline reminder.
func FormatDeadlineReminder(d DeadlineInfo, daysUntil int) string {
	urgency, action := "REMINDER", "Please ensure timely completion."
	if daysUntil <= 1 {
		urgency, action = "URGENT", "IMMEDIATE ACTION REQUIRED"
	}
	return strings.Join([]string{
		urgency + ": DEADLINE APPROACHING",
		"",
		"Task: " + orDefault(d.TaskName, "Audit Task"),
		"Deadline: " + orDefault(d.DeadlineDate, "Not specified"),
		fmt.Sprintf("Days Remaining: %d", daysUntil),
		"",
		action,
		"",
		"Task ID: " + orDefault(d.TaskID, "N/A"),
	}, "\n")
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
