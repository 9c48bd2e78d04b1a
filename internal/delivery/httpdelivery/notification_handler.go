package httpdelivery

import (
	"net/http"
	"time"

	notificationapp "github.com/chiragkoyande/audit-project/internal/application/notification"
	"github.com/chiragkoyande/audit-project/internal/domain/notification"
)

// SendNotificationRequest is the body of POST /notifications.
type SendNotificationRequest struct {
	Type       string                 `json:"type" validate:"omitempty,oneof=audit_alert compliance_warning system_error report_ready deadline_reminder user_action_required"`
	Priority   string                 `json:"priority" validate:"omitempty,oneof=critical high medium low info"`
	Recipients []string               `json:"recipients" validate:"required,min=1,dive,required"`
	Channels   []string               `json:"channels" validate:"omitempty,dive,oneof=email sms slack in_app webhook"`
	Subject    string                 `json:"subject" validate:"required,max=255"`
	Content    string                 `json:"content" validate:"required"`
	Data       map[string]interface{} `json:"data"`
}

// AuditAlertRequest is the body of POST /notifications/audit-alert.
type AuditAlertRequest struct {
	Title       string   `json:"title"`
	Type        string   `json:"type"`
	Severity    string   `json:"severity"`
	Description string   `json:"description"`
	Priority    string   `json:"priority" validate:"omitempty,oneof=critical high medium low info"`
	Recipients  []string `json:"recipients" validate:"required,min=1,dive,required"`
}

// ComplianceWarningRequest is the body of POST /notifications/compliance-warning.
type ComplianceWarningRequest struct {
	ComplianceScore float64  `json:"compliance_score" validate:"gte=0,lte=100"`
	OverallStatus   string   `json:"overall_status"`
	Frameworks      []string `json:"frameworks"`
	Recipients      []string `json:"recipients" validate:"required,min=1,dive,required"`
}

// ReportReadyRequest is the body of POST /notifications/report-ready.
type ReportReadyRequest struct {
	ReportID    string     `json:"report_id"`
	ReportName  string     `json:"report_name"`
	ReportType  string     `json:"report_type"`
	URL         string     `json:"url" validate:"omitempty,url"`
	GeneratedAt *time.Time `json:"generated_at"`
	Recipients  []string   `json:"recipients" validate:"required,min=1,dive,required"`
}

// DeadlineReminderRequest is the body of POST /notifications/deadline-reminder.
type DeadlineReminderRequest struct {
	TaskID       string   `json:"task_id"`
	TaskName     string   `json:"task_name"`
	DeadlineDate string   `json:"deadline_date"`
	DaysUntil    int      `json:"days_until" validate:"gte=0"`
	Recipients   []string `json:"recipients" validate:"required,min=1,dive,required"`
}

// NotificationHandler serves notification delivery, history and the in-app inbox.
type NotificationHandler struct {
	service *notificationapp.Service
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(service *notificationapp.Service) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// Register implements Registrar.
func (h *NotificationHandler) Register(rt *Router) {
	rt.handle(http.MethodPost, "/api/v1/notifications", accessUser, h.send)
	rt.handle(http.MethodPost, "/api/v1/notifications/audit-alert", accessUser, h.auditAlert)
	rt.handle(http.MethodPost, "/api/v1/notifications/compliance-warning", accessUser, h.complianceWarning)
	rt.handle(http.MethodPost, "/api/v1/notifications/report-ready", accessUser, h.reportReady)
	rt.handle(http.MethodPost, "/api/v1/notifications/deadline-reminder", accessUser, h.deadlineReminder)
	rt.handle(http.MethodGet, "/api/v1/notifications/history", accessUser, h.history)
	rt.handle(http.MethodGet, "/api/v1/notifications/stats", accessUser, h.stats)
	rt.handle(http.MethodGet, "/api/v1/notifications/inbox", accessUser, h.inbox)
	rt.handle(http.MethodPost, "/api/v1/notifications/inbox/{id}/read", accessUser, h.markRead)
	rt.handle(http.MethodGet, "/api/v1/notifications/health", accessUser, h.health)
}

func (h *NotificationHandler) send(w http.ResponseWriter, r *http.Request, _ map[string]string) error {
	var req SendNotificationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	channels := make([]notification.Channel, 0, len(req.Channels))
	for _, c := range req.Channels {
		channels = append(channels, notification.Channel(c))
	}
	params := notification.Params{
		Type:       notification.Type(req.Type),
		Priority:   notification.Priority(req.Priority),
		Recipients: req.Recipients,
		Channels:   channels,
		Subject:    req.Subject,
		Content:    req.Content,
		Data:       req.Data,
	}

	if queryFlag(r, "async") {
		n, err := h.service.Enqueue(r.Context(), params)
		if err != nil {
			return err
		}
		writeAccepted(w, "Notification queued", n)
		return nil
	}

	n, err := h.service.Send(r.Context(), params)
	if err != nil {
		return err
	}
	h.writeResult(w, n)
	return nil
}

func (h *NotificationHandler) auditAlert(w http.ResponseWriter, r *http.Request, _ map[string]string) error {
	var req AuditAlertRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	async := queryFlag(r, "async")
	n, err := h.service.SendAuditAlert(r.Context(), notification.AlertData{
		Title:       req.Title,
		Type:        req.Type,
		Severity:    req.Severity,
		Description: req.Description,
		Priority:    notification.Priority(req.Priority),
	}, req.Recipients, async)
	return h.respond(w, n, err, async)
}

func (h *NotificationHandler) complianceWarning(w http.ResponseWriter, r *http.Request, _ map[string]string) error {
	var req ComplianceWarningRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	async := queryFlag(r, "async")
	n, err := h.service.SendComplianceWarning(r.Context(), notification.ComplianceSummary{
		Score:         req.ComplianceScore,
		OverallStatus: req.OverallStatus,
		Frameworks:    req.Frameworks,
	}, req.Recipients, async)
	return h.respond(w, n, err, async)
}

func (h *NotificationHandler) reportReady(w http.ResponseWriter, r *http.Request, _ map[string]string) error {
	var req ReportReadyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	info := notification.ReportInfo{
		ReportID:   req.ReportID,
		ReportName: req.ReportName,
		ReportType: req.ReportType,
		URL:        req.URL,
	}
	if req.GeneratedAt != nil {
		info.GeneratedAt = *req.GeneratedAt
	}
	async := queryFlag(r, "async")
	n, err := h.service.SendReportReady(r.Context(), info, req.Recipients, async)
	return h.respond(w, n, err, async)
}

func (h *NotificationHandler) deadlineReminder(w http.ResponseWriter, r *http.Request, _ map[string]string) error {
	var req DeadlineReminderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	async := queryFlag(r, "async")
	n, err := h.service.SendDeadlineReminder(r.Context(), notification.DeadlineInfo{
		TaskID:       req.TaskID,
		TaskName:     req.TaskName,
		DeadlineDate: req.DeadlineDate,
	}, req.DaysUntil, req.Recipients, async)
	return h.respond(w, n, err, async)
}

func (h *NotificationHandler) respond(w http.ResponseWriter, n *notification.Notification, err error, async bool) error {
	if err != nil {
		return err
	}
	if async {
		writeAccepted(w, "Notification queued", n)
		return nil
	}
	h.writeResult(w, n)
	return nil
}

// writeResult reports a synchronous delivery. A notification no channel
// accepted is still a 200: the outcome is in its status and results.
func (h *NotificationHandler) writeResult(w http.ResponseWriter, n *notification.Notification) {
	message := "Notification sent"
	if n.Status != notification.StatusSent {
		message = "Notification delivery failed on all channels"
	}
	writeOK(w, message, n)
}

func (h *NotificationHandler) history(w http.ResponseWriter, r *http.Request, _ map[string]string) error {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		return err
	}
	items, err := h.service.History(r.Context(), limit)
	if err != nil {
		return err
	}
	writeOK(w, "Notification history retrieved successfully", items)
	return nil
}

func (h *NotificationHandler) stats(w http.ResponseWriter, r *http.Request, _ map[string]string) error {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		return err
	}
	writeOK(w, "Notification stats retrieved successfully", stats)
	return nil
}

func (h *NotificationHandler) inbox(w http.ResponseWriter, r *http.Request, _ map[string]string) error {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		return err
	}
	items, err := h.service.ListInbox(r.Context(), r.URL.Query().Get("recipient"), queryFlag(r, "unread"), limit)
	if err != nil {
		return err
	}
	writeOK(w, "Inbox retrieved successfully", items)
	return nil
}

func (h *NotificationHandler) markRead(w http.ResponseWriter, r *http.Request, params map[string]string) error {
	id, err := pathUUID(params, "id")
	if err != nil {
		return err
	}
	if err := h.service.MarkRead(r.Context(), id); err != nil {
		return err
	}
	writeOK(w, "Notification marked as read", nil)
	return nil
}

func (h *NotificationHandler) health(w http.ResponseWriter, r *http.Request, _ map[string]string) error {
	writeOK(w, "Notification service health", h.service.Health(r.Context()))
	return nil
}
