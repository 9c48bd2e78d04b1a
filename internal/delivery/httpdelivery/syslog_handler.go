package httpdelivery

import (
	"net/http"
	"time"

	syslogapp "github.com/chiragkoyande/audit-project/internal/application/syslog"
	"github.com/chiragkoyande/audit-project/internal/domain/syslog"
)

// WriteSystemLogRequest is the body of POST /system-logs.
type WriteSystemLogRequest struct {
	Level          string                 `json:"level" validate:"required"`
	Module         string                 `json:"module" validate:"required,max=100"`
	Message        string                 `json:"message" validate:"required"`
	StackTrace     string                 `json:"stack_trace"`
	RequestID      string                 `json:"request_id" validate:"max=50"`
	AdditionalData map[string]interface{} `json:"additional_data"`
}

type systemLogResponse struct {
	ID             string                 `json:"id"`
	Timestamp      time.Time              `json:"timestamp"`
	Level          string                 `json:"level"`
	Module         string                 `json:"module"`
	Message        string                 `json:"message"`
	StackTrace     string                 `json:"stack_trace,omitempty"`
	RequestID      string                 `json:"request_id,omitempty"`
	AdditionalData map[string]interface{} `json:"additional_data,omitempty"`
}

func toSystemLogResponse(e *syslog.Entry) systemLogResponse {
	return systemLogResponse{
		ID:             e.ID().String(),
		Timestamp:      e.Timestamp(),
		Level:          string(e.Level()),
		Module:         e.Module(),
		Message:        e.Message(),
		StackTrace:     e.StackTrace(),
		RequestID:      e.RequestID(),
		AdditionalData: e.AdditionalData(),
	}
}

// SystemLogHandler serves structured system logs.
type SystemLogHandler struct {
	writeHandler *syslogapp.WriteHandler
	listHandler  *syslogapp.ListHandler
	purgeHandler *syslogapp.PurgeHandler
}

// NewSystemLogHandler creates a new SystemLogHandler.
func NewSystemLogHandler(repo syslog.Repository) *SystemLogHandler {
	return &SystemLogHandler{
		writeHandler: syslogapp.NewWriteHandler(repo),
		listHandler:  syslogapp.NewListHandler(repo),
		purgeHandler: syslogapp.NewPurgeHandler(repo),
	}
}

// Register implements Registrar.
func (h *SystemLogHandler) Register(rt *Router) {
	rt.handle(http.MethodPost, "/api/v1/system-logs", accessUser, h.write)
	rt.handle(http.MethodGet, "/api/v1/system-logs", accessUser, h.list)
	rt.handle(http.MethodDelete, "/api/v1/system-logs", accessAdmin, h.purge)
}

func (h *SystemLogHandler) write(w http.ResponseWriter, r *http.Request, _ map[string]string) error {
	var req WriteSystemLogRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	entry, err := h.writeHandler.Handle(r.Context(), syslogapp.WriteCommand{
		Level:          req.Level,
		Module:         req.Module,
		Message:        req.Message,
		StackTrace:     req.StackTrace,
		RequestID:      req.RequestID,
		AdditionalData: req.AdditionalData,
	})
	if err != nil {
		return err
	}
	writeCreated(w, "System log written", toSystemLogResponse(entry))
	return nil
}

func (h *SystemLogHandler) list(w http.ResponseWriter, r *http.Request, _ map[string]string) error {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		return err
	}

	q := r.URL.Query()
	entries, err := h.listHandler.Handle(r.Context(), syslogapp.ListQuery{
		Level:     q.Get("level"),
		Module:    q.Get("module"),
		RequestID: q.Get("request_id"),
		Limit:     limit,
	})
	if err != nil {
		return err
	}

	out := make([]systemLogResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toSystemLogResponse(e))
	}
	writeOK(w, "System logs retrieved successfully", out)
	return nil
}

func (h *SystemLogHandler) purge(w http.ResponseWriter, r *http.Request, _ map[string]string) error {
	days, err := queryInt(r, "older_than_days", 0)
	if err != nil {
		return err
	}
	result, err := h.purgeHandler.Handle(r.Context(), syslogapp.PurgeCommand{OlderThanDays: days})
	if err != nil {
		return err
	}
	writeOK(w, "System logs purged", result)
	return nil
}
