package httpdelivery

import (
	"net/http"
	"time"

	auditlogapp "github.com/chiragkoyande/audit-project/internal/application/auditlog"
	"github.com/chiragkoyande/audit-project/internal/domain/auditlog"
	"github.com/chiragkoyande/audit-project/internal/infrastructure/storage"
)

// RecordAuditLogRequest is the body of POST /audit-logs.
type RecordAuditLogRequest struct {
	UserID       *string                `json:"user_id" validate:"omitempty,uuid"`
	Action       string                 `json:"action" validate:"required,max=50"`
	ResourceType string                 `json:"resource_type" validate:"required,max=50"`
	ResourceID   string                 `json:"resource_id" validate:"max=50"`
	Description  string                 `json:"description"`
	Changes      map[string]interface{} `json:"changes"`
	OldValues    map[string]interface{} `json:"old_values"`
	NewValues    map[string]interface{} `json:"new_values"`
	IPAddress    string                 `json:"ip_address" validate:"omitempty,ip"`
	UserAgent    string                 `json:"user_agent"`
	Status       string                 `json:"status" validate:"omitempty,oneof=success failure"`
}

type auditLogResponse struct {
	ID           string                 `json:"id"`
	Seq          int64                  `json:"seq"`
	Timestamp    time.Time              `json:"timestamp"`
	UserID       *string                `json:"user_id"`
	Action       string                 `json:"action"`
	ResourceType string                 `json:"resource_type"`
	ResourceID   string                 `json:"resource_id,omitempty"`
	Description  string                 `json:"description,omitempty"`
	Changes      map[string]interface{} `json:"changes,omitempty"`
	IPAddress    string                 `json:"ip_address,omitempty"`
	UserAgent    string                 `json:"user_agent,omitempty"`
	Status       string                 `json:"status"`
	PrevHash     string                 `json:"prev_hash"`
	Hash         string                 `json:"hash"`
}

func toAuditLogResponse(l *auditlog.AuditLog) auditLogResponse {
	resp := auditLogResponse{
		ID:           l.ID().String(),
		Seq:          l.Seq(),
		Timestamp:    l.Timestamp(),
		Action:       l.Action(),
		ResourceType: l.ResourceType(),
		ResourceID:   l.ResourceID(),
		Description:  l.Description(),
		Changes:      l.Changes(),
		IPAddress:    l.IPAddress(),
		UserAgent:    l.UserAgent(),
		Status:       string(l.Status()),
		PrevHash:     l.PrevHash(),
		Hash:         l.Hash(),
	}
	if id := l.UserID(); id != nil {
		s := id.String()
		resp.UserID = &s
	}
	return resp
}

type actionCountResponse struct {
	Action string `json:"action"`
	Count  int64  `json:"count"`
}

type userActivityResponse struct {
	UserID     string `json:"user_id"`
	Email      string `json:"email"`
	FullName   string `json:"full_name"`
	EventCount int64  `json:"event_count"`
}

type hourlyCountResponse struct {
	Hour  int   `json:"hour"`
	Count int64 `json:"count"`
}

type summaryResponse struct {
	TimeRange    string                 `json:"time_range"`
	TotalEvents  int64                  `json:"total_events"`
	SuccessCount int64                  `json:"success_count"`
	FailureCount int64                  `json:"failure_count"`
	ByAction     []actionCountResponse  `json:"by_action"`
	TopUsers     []userActivityResponse `json:"top_users"`
	EventsByHour []hourlyCountResponse  `json:"events_by_hour"`
}

func toSummaryResponse(s *auditlog.Summary) summaryResponse {
	resp := summaryResponse{
		TimeRange:    s.TimeRange,
		TotalEvents:  s.TotalEvents,
		SuccessCount: s.SuccessCount,
		FailureCount: s.FailureCount,
		ByAction:     make([]actionCountResponse, 0, len(s.ByAction)),
		TopUsers:     make([]userActivityResponse, 0, len(s.TopUsers)),
		EventsByHour: make([]hourlyCountResponse, 0, len(s.EventsByHour)),
	}
	for _, a := range s.ByAction {
		resp.ByAction = append(resp.ByAction, actionCountResponse{Action: a.Action, Count: a.Count})
	}
	for _, u := range s.TopUsers {
		resp.TopUsers = append(resp.TopUsers, userActivityResponse{
			UserID:     u.UserID.String(),
			Email:      u.Email,
			FullName:   u.FullName,
			EventCount: u.EventCount,
		})
	}
	for _, hc := range s.EventsByHour {
		resp.EventsByHour = append(resp.EventsByHour, hourlyCountResponse{Hour: hc.Hour, Count: hc.Count})
	}
	return resp
}

type exportResponse struct {
	FileName  string            `json:"file_name"`
	RowCount  int               `json:"row_count"`
	Truncated bool              `json:"truncated"`
	Artifact  *storage.Artifact `json:"artifact"`
}

// AuditLogHandler serves the audit trail.
type AuditLogHandler struct {
	recordHandler  *auditlogapp.RecordHandler
	getHandler     *auditlogapp.GetHandler
	listHandler    *auditlogapp.ListHandler
	summaryHandler *auditlogapp.SummaryHandler
	exportHandler  *auditlogapp.ExportHandler
	verifyHandler  *auditlogapp.VerifyHandler
}

// NewAuditLogHandler creates a new AuditLogHandler. store may be nil.
func NewAuditLogHandler(repo auditlog.Repository, recorder *auditlogapp.RecordHandler, store auditlogapp.ArtifactStore) *AuditLogHandler {
	return &AuditLogHandler{
		recordHandler:  recorder,
		getHandler:     auditlogapp.NewGetHandler(repo),
		listHandler:    auditlogapp.NewListHandler(repo),
		summaryHandler: auditlogapp.NewSummaryHandler(repo),
		exportHandler:  auditlogapp.NewExportHandler(repo, store),
		verifyHandler:  auditlogapp.NewVerifyHandler(repo),
	}
}

// Register implements Registrar.
func (h *AuditLogHandler) Register(rt *Router) {
	rt.handle(http.MethodPost, "/api/v1/audit-logs", accessUser, h.record)
	rt.handle(http.MethodGet, "/api/v1/audit-logs", accessUser, h.list)
	rt.handle(http.MethodGet, "/api/v1/audit-logs/{id}", accessUser, h.get)
	rt.handle(http.MethodGet, "/api/v1/audit-logs/summary", accessUser, h.summary)
	rt.handle(http.MethodGet, "/api/v1/audit-logs/export", accessUser, h.export)
	rt.handle(http.MethodGet, "/api/v1/audit-logs/verify", accessUser, h.verify)
}

func (h *AuditLogHandler) record(w http.ResponseWriter, r *http.Request, _ map[string]string) error {
	var req RecordAuditLogRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	userID, err := parseOptionalUUID("user_id", req.UserID)
	if err != nil {
		return err
	}

	entry, err := h.recordHandler.Handle(r.Context(), auditlogapp.RecordCommand{
		UserID:       userID,
		Action:       req.Action,
		ResourceType: req.ResourceType,
		ResourceID:   req.ResourceID,
		Description:  req.Description,
		Changes:      req.Changes,
		OldValues:    req.OldValues,
		NewValues:    req.NewValues,
		IPAddress:    req.IPAddress,
		UserAgent:    req.UserAgent,
		Status:       req.Status,
	})
	if err != nil {
		return err
	}
	writeCreated(w, "Audit log recorded", toAuditLogResponse(entry))
	return nil
}

func (h *AuditLogHandler) get(w http.ResponseWriter, r *http.Request, params map[string]string) error {
	id, err := pathUUID(params, "id")
	if err != nil {
		return err
	}
	entry, err := h.getHandler.Handle(r.Context(), auditlogapp.GetQuery{ID: id})
	if err != nil {
		return err
	}
	writeOK(w, "Audit log retrieved successfully", toAuditLogResponse(entry))
	return nil
}

func (h *AuditLogHandler) list(w http.ResponseWriter, r *http.Request, _ map[string]string) error {
	query, err := auditListQuery(r)
	if err != nil {
		return err
	}
	result, err := h.listHandler.Handle(r.Context(), query)
	if err != nil {
		return err
	}

	logs := make([]auditLogResponse, 0, len(result.Logs))
	for _, l := range result.Logs {
		logs = append(logs, toAuditLogResponse(l))
	}
	writePage(w, "Audit logs retrieved successfully", logs, int(result.CurrentPage), int(result.PageSize), result.TotalItems)
	return nil
}

func (h *AuditLogHandler) summary(w http.ResponseWriter, r *http.Request, _ map[string]string) error {
	summary, err := h.summaryHandler.Handle(r.Context(), auditlogapp.SummaryQuery{
		TimeRange: r.URL.Query().Get("time_range"),
	})
	if err != nil {
		return err
	}
	writeOK(w, "Audit summary retrieved successfully", toSummaryResponse(summary))
	return nil
}

func (h *AuditLogHandler) export(w http.ResponseWriter, r *http.Request, _ map[string]string) error {
	filter, err := auditListQuery(r)
	if err != nil {
		return err
	}
	result, err := h.exportHandler.Handle(r.Context(), auditlogapp.ExportQuery{Filter: filter})
	if err != nil {
		return err
	}

	if result.Artifact == nil {
		writeFile(w, result.FileName, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", result.FileContent)
		return nil
	}
	writeOK(w, "Audit logs exported successfully", exportResponse{
		FileName:  result.FileName,
		RowCount:  result.RowCount,
		Truncated: result.Truncated,
		Artifact:  result.Artifact,
	})
	return nil
}

func (h *AuditLogHandler) verify(w http.ResponseWriter, r *http.Request, _ map[string]string) error {
	result, err := h.verifyHandler.Handle(r.Context())
	if err != nil {
		return err
	}
	message := "Audit chain intact"
	if !result.Intact {
		message = "Audit chain broken"
	}
	writeOK(w, message, result)
	return nil
}

func auditListQuery(r *http.Request) (auditlogapp.ListQuery, error) {
	var query auditlogapp.ListQuery
	var err error

	if query.Page, err = queryInt(r, "page", 1); err != nil {
		return query, err
	}
	if query.PageSize, err = queryInt(r, "page_size", 0); err != nil {
		return query, err
	}
	if query.UserID, err = queryUUID(r, "user_id"); err != nil {
		return query, err
	}
	if query.DateFrom, err = queryTime(r, "date_from"); err != nil {
		return query, err
	}
	if query.DateTo, err = queryTime(r, "date_to"); err != nil {
		return query, err
	}

	q := r.URL.Query()
	query.Search = q.Get("search")
	query.Action = q.Get("action")
	query.ResourceType = q.Get("resource_type")
	query.ResourceID = q.Get("resource_id")
	query.Status = q.Get("status")
	query.SortBy = q.Get("sort_by")
	query.SortOrder = q.Get("sort_order")
	return query, nil
}
