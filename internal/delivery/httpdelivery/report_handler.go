package httpdelivery

import (
	"net/http"
	"time"

	reportapp "github.com/chiragkoyande/audit-project/internal/application/report"
	"github.com/chiragkoyande/audit-project/internal/domain/auditlog"
	"github.com/chiragkoyande/audit-project/internal/domain/report"
)

// CreateReportRequest is the body of POST /reports. UserID defaults to the caller.
type CreateReportRequest struct {
	Title    string                 `json:"title" validate:"required,max=200"`
	Content  string                 `json:"content"`
	UserID   *string                `json:"user_id" validate:"omitempty,uuid"`
	Metadata map[string]interface{} `json:"metadata"`
}

// UpdateReportRequest is the body of PUT /reports/{id}.
type UpdateReportRequest struct {
	Title    *string                `json:"title" validate:"omitempty,min=1,max=200"`
	Content  *string                `json:"content"`
	Metadata map[string]interface{} `json:"metadata"`
	Status   *string                `json:"status" validate:"omitempty,oneof=draft in_review published archived"`
}

type reportResponse struct {
	ID        string                 `json:"id"`
	Title     string                 `json:"title"`
	Content   string                 `json:"content"`
	UserID    string                 `json:"user_id"`
	Status    string                 `json:"status"`
	Metadata  map[string]interface{} `json:"metadata"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

func toReportResponse(r *report.Report) reportResponse {
	return reportResponse{
		ID:        r.ID().String(),
		Title:     r.Title(),
		Content:   r.Content(),
		UserID:    r.UserID().String(),
		Status:    string(r.Status()),
		Metadata:  r.Metadata(),
		CreatedAt: r.CreatedAt(),
		UpdatedAt: r.UpdatedAt(),
	}
}

// ReportHandler serves audit reports.
type ReportHandler struct {
	createHandler *reportapp.CreateHandler
	getHandler    *reportapp.GetHandler
	listHandler   *reportapp.ListHandler
	updateHandler *reportapp.UpdateHandler
	deleteHandler *reportapp.DeleteHandler
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(repo report.Repository, auditor auditlog.Recorder) *ReportHandler {
	return &ReportHandler{
		createHandler: reportapp.NewCreateHandler(repo, auditor),
		getHandler:    reportapp.NewGetHandler(repo),
		listHandler:   reportapp.NewListHandler(repo),
		updateHandler: reportapp.NewUpdateHandler(repo, auditor),
		deleteHandler: reportapp.NewDeleteHandler(repo, auditor),
	}
}

// Register implements Registrar.
func (h *ReportHandler) Register(rt *Router) {
	rt.handle(http.MethodPost, "/api/v1/reports", accessUser, h.create)
	rt.handle(http.MethodGet, "/api/v1/reports", accessUser, h.list)
	rt.handle(http.MethodGet, "/api/v1/reports/{id}", accessUser, h.get)
	rt.handle(http.MethodPut, "/api/v1/reports/{id}", accessUser, h.update)
	rt.handle(http.MethodDelete, "/api/v1/reports/{id}", accessUser, h.delete)
}

func (h *ReportHandler) create(w http.ResponseWriter, r *http.Request, _ map[string]string) error {
	var req CreateReportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	userID, err := parseOptionalUUID("user_id", req.UserID)
	if err != nil {
		return err
	}

	entity, err := h.createHandler.Handle(r.Context(), reportapp.CreateCommand{
		Title:    req.Title,
		Content:  req.Content,
		UserID:   userID,
		Metadata: req.Metadata,
	})
	if err != nil {
		return err
	}
	writeCreated(w, "Report created successfully", toReportResponse(entity))
	return nil
}

func (h *ReportHandler) get(w http.ResponseWriter, r *http.Request, params map[string]string) error {
	id, err := pathUUID(params, "id")
	if err != nil {
		return err
	}
	entity, err := h.getHandler.Handle(r.Context(), reportapp.GetQuery{ID: id})
	if err != nil {
		return err
	}
	writeOK(w, "Report retrieved successfully", toReportResponse(entity))
	return nil
}

func (h *ReportHandler) list(w http.ResponseWriter, r *http.Request, _ map[string]string) error {
	page, err := queryInt(r, "page", 1)
	if err != nil {
		return err
	}
	pageSize, err := queryInt(r, "page_size", 0)
	if err != nil {
		return err
	}
	userID, err := queryUUID(r, "user_id")
	if err != nil {
		return err
	}

	q := r.URL.Query()
	result, err := h.listHandler.Handle(r.Context(), reportapp.ListQuery{
		Page:      page,
		PageSize:  pageSize,
		Search:    q.Get("search"),
		UserID:    userID,
		Status:    q.Get("status"),
		SortBy:    q.Get("sort_by"),
		SortOrder: q.Get("sort_order"),
	})
	if err != nil {
		return err
	}

	reports := make([]reportResponse, 0, len(result.Reports))
	for _, rep := range result.Reports {
		reports = append(reports, toReportResponse(rep))
	}
	writePage(w, "Reports retrieved successfully", reports, int(result.CurrentPage), int(result.PageSize), result.TotalItems)
	return nil
}

func (h *ReportHandler) update(w http.ResponseWriter, r *http.Request, params map[string]string) error {
	id, err := pathUUID(params, "id")
	if err != nil {
		return err
	}
	var req UpdateReportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	entity, err := h.updateHandler.Handle(r.Context(), reportapp.UpdateCommand{
		ID:       id,
		Title:    req.Title,
		Content:  req.Content,
		Metadata: req.Metadata,
		Status:   req.Status,
	})
	if err != nil {
		return err
	}
	writeOK(w, "Report updated successfully", toReportResponse(entity))
	return nil
}

func (h *ReportHandler) delete(w http.ResponseWriter, r *http.Request, params map[string]string) error {
	id, err := pathUUID(params, "id")
	if err != nil {
		return err
	}
	if err := h.deleteHandler.Handle(r.Context(), reportapp.DeleteCommand{ID: id}); err != nil {
		return err
	}
	writeOK(w, "Report deleted successfully", nil)
	return nil
}
