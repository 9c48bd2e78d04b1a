package httpdelivery

import (
	"net/http"

	complianceapp "github.com/chiragkoyande/audit-project/internal/application/compliance"
	"github.com/chiragkoyande/audit-project/internal/domain/compliance"
)

// ComplianceCheckRequest is the body of POST /compliance/check.
type ComplianceCheckRequest struct {
	Data       map[string]interface{} `json:"data" validate:"required"`
	Frameworks []string               `json:"frameworks" validate:"omitempty,dive,required"`
}

// ValidatePolicyRequest is the body of POST /compliance/policies/validate.
type ValidatePolicyRequest struct {
	Policy     map[string]interface{} `json:"policy" validate:"required"`
	PolicyType string                 `json:"policy_type"`
}

// ComplianceReportRequest is the body of POST /compliance/reports.
type ComplianceReportRequest struct {
	Data       map[string]interface{} `json:"data" validate:"required"`
	Frameworks []string               `json:"frameworks" validate:"omitempty,dive,required"`
	Format     string                 `json:"format" validate:"omitempty,oneof=json html pdf xlsx"`
}

// ComplianceHandler serves compliance checks and reports.
type ComplianceHandler struct {
	service *complianceapp.Service
}

// NewComplianceHandler creates a new ComplianceHandler.
func NewComplianceHandler(service *complianceapp.Service) *ComplianceHandler {
	return &ComplianceHandler{service: service}
}

// Register implements Registrar.
func (h *ComplianceHandler) Register(rt *Router) {
	rt.handle(http.MethodPost, "/api/v1/compliance/check", accessUser, h.check)
	rt.handle(http.MethodPost, "/api/v1/compliance/policies/validate", accessUser, h.validatePolicy)
	rt.handle(http.MethodPost, "/api/v1/compliance/reports", accessUser, h.generateReport)
	rt.handle(http.MethodGet, "/api/v1/compliance/health", accessUser, h.health)
}

func (h *ComplianceHandler) check(w http.ResponseWriter, r *http.Request, _ map[string]string) error {
	var req ComplianceCheckRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	result, err := h.service.Check(r.Context(), complianceapp.CheckInput{
		Data:       req.Data,
		Frameworks: req.Frameworks,
	})
	if err != nil {
		return err
	}
	writeOK(w, "Compliance check completed", result)
	return nil
}

func (h *ComplianceHandler) validatePolicy(w http.ResponseWriter, r *http.Request, _ map[string]string) error {
	var req ValidatePolicyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	result := h.service.ValidatePolicy(r.Context(), req.Policy, req.PolicyType)
	message := "Policy is valid"
	if !result.IsValid {
		message = "Policy has violations"
	}
	writeOK(w, message, result)
	return nil
}

func (h *ComplianceHandler) generateReport(w http.ResponseWriter, r *http.Request, _ map[string]string) error {
	var req ComplianceReportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	report, err := h.service.GenerateReport(r.Context(), complianceapp.ReportInput{
		Data:       req.Data,
		Frameworks: req.Frameworks,
		Format:     req.Format,
	})
	if err != nil {
		return err
	}

	// Binary formats that could not be uploaded are returned as the file itself.
	if len(report.Content) > 0 && report.Format != compliance.FormatHTML {
		writeFile(w, report.FileName, report.ContentType, report.Content)
		return nil
	}
	writeCreated(w, "Compliance report generated", report)
	return nil
}

func (h *ComplianceHandler) health(w http.ResponseWriter, r *http.Request, _ map[string]string) error {
	writeOK(w, "Compliance service health", h.service.Health(r.Context()))
	return nil
}
