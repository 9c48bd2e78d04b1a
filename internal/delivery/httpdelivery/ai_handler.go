package httpdelivery

import (
	"net/http"

	"github.com/chiragkoyande/audit-project/internal/application/ai"
)

// AnalyzeDocumentRequest is the body of POST /ai/analyze-document.
type AnalyzeDocumentRequest struct {
	Content      string `json:"content" validate:"required"`
	DocumentType string `json:"document_type" validate:"max=100"`
}

// AssessRiskRequest is the body of POST /ai/assess-risk.
type AssessRiskRequest struct {
	Data map[string]interface{} `json:"data" validate:"required"`
}

// RecommendationsRequest is the body of POST /ai/recommendations.
type RecommendationsRequest struct {
	AuditData map[string]interface{} `json:"audit_data" validate:"required"`
}

// AIHandler serves AI-assisted analysis.
type AIHandler struct {
	service *ai.Service
}

// NewAIHandler creates a new AIHandler.
func NewAIHandler(service *ai.Service) *AIHandler {
	return &AIHandler{service: service}
}

// Register implements Registrar.
func (h *AIHandler) Register(rt *Router) {
	rt.handle(http.MethodPost, "/api/v1/ai/analyze-document", accessUser, h.analyzeDocument)
	rt.handle(http.MethodPost, "/api/v1/ai/assess-risk", accessUser, h.assessRisk)
	rt.handle(http.MethodPost, "/api/v1/ai/recommendations", accessUser, h.recommendations)
	rt.handle(http.MethodGet, "/api/v1/ai/health", accessUser, h.health)
}

func (h *AIHandler) analyzeDocument(w http.ResponseWriter, r *http.Request, _ map[string]string) error {
	var req AnalyzeDocumentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	result, err := h.service.AnalyzeDocument(r.Context(), req.Content, req.DocumentType)
	if err != nil {
		return err
	}
	writeOK(w, "Document analyzed", result)
	return nil
}

func (h *AIHandler) assessRisk(w http.ResponseWriter, r *http.Request, _ map[string]string) error {
	var req AssessRiskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	result, err := h.service.AssessRisk(r.Context(), req.Data)
	if err != nil {
		return err
	}
	writeOK(w, "Risk assessed", result)
	return nil
}

func (h *AIHandler) recommendations(w http.ResponseWriter, r *http.Request, _ map[string]string) error {
	var req RecommendationsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	result, err := h.service.GenerateRecommendations(r.Context(), req.AuditData)
	if err != nil {
		return err
	}
	writeOK(w, "Recommendations generated", result)
	return nil
}

func (h *AIHandler) health(w http.ResponseWriter, r *http.Request, _ map[string]string) error {
	writeOK(w, "AI service health", h.service.Health(r.Context()))
	return nil
}
