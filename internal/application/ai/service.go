// Package ai provides the AI-assisted analysis application service.
package ai

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/chiragkoyande/audit-project/internal/domain/analysis"
	"github.com/chiragkoyande/audit-project/internal/infrastructure/config"
	"github.com/chiragkoyande/audit-project/internal/infrastructure/metrics"
	"github.com/chiragkoyande/audit-project/internal/infrastructure/tracing"
)

// Health is the AI service health report.
type Health struct {
	Status   string `json:"status"`
	Model    string `json:"model,omitempty"`
	Provider string `json:"provider"`
	Enabled  bool   `json:"enabled"`
}

// Service runs analyses on the configured model and falls back to the
// deterministic heuristic when the model fails.
type Service struct {
	primary  analysis.Analyzer
	fallback analysis.Analyzer
	enabled  bool
	model    string
}

// NewService creates a new AI service. primary may be nil, in which case
// every call uses the heuristic.
func NewService(primary analysis.Analyzer, cfg config.AIConfig) *Service {
	return &Service{
		primary:  primary,
		fallback: analysis.NewHeuristic(),
		enabled:  cfg.Enabled,
		model:    cfg.ModelName,
	}
}

// AnalyzeDocument extracts findings and a risk score from a document.
func (s *Service) AnalyzeDocument(ctx context.Context, content, documentType string) (*analysis.DocumentAnalysis, error) {
	if !s.enabled {
		return nil, analysis.ErrAIDisabled
	}
	ctx, span := tracing.StartSpan(ctx, "ai.AnalyzeDocument")
	defer span.End()

	if s.primary != nil {
		res, err := s.primary.AnalyzeDocument(ctx, content, documentType)
		if err == nil {
			metrics.RecordAIRequest("analyze_document", string(res.Source))
			return res, nil
		}
		if isInputError(err) {
			return nil, err
		}
		s.logFallback(err, "analyze_document")
	}

	res, err := s.fallback.AnalyzeDocument(ctx, content, documentType)
	if err != nil {
		return nil, err
	}
	metrics.RecordAIRequest("analyze_document", string(res.Source))
	return res, nil
}

// AssessRisk rates the risk of structured audit data.
func (s *Service) AssessRisk(ctx context.Context, data map[string]interface{}) (*analysis.RiskAssessment, error) {
	if !s.enabled {
		return nil, analysis.ErrAIDisabled
	}
	ctx, span := tracing.StartSpan(ctx, "ai.AssessRisk")
	defer span.End()

	if s.primary != nil {
		res, err := s.primary.AssessRisk(ctx, data)
		if err == nil {
			metrics.RecordAIRequest("assess_risk", string(res.Source))
			return res, nil
		}
		if isInputError(err) {
			return nil, err
		}
		s.logFallback(err, "assess_risk")
	}

	res, err := s.fallback.AssessRisk(ctx, data)
	if err != nil {
		return nil, err
	}
	metrics.RecordAIRequest("assess_risk", string(res.Source))
	return res, nil
}

// GenerateRecommendations suggests audit actions for the given data.
func (s *Service) GenerateRecommendations(ctx context.Context, auditData map[string]interface{}) ([]analysis.Recommendation, error) {
	if !s.enabled {
		return nil, analysis.ErrAIDisabled
	}
	ctx, span := tracing.StartSpan(ctx, "ai.GenerateRecommendations")
	defer span.End()

	if s.primary != nil {
		recs, err := s.primary.GenerateRecommendations(ctx, auditData)
		if err == nil {
			metrics.RecordAIRequest("recommendations", string(s.primary.Name()))
			return recs, nil
		}
		s.logFallback(err, "recommendations")
	}

	recs, err := s.fallback.GenerateRecommendations(ctx, auditData)
	if err != nil {
		return nil, err
	}
	metrics.RecordAIRequest("recommendations", string(s.fallback.Name()))
	return recs, nil
}

// Health reports which provider serves requests.
func (s *Service) Health(ctx context.Context) Health {
	h := Health{Status: "healthy", Provider: string(analysis.SourceHeuristic), Enabled: s.enabled}
	if !s.enabled {
		h.Status = "disabled"
		return h
	}
	if s.primary == nil {
		return h
	}

	h.Model = s.model
	if err := s.primary.Ping(ctx); err != nil {
		log.Warn().Err(err).Msg("AI provider unreachable, heuristic fallback active")
		h.Status = "degraded"
		return h
	}
	h.Provider = string(s.primary.Name())
	return h
}

func (s *Service) logFallback(err error, operation string) {
	log.Warn().Err(err).Str("operation", operation).Str("provider", string(s.primary.Name())).Msg("AI provider failed, using heuristic")
}

func isInputError(err error) bool {
	return errors.Is(err, analysis.ErrEmptyDocument) || errors.Is(err, analysis.ErrEmptyData)
}
