// Package analysis provides domain types for AI-assisted audit analysis.
package analysis

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Domain-specific errors for analysis package.
var (
	ErrAIDisabled    = errors.New("ai analysis is disabled")
	ErrEmptyDocument = errors.New("document content cannot be empty")
	ErrEmptyData     = errors.New("assessment data cannot be empty")
	ErrBadResponse   = errors.New("model returned an unusable response")
)

// Source identifies which analyzer produced a result.
type Source string

// Analyzer sources.
const (
	SourceOpenAI    Source = "openai"
	SourceHeuristic Source = "heuristic"
)

// RiskLevel is a coarse risk rating.
type RiskLevel string

// Risk levels.
const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// ParseRiskLevel normalizes a model-supplied risk level, defaulting to medium.
func ParseRiskLevel(s string) RiskLevel {
	switch l := RiskLevel(strings.ToLower(strings.TrimSpace(s))); l {
	case RiskLow, RiskMedium, RiskHigh, RiskCritical:
		return l
	default:
		return RiskMedium
	}
}

// DefaultDocumentType is used when the caller does not classify a document.
const DefaultDocumentType = "general"

// DocumentAnalysis is the result of analyzing a document.
type DocumentAnalysis struct {
	DocumentType    string    `json:"document_type"`
	AnalyzedAt      time.Time `json:"analyzed_at"`
	KeyFindings     []string  `json:"key_findings"`
	RiskScore       float64   `json:"risk_score"`
	Recommendations []string  `json:"recommendations"`
	Confidence      float64   `json:"confidence"`
	Source          Source    `json:"source"`
}

// RiskAssessment is the result of assessing structured data.
type RiskAssessment struct {
	OverallRisk          RiskLevel `json:"overall_risk"`
	RiskFactors          []string  `json:"risk_factors"`
	MitigationStrategies []string  `json:"mitigation_strategies"`
	AssessedAt           time.Time `json:"assessed_at"`
	Confidence           float64   `json:"confidence"`
	Source               Source    `json:"source"`
}

// Recommendation is a suggested audit action.
type Recommendation struct {
	ID              int     `json:"id"`
	Priority        string  `json:"priority"`
	Category        string  `json:"category"`
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	EstimatedEffort string  `json:"estimated_effort"`
	Confidence      float64 `json:"confidence"`
}

// Analyzer performs audit analysis.
type Analyzer interface {
	AnalyzeDocument(ctx context.Context, content, documentType string) (*DocumentAnalysis, error)
	AssessRisk(ctx context.Context, data map[string]interface{}) (*RiskAssessment, error)
	GenerateRecommendations(ctx context.Context, auditData map[string]interface{}) ([]Recommendation, error)
	// Ping checks that the analyzer backend is reachable.
	Ping(ctx context.Context) error
	Name() Source
}

// ClampRisk bounds a risk score to [0.1, 0.95].
func ClampRisk(score float64) float64 {
	if score < 0.1 {
		return 0.1
	}
	if score > 0.95 {
		return 0.95
	}
	return score
}

// Renumber assigns sequential ids starting at 1.
func Renumber(recs []Recommendation) []Recommendation {
	for i := range recs {
		recs[i].ID = i + 1
	}
	return recs
}
