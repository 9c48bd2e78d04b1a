// Package openai implements analysis.Analyzer on an OpenAI-compatible
// chat completions API.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"
	goopenai "github.com/sashabaranov/go-openai"

	"github.com/chiragkoyande/audit-project/internal/domain/analysis"
	"github.com/chiragkoyande/audit-project/internal/infrastructure/config"
	"github.com/chiragkoyande/audit-project/pkg/circuitbreaker"
)

const maxDocumentChars = 12000

const systemPrompt = "You are an expert auditor specializing in compliance, risk management and internal controls. " +
	"Always answer with a single JSON object and no prose."

// Analyzer implements analysis.Analyzer.
type Analyzer struct {
	client      *goopenai.Client
	model       string
	temperature float32
	maxTokens   int
	timeout     time.Duration
	maxTries    uint
	breaker     *circuitbreaker.CircuitBreaker
	now         func() time.Time
}

var _ analysis.Analyzer = (*Analyzer)(nil)

// NewAnalyzer creates an analyzer from the ai configuration.
func NewAnalyzer(cfg *config.AIConfig) *Analyzer {
	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	tries := cfg.MaxRetries
	if tries < 1 {
		tries = 1
	}

	settings := circuitbreaker.DefaultSettings("openai")
	settings.IsFailure = func(err error) bool {
		return err != nil && !errors.Is(err, context.Canceled) && !isClientError(err)
	}
	settings.OnStateChange = func(name string, from, to circuitbreaker.State) {
		log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state changed")
	}

	return &Analyzer{
		client:      goopenai.NewClientWithConfig(clientCfg),
		model:       cfg.ModelName,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     cfg.Timeout,
		maxTries:    uint(tries),
		breaker:     circuitbreaker.New(settings),
		now:         time.Now,
	}
}

// Name implements analysis.Analyzer.
func (a *Analyzer) Name() analysis.Source { return analysis.SourceOpenAI }

// Model returns the configured model name.
func (a *Analyzer) Model() string { return a.model }

// Ping implements analysis.Analyzer.
func (a *Analyzer) Ping(ctx context.Context) error {
	return a.breaker.Execute(ctx, func(ctx context.Context) error {
		ctx, cancel := a.withTimeout(ctx)
		defer cancel()
		if _, err := a.client.ListModels(ctx); err != nil {
			return fmt.Errorf("failed to list models: %w", err)
		}
		return nil
	})
}

type documentResponse struct {
	KeyFindings     []string `json:"key_findings"`
	RiskScore       float64  `json:"risk_score"`
	Recommendations []string `json:"recommendations"`
	Confidence      float64  `json:"confidence"`
}

// AnalyzeDocument implements analysis.Analyzer.
func (a *Analyzer) AnalyzeDocument(ctx context.Context, content, documentType string) (*analysis.DocumentAnalysis, error) {
	if strings.TrimSpace(content) == "" {
		return nil, analysis.ErrEmptyDocument
	}
	if documentType == "" {
		documentType = analysis.DefaultDocumentType
	}
	if len(content) > maxDocumentChars {
		content = content[:maxDocumentChars]
	}

	prompt := fmt.Sprintf(`Analyze the following %s document for audit purposes.
Return JSON with keys: key_findings (array of strings), risk_score (number between 0 and 1),
recommendations (array of strings), confidence (number between 0 and 1).

Document:
%s`, documentType, content)

	var out documentResponse
	if err := a.complete(ctx, prompt, &out); err != nil {
		return nil, err
	}
	if len(out.KeyFindings) == 0 {
		return nil, fmt.Errorf("%w: no key findings", analysis.ErrBadResponse)
	}

	return &analysis.DocumentAnalysis{
		DocumentType:    documentType,
		AnalyzedAt:      a.now().UTC(),
		KeyFindings:     out.KeyFindings,
		RiskScore:       analysis.ClampRisk(out.RiskScore),
		Recommendations: out.Recommendations,
		Confidence:      clampUnit(out.Confidence),
		Source:          analysis.SourceOpenAI,
	}, nil
}

type riskResponse struct {
	OverallRisk          string   `json:"overall_risk"`
	RiskFactors          []string `json:"risk_factors"`
	MitigationStrategies []string `json:"mitigation_strategies"`
	Confidence           float64  `json:"confidence"`
}

// AssessRisk implements analysis.Analyzer.
func (a *Analyzer) AssessRisk(ctx context.Context, data map[string]interface{}) (*analysis.RiskAssessment, error) {
	if len(data) == 0 {
		return nil, analysis.ErrEmptyData
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode assessment data: %w", err)
	}

	prompt := fmt.Sprintf(`Assess the audit risk of the following data.
Return JSON with keys: overall_risk (one of low, medium, high, critical), risk_factors (array of strings),
mitigation_strategies (array of strings), confidence (number between 0 and 1).

Data:
%s`, raw)

	var out riskResponse
	if err := a.complete(ctx, prompt, &out); err != nil {
		return nil, err
	}

	return &analysis.RiskAssessment{
		OverallRisk:          analysis.ParseRiskLevel(out.OverallRisk),
		RiskFactors:          out.RiskFactors,
		MitigationStrategies: out.MitigationStrategies,
		AssessedAt:           a.now().UTC(),
		Confidence:           clampUnit(out.Confidence),
		Source:               analysis.SourceOpenAI,
	}, nil
}

type recommendationsResponse struct {
	Recommendations []struct {
		Priority        string  `json:"priority"`
		Category        string  `json:"category"`
		Title           string  `json:"title"`
		Description     string  `json:"description"`
		EstimatedEffort string  `json:"estimated_effort"`
		Confidence      float64 `json:"confidence"`
	} `json:"recommendations"`
}

// GenerateRecommendations implements analysis.Analyzer.
func (a *Analyzer) GenerateRecommendations(ctx context.Context, auditData map[string]interface{}) ([]analysis.Recommendation, error) {
	raw, err := json.Marshal(auditData)
	if err != nil {
		return nil, fmt.Errorf("failed to encode audit data: %w", err)
	}

	prompt := fmt.Sprintf(`Generate audit recommendations for the following audit data.
Return JSON with key recommendations: an array of objects with priority (high, medium or low), category,
title, description, estimated_effort and confidence (number between 0 and 1).

Audit data:
%s`, raw)

	var out recommendationsResponse
	if err := a.complete(ctx, prompt, &out); err != nil {
		return nil, err
	}
	if len(out.Recommendations) == 0 {
		return nil, fmt.Errorf("%w: no recommendations", analysis.ErrBadResponse)
	}

	recs := make([]analysis.Recommendation, 0, len(out.Recommendations))
	for _, r := range out.Recommendations {
		if strings.TrimSpace(r.Title) == "" {
			continue
		}
		recs = append(recs, analysis.Recommendation{
			Priority:        strings.ToLower(r.Priority),
			Category:        r.Category,
			Title:           r.Title,
			Description:     r.Description,
			EstimatedEffort: r.EstimatedEffort,
			Confidence:      clampUnit(r.Confidence),
		})
	}
	return analysis.Renumber(recs), nil
}

// complete sends prompt and decodes the JSON answer into out, retrying
// transient failures with exponential backoff.
func (a *Analyzer) complete(ctx context.Context, prompt string, out interface{}) error {
	req := goopenai.ChatCompletionRequest{
		Model: a.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
		ResponseFormat: &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 5 * time.Second

	content, err := backoff.Retry(ctx, func() (string, error) {
		var content string
		err := a.breaker.Execute(ctx, func(ctx context.Context) error {
			ctx, cancel := a.withTimeout(ctx)
			defer cancel()

			resp, err := a.client.CreateChatCompletion(ctx, req)
			if err != nil {
				return err
			}
			if len(resp.Choices) == 0 {
				return fmt.Errorf("%w: no choices", analysis.ErrBadResponse)
			}
			content = resp.Choices[0].Message.Content
			return nil
		})
		if err != nil {
			if errors.Is(err, circuitbreaker.ErrCircuitOpen) || isClientError(err) {
				return "", backoff.Permanent(err)
			}
			return "", err
		}
		return content, nil
	}, backoff.WithBackOff(b), backoff.WithMaxTries(a.maxTries))
	if err != nil {
		return fmt.Errorf("chat completion failed: %w", err)
	}

	if err := json.Unmarshal([]byte(stripFences(content)), out); err != nil {
		return fmt.Errorf("%w: %v", analysis.ErrBadResponse, err)
	}
	return nil
}

func (a *Analyzer) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.timeout)
}

// isClientError reports 4xx responses other than rate limiting.
func isClientError(err error) bool {
	code := 0
	var apiErr *goopenai.APIError
	var reqErr *goopenai.RequestError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		code = reqErr.HTTPStatusCode
	}
	return code >= 400 && code < 500 && code != http.StatusTooManyRequests
}

// stripFences removes a markdown code fence some models wrap JSON in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
