// Package compliance provides the compliance checking application service.
package compliance

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/chiragkoyande/audit-project/internal/domain/compliance"
	"github.com/chiragkoyande/audit-project/internal/domain/shared"
	"github.com/chiragkoyande/audit-project/internal/infrastructure/config"
	"github.com/chiragkoyande/audit-project/internal/infrastructure/metrics"
	"github.com/chiragkoyande/audit-project/internal/infrastructure/render"
	"github.com/chiragkoyande/audit-project/internal/infrastructure/storage"
	"github.com/chiragkoyande/audit-project/internal/infrastructure/tracing"
)

const (
	defaultTrendPoints = 10
	trendWindow        = 30 * 24 * time.Hour
	reportFolder       = "compliance-reports"
)

// ArtifactStore stores rendered reports and returns a download link.
type ArtifactStore interface {
	Put(ctx context.Context, folder, name string, data []byte, contentType string) (*storage.Artifact, error)
}

// CheckInput is a compliance check request. Empty Frameworks means the
// configured defaults.
type CheckInput struct {
	Data       map[string]interface{}
	Frameworks []string
}

// ReportInput is a compliance report request.
type ReportInput struct {
	Data       map[string]interface{}
	Frameworks []string
	Format     string
}

// GeneratedReport is a report plus its rendered file. Content is only set
// when the file could not be uploaded.
type GeneratedReport struct {
	*compliance.Report
	Content     []byte `json:"-"`
	ContentType string `json:"-"`
	FileName    string `json:"-"`
}

// Health is the compliance service health report.
type Health struct {
	Status              string                 `json:"status"`
	SupportedFrameworks []compliance.Framework `json:"supported_frameworks"`
	RulesLoaded         int                    `json:"rules_loaded"`
	Cache               string                 `json:"cache"`
	CacheSize           int                    `json:"cache_size"`
	StrictMode          bool                   `json:"strict_mode"`
}

// Service checks documents against compliance frameworks.
type Service struct {
	engine  *compliance.Engine
	cache   compliance.Cache
	history compliance.HistoryRepository
	store   ArtifactStore
	cfg     config.ComplianceConfig
	now     func() time.Time
}

// NewService creates a new compliance service. cache, history and store may be nil.
func NewService(
	engine *compliance.Engine,
	cache compliance.Cache,
	history compliance.HistoryRepository,
	store ArtifactStore,
	cfg config.ComplianceConfig,
) *Service {
	if cfg.TrendPoints <= 0 {
		cfg.TrendPoints = defaultTrendPoints
	}
	return &Service{
		engine:  engine,
		cache:   cache,
		history: history,
		store:   store,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Check evaluates data against the requested frameworks. Unsupported
// frameworks are skipped and reported, never fatal.
func (s *Service) Check(ctx context.Context, input CheckInput) (*compliance.Result, error) {
	ctx, span := tracing.StartSpan(ctx, "compliance.Check")
	defer span.End()

	if len(input.Data) == 0 {
		return nil, compliance.ErrEmptyData
	}

	requested := s.requested(input.Frameworks)
	key, err := compliance.CacheKey(input.Data, requested)
	if err != nil {
		return nil, shared.NewValidationError("data", err.Error())
	}

	if cached := s.cached(ctx, key); cached != nil {
		metrics.RecordComplianceCheck(true)
		return cached, nil
	}

	supported, skipped := resolve(requested)
	results, err := s.evaluate(ctx, supported, input.Data)
	if err != nil {
		tracing.SetError(ctx, err)
		return nil, err
	}

	result := compliance.Aggregate(results, s.cfg.StrictMode)
	result.CacheKey = key
	result.SkippedFrameworks = skipped
	result.CheckedAt = s.now().UTC()

	s.remember(ctx, &result)
	metrics.RecordComplianceCheck(false)

	log.Info().
		Str("cache_key", key).
		Float64("score", result.OverallScore).
		Str("status", string(result.OverallStatus)).
		Int("issues", len(result.Issues)).
		Strs("skipped", skipped).
		Msg("Compliance check completed")

	return &result, nil
}

// ValidatePolicy checks a policy document's structure and freshness.
func (s *Service) ValidatePolicy(_ context.Context, policy map[string]interface{}, policyType string) compliance.PolicyValidation {
	return compliance.ValidatePolicy(policy, policyType, s.now())
}

// GenerateReport runs a check and renders it in the requested format.
// Rendered files are uploaded to object storage when it is configured.
func (s *Service) GenerateReport(ctx context.Context, input ReportInput) (*GeneratedReport, error) {
	ctx, span := tracing.StartSpan(ctx, "compliance.GenerateReport")
	defer span.End()

	format, err := compliance.ParseFormat(input.Format)
	if err != nil {
		return nil, err
	}
	supported, _ := resolve(s.requested(input.Frameworks))
	if len(supported) == 0 {
		return nil, compliance.ErrNoFrameworks
	}

	// History is read before the check so the new record is not its own trend point.
	history := s.recentHistory(ctx, supported)

	result, err := s.Check(ctx, CheckInput{Data: input.Data, Frameworks: input.Frameworks})
	if err != nil {
		return nil, err
	}

	out := &GeneratedReport{Report: compliance.BuildReport(result, history, format, s.now())}
	if format == compliance.FormatJSON {
		return out, nil
	}

	content, contentType, err := renderReport(out.Report)
	if err != nil {
		tracing.SetError(ctx, err)
		return nil, err
	}
	if format == compliance.FormatHTML {
		out.HTMLContent = string(content)
	}
	out.FileName = fmt.Sprintf("%s.%s", out.ReportID, format)
	out.ContentType = contentType

	if s.store == nil {
		out.Content = content
		return out, nil
	}
	artifact, err := s.store.Put(ctx, reportFolder, out.FileName, content, contentType)
	if err != nil {
		log.Warn().Err(err).Str("report_id", out.ReportID).Msg("Failed to upload compliance report, returning inline")
		out.Content = content
		return out, nil
	}
	out.ArtifactKey = artifact.Key
	out.ArtifactURL = artifact.URL
	return out, nil
}

// Health reports rule and cache state.
func (s *Service) Health(ctx context.Context) Health {
	h := Health{
		Status:              "healthy",
		SupportedFrameworks: compliance.SupportedFrameworks,
		RulesLoaded:         s.engine.RulesLoaded(),
		Cache:               "disabled",
		StrictMode:          s.cfg.StrictMode,
	}
	if s.cacheEnabled() {
		h.Cache = s.cache.Kind()
		h.CacheSize = s.cache.Len(ctx)
	}
	if h.RulesLoaded == 0 {
		h.Status = "degraded"
	}
	return h
}

func (s *Service) requested(frameworks []string) []string {
	if len(frameworks) > 0 {
		return frameworks
	}
	if len(s.cfg.DefaultFrameworks) > 0 {
		return s.cfg.DefaultFrameworks
	}
	names := make([]string, 0, len(compliance.SupportedFrameworks))
	for _, f := range compliance.SupportedFrameworks {
		names = append(names, string(f))
	}
	return names
}

// resolve splits names into supported frameworks, deduplicated in request
// order, and the names that were skipped.
func resolve(names []string) ([]compliance.Framework, []string) {
	seen := make(map[compliance.Framework]bool, len(names))
	var supported []compliance.Framework
	var skipped []string
	for _, name := range names {
		fw, err := compliance.ParseFramework(name)
		if err != nil {
			log.Warn().Str("framework", name).Msg("Unsupported compliance framework skipped")
			skipped = append(skipped, name)
			continue
		}
		if !seen[fw] {
			seen[fw] = true
			supported = append(supported, fw)
		}
	}
	return supported, skipped
}

func (s *Service) evaluate(ctx context.Context, frameworks []compliance.Framework, data map[string]interface{}) ([]compliance.FrameworkResult, error) {
	results := make([]compliance.FrameworkResult, len(frameworks))
	g, gctx := errgroup.WithContext(ctx)
	for i, fw := range frameworks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = s.engine.Evaluate(fw, data)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) cacheEnabled() bool {
	return s.cfg.CacheResults && s.cache != nil
}

func (s *Service) cached(ctx context.Context, key string) *compliance.Result {
	if !s.cacheEnabled() {
		return nil
	}
	r, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("cache", s.cache.Kind()).Msg("Compliance cache read failed")
		return nil
	}
	if !ok || !compliance.Fresh(r, s.cfg.CacheTTL, s.now()) {
		return nil
	}
	out := *r
	out.Cached = true
	return &out
}

func (s *Service) remember(ctx context.Context, result *compliance.Result) {
	if s.cacheEnabled() {
		if err := s.cache.Set(ctx, result.CacheKey, result, s.cfg.CacheTTL); err != nil {
			log.Warn().Err(err).Str("cache", s.cache.Kind()).Msg("Compliance cache write failed")
		}
	}
	if s.history != nil {
		if err := s.history.Save(ctx, compliance.NewCheckRecord(result)); err != nil {
			log.Warn().Err(err).Str("cache_key", result.CacheKey).Msg("Failed to save compliance check history")
		}
	}
}

func (s *Service) recentHistory(ctx context.Context, frameworks []compliance.Framework) []*compliance.CheckRecord {
	if s.history == nil {
		return nil
	}
	records, err := s.history.ListRecent(ctx, frameworks, s.now().Add(-trendWindow), s.cfg.TrendPoints)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load compliance history")
		return nil
	}
	return records
}

func renderReport(r *compliance.Report) ([]byte, string, error) {
	switch r.Format {
	case compliance.FormatHTML:
		b, err := render.HTML(r)
		return b, "text/html; charset=utf-8", err
	case compliance.FormatPDF:
		b, err := render.PDF(r)
		return b, "application/pdf", err
	case compliance.FormatXLSX:
		b, err := render.XLSX(r)
		return b, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", err
	default:
		return nil, "", compliance.ErrUnsupportedFormat
	}
}
