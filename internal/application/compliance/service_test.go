package compliance_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	complianceapp "github.com/chiragkoyande/audit-project/internal/application/compliance"
	"github.com/chiragkoyande/audit-project/internal/domain/compliance"
	"github.com/chiragkoyande/audit-project/internal/infrastructure/config"
	"github.com/chiragkoyande/audit-project/internal/infrastructure/memcache"
	"github.com/chiragkoyande/audit-project/internal/infrastructure/storage"
)

// MockHistory is a mock implementation of compliance.HistoryRepository.
type MockHistory struct {
	mock.Mock
}

func (m *MockHistory) Save(ctx context.Context, rec *compliance.CheckRecord) error {
	return m.Called(ctx, rec).Error(0)
}

func (m *MockHistory) ListRecent(ctx context.Context, fws []compliance.Framework, since time.Time, limit int) ([]*compliance.CheckRecord, error) {
	args := m.Called(ctx, fws, since, limit)
	return args.Get(0).([]*compliance.CheckRecord), args.Error(1)
}

// MockStore is a mock implementation of compliance.ArtifactStore.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Put(ctx context.Context, folder, name string, data []byte, contentType string) (*storage.Artifact, error) {
	args := m.Called(ctx, folder, name, data, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.Artifact), args.Error(1)
}

func newEngine(t *testing.T) *compliance.Engine {
	t.Helper()
	sets, err := compliance.DefaultRuleSets()
	require.NoError(t, err)
	return compliance.NewEngine(sets)
}

var cfg = config.ComplianceConfig{
	CacheResults:      true,
	CacheTTL:          time.Hour,
	DefaultFrameworks: []string{"SOX", "GDPR"},
}

var failingData = map[string]interface{}{
	"audit_logging": map[string]interface{}{"enabled": false},
}

func TestService_Check(t *testing.T) {
	t.Run("success - second identical check is served from cache", func(t *testing.T) {
		history := new(MockHistory)
		history.On("Save", mock.Anything, mock.AnythingOfType("*compliance.CheckRecord")).Return(nil).Once()
		svc := complianceapp.NewService(newEngine(t), memcache.NewComplianceCache(10, time.Hour), history, nil, cfg)

		first, err := svc.Check(context.Background(), complianceapp.CheckInput{Data: failingData, Frameworks: []string{"SOX"}})
		require.NoError(t, err)
		assert.False(t, first.Cached)
		assert.Equal(t, []compliance.Framework{compliance.FrameworkSOX}, first.Frameworks)

		second, err := svc.Check(context.Background(), complianceapp.CheckInput{Data: failingData, Frameworks: []string{"SOX"}})
		require.NoError(t, err)
		assert.True(t, second.Cached)
		assert.Equal(t, first.CacheKey, second.CacheKey)
		history.AssertExpectations(t)
	})

	t.Run("success - defaults and skipped frameworks", func(t *testing.T) {
		svc := complianceapp.NewService(newEngine(t), nil, nil, nil, cfg)

		res, err := svc.Check(context.Background(), complianceapp.CheckInput{Data: failingData})
		require.NoError(t, err)
		assert.ElementsMatch(t, []compliance.Framework{compliance.FrameworkSOX, compliance.FrameworkGDPR}, res.Frameworks)

		res, err = svc.Check(context.Background(), complianceapp.CheckInput{Data: failingData, Frameworks: []string{"sox", "FEDRAMP"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"FEDRAMP"}, res.SkippedFrameworks)
		assert.Len(t, res.FrameworkResults, 1)
	})

	t.Run("success - no supported frameworks scores zero", func(t *testing.T) {
		svc := complianceapp.NewService(newEngine(t), nil, nil, nil, cfg)

		res, err := svc.Check(context.Background(), complianceapp.CheckInput{Data: failingData, Frameworks: []string{"FEDRAMP"}})
		require.NoError(t, err)
		assert.Equal(t, 0.0, res.OverallScore)
		assert.Equal(t, compliance.StatusNonCompliant, res.OverallStatus)
	})

	t.Run("success - strict mode with critical issue", func(t *testing.T) {
		strict := cfg
		strict.StrictMode = true
		svc := complianceapp.NewService(newEngine(t), nil, nil, nil, strict)

		res, err := svc.Check(context.Background(), complianceapp.CheckInput{Data: failingData, Frameworks: []string{"SOX"}})
		require.NoError(t, err)
		assert.Positive(t, res.CriticalIssues())
		assert.Equal(t, compliance.StatusNonCompliant, res.OverallStatus)
		assert.NotEmpty(t, res.Recommendations)
	})

	t.Run("error - empty data", func(t *testing.T) {
		svc := complianceapp.NewService(newEngine(t), nil, nil, nil, cfg)
		_, err := svc.Check(context.Background(), complianceapp.CheckInput{})
		assert.ErrorIs(t, err, compliance.ErrEmptyData)
	})
}

func TestService_GenerateReport(t *testing.T) {
	t.Run("success - pdf is uploaded", func(t *testing.T) {
		history := new(MockHistory)
		store := new(MockStore)
		svc := complianceapp.NewService(newEngine(t), nil, history, store, cfg)

		history.On("ListRecent", mock.Anything, []compliance.Framework{compliance.FrameworkSOX}, mock.Anything, 10).
			Return([]*compliance.CheckRecord{{OverallScore: 0.2, CreatedAt: time.Now().Add(-time.Hour)}}, nil)
		history.On("Save", mock.Anything, mock.Anything).Return(nil)
		store.On("Put", mock.Anything, "compliance-reports",
			mock.MatchedBy(func(name string) bool { return strings.HasSuffix(name, ".pdf") }),
			mock.Anything, "application/pdf",
		).Return(&storage.Artifact{Key: "compliance-reports/r.pdf", URL: "https://minio/r.pdf"}, nil)

		rep, err := svc.GenerateReport(context.Background(), complianceapp.ReportInput{
			Data: failingData, Frameworks: []string{"SOX"}, Format: "pdf",
		})
		require.NoError(t, err)
		assert.Equal(t, "https://minio/r.pdf", rep.ArtifactURL)
		assert.Nil(t, rep.Content)
		assert.Len(t, rep.Trends.Points, 1)
		assert.NotEmpty(t, rep.ActionItems)
		store.AssertExpectations(t)
	})

	t.Run("success - html without storage is returned inline", func(t *testing.T) {
		svc := complianceapp.NewService(newEngine(t), nil, nil, nil, cfg)

		rep, err := svc.GenerateReport(context.Background(), complianceapp.ReportInput{
			Data: failingData, Frameworks: []string{"SOX"}, Format: "html",
		})
		require.NoError(t, err)
		assert.Contains(t, rep.HTMLContent, "<html")
		assert.NotEmpty(t, rep.Content)
		assert.Equal(t, "insufficient_data", rep.Trends.Trend)
	})

	t.Run("error - unsupported format", func(t *testing.T) {
		svc := complianceapp.NewService(newEngine(t), nil, nil, nil, cfg)
		_, err := svc.GenerateReport(context.Background(), complianceapp.ReportInput{Data: failingData, Format: "docx"})
		assert.ErrorIs(t, err, compliance.ErrUnsupportedFormat)
	})

	t.Run("error - no supported frameworks", func(t *testing.T) {
		svc := complianceapp.NewService(newEngine(t), nil, nil, nil, cfg)
		_, err := svc.GenerateReport(context.Background(), complianceapp.ReportInput{Data: failingData, Frameworks: []string{"FEDRAMP"}})
		assert.ErrorIs(t, err, compliance.ErrNoFrameworks)
	})
}

func TestService_Health(t *testing.T) {
	svc := complianceapp.NewService(newEngine(t), memcache.NewComplianceCache(10, time.Hour), nil, nil, cfg)
	h := svc.Health(context.Background())
	assert.Equal(t, "healthy", h.Status)
	assert.Equal(t, "memory", h.Cache)
	assert.Positive(t, h.RulesLoaded)

	disabled := complianceapp.NewService(newEngine(t), nil, nil, nil, cfg)
	assert.Equal(t, "disabled", disabled.Health(context.Background()).Cache)
}

func TestService_ValidatePolicy(t *testing.T) {
	svc := complianceapp.NewService(newEngine(t), nil, nil, nil, cfg)
	res := svc.ValidatePolicy(context.Background(), map[string]interface{}{"name": "Access"}, "")
	assert.False(t, res.IsValid)
	assert.NotEmpty(t, res.Violations)
}
