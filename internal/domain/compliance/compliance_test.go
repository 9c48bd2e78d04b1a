package compliance

import (
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compliantDoc() map[string]interface{} {
	return map[string]interface{}{
		"audit_logging":      map[string]interface{}{"enabled": true, "retention_days": 2555},
		"financial_controls": map[string]interface{}{"segregation_of_duties": true},
		"change_management":  map[string]interface{}{"approval_required": true},
		"access_controls": map[string]interface{}{
			"review_frequency_days": 90, "mfa_enabled": true, "role_based": true, "password_min_length": 14,
		},
		"data_protection": map[string]interface{}{
			"retention_policy": "7 years", "consent_management": true, "encryption_at_rest": true,
			"encryption_in_transit": true, "subject_requests_supported": true,
		},
		"incident_response": map[string]interface{}{"breach_notification_hours": 48, "plan_documented": true},
		"governance": map[string]interface{}{
			"dpo_appointed": true, "security_policy": "v3", "business_associate_agreements": true, "risk_appetite": "low",
		},
		"security": map[string]interface{}{
			"asset_inventory": true, "vulnerability_scanning": true, "network_segmentation": true,
			"risk_assessment_performed": true,
		},
		"monitoring":   map[string]interface{}{"enabled": true},
		"availability": map[string]interface{}{"backups_enabled": true},
	}
}

func defaultEngine(t *testing.T) *Engine {
	t.Helper()
	sets, err := DefaultRuleSets()
	require.NoError(t, err)
	return NewEngine(sets)
}

func TestDefaultRuleSets(t *testing.T) {
	sets, err := DefaultRuleSets()
	require.NoError(t, err)
	for _, fw := range SupportedFrameworks {
		rs, ok := sets[fw]
		require.True(t, ok, "missing rules for %s", fw)
		assert.NotEmpty(t, rs.Rules)
	}
}

func TestLoadRuleSets_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown framework", "framework: FOO\nrules: []\n"},
		{"unknown check", "framework: SOX\nrules:\n  - {id: a, path: x, weight: 1, check: nope}\n"},
		{"bad regex", "framework: SOX\nrules:\n  - {id: a, path: x, weight: 1, check: field_matches, pattern: '('}\n"},
		{"zero weight", "framework: SOX\nrules:\n  - {id: a, path: x, weight: 0, check: field_true}\n"},
		{"bad severity", "framework: SOX\nrules:\n  - {id: a, path: x, weight: 1, check: field_true, severity: urgent}\n"},
		{"duplicate id", "framework: SOX\nrules:\n  - {id: a, path: x, weight: 1, check: field_true}\n  - {id: a, path: y, weight: 1, check: field_true}\n"},
		{"min without number", "framework: SOX\nrules:\n  - {id: a, path: x, weight: 1, check: field_min, value: lots}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadRuleSets(fstest.MapFS{"r.yaml": {Data: []byte(tt.body)}})
			assert.Error(t, err)
		})
	}
}

func TestEngine_Evaluate(t *testing.T) {
	engine := defaultEngine(t)

	t.Run("success - fully compliant document", func(t *testing.T) {
		for _, fw := range SupportedFrameworks {
			res := engine.Evaluate(fw, compliantDoc())
			assert.Equal(t, 1.0, res.Score, fw)
			assert.Equal(t, StatusCompliant, res.Status, fw)
			assert.Empty(t, res.Issues, fw)
			assert.Equal(t, res.ControlsChecked, res.ControlsPassed)
		}
	})

	t.Run("gdpr partially compliant", func(t *testing.T) {
		doc := compliantDoc()
		delete(doc["data_protection"].(map[string]interface{}), "consent_management")
		doc["governance"].(map[string]interface{})["dpo_appointed"] = false

		res := engine.Evaluate(FrameworkGDPR, doc)
		assert.InDelta(t, 8.0/11.0, res.Score, 0.0001)
		assert.Equal(t, StatusPartiallyCompliant, res.Status)
		require.Len(t, res.Issues, 2)
		assert.Equal(t, "GDPR-7-1", res.Issues[0].RuleID)
		assert.Equal(t, "consent", res.Issues[0].Type)
	})

	t.Run("pci detects clear text card number", func(t *testing.T) {
		doc := compliantDoc()
		doc["samples"] = []interface{}{map[string]interface{}{"note": "card 4111111111111111 charged"}}
		res := engine.Evaluate(FrameworkPCIDSS, doc)
		require.NotEmpty(t, res.Issues)
		assert.Equal(t, SeverityCritical, res.Issues[0].Severity)
		assert.Equal(t, StatusNonCompliant, res.Status)
	})

	t.Run("framework without rules is pending review", func(t *testing.T) {
		res := NewEngine(nil).Evaluate(FrameworkSOX, compliantDoc())
		assert.Equal(t, 0.5, res.Score)
		assert.Equal(t, StatusPendingReview, res.Status)
	})
}

func TestStatusForScore(t *testing.T) {
	assert.Equal(t, StatusCompliant, StatusForScore(0.90))
	assert.Equal(t, StatusPartiallyCompliant, StatusForScore(0.89))
	assert.Equal(t, StatusPartiallyCompliant, StatusForScore(0.70))
	assert.Equal(t, StatusNonCompliant, StatusForScore(0.6999))
}

func TestAggregate(t *testing.T) {
	results := []FrameworkResult{
		{Framework: FrameworkSOX, Score: 0.85, Status: StatusPartiallyCompliant, Issues: []Issue{}},
		{Framework: FrameworkGDPR, Score: 0.75, Status: StatusPartiallyCompliant, Issues: []Issue{
			{Framework: FrameworkGDPR, Type: "data_retention", Severity: SeverityMedium, Recommendation: "Document retention"},
		}},
		{Framework: FrameworkISO27001, Score: 0.90, Status: StatusCompliant, Issues: []Issue{}},
	}

	t.Run("average score and no standard recommendations at 0.8333", func(t *testing.T) {
		agg := Aggregate(results, false)
		assert.InDelta(t, 0.8333, agg.OverallScore, 0.0001)
		assert.Equal(t, StatusPartiallyCompliant, agg.OverallStatus)
		assert.Equal(t, []string{"Document retention"}, agg.Recommendations)
		assert.Len(t, agg.Issues, 1)
	})

	t.Run("standard recommendations below threshold", func(t *testing.T) {
		low := []FrameworkResult{{Framework: FrameworkSOX, Score: 0.5, Issues: []Issue{}}}
		agg := Aggregate(low, false)
		assert.Equal(t, StatusNonCompliant, agg.OverallStatus)
		assert.Equal(t, standardRecommendations, agg.Recommendations)
	})

	t.Run("strict mode fails on critical issue", func(t *testing.T) {
		crit := []FrameworkResult{{Framework: FrameworkSOX, Score: 0.95, Issues: []Issue{{Severity: SeverityCritical}}}}
		assert.Equal(t, StatusCompliant, Aggregate(crit, false).OverallStatus)
		assert.Equal(t, StatusNonCompliant, Aggregate(crit, true).OverallStatus)
	})

	t.Run("empty results", func(t *testing.T) {
		agg := Aggregate(nil, false)
		assert.Equal(t, 0.0, agg.OverallScore)
		assert.Equal(t, StatusNonCompliant, agg.OverallStatus)
	})
}

func TestCacheKey(t *testing.T) {
	data := map[string]interface{}{"b": 1, "a": map[string]interface{}{"y": true, "x": "z"}}

	k1, err := CacheKey(data, []string{"SOX", "GDPR"})
	require.NoError(t, err)
	k2, err := CacheKey(data, []string{"GDPR", "SOX"})
	require.NoError(t, err)
	k3, err := CacheKey(data, []string{"SOX"})
	require.NoError(t, err)

	assert.Len(t, k1, 32)
	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)

	_, err = CacheKey(map[string]interface{}{"c": make(chan int)}, nil)
	assert.Error(t, err)
}

func TestFresh(t *testing.T) {
	now := time.Now()
	r := &Result{CheckedAt: now.Add(-30 * time.Minute)}
	assert.True(t, Fresh(r, time.Hour, now))
	assert.False(t, Fresh(r, 10*time.Minute, now))
	assert.False(t, Fresh(nil, time.Hour, now))
}

func TestParseFramework(t *testing.T) {
	fw, err := ParseFramework("pci-dss")
	require.NoError(t, err)
	assert.Equal(t, FrameworkPCIDSS, fw)

	_, err = ParseFramework("FEDRAMP")
	assert.ErrorIs(t, err, ErrUnsupportedFramework)
}

func TestLookup(t *testing.T) {
	doc := map[string]interface{}{"a": map[string]interface{}{"list": []interface{}{"x", map[string]interface{}{"k": 1}}}}

	v, ok := Lookup(doc, "a.list.1.k")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = Lookup(doc, "a.list.5")
	assert.False(t, ok)
	_, ok = Lookup(doc, "a.missing")
	assert.False(t, ok)

	root, ok := Lookup(doc, RootPath)
	assert.True(t, ok)
	assert.Equal(t, doc, root)
}

func TestValidatePolicy(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	t.Run("success - valid policy", func(t *testing.T) {
		policy := map[string]interface{}{
			"name": "Access", "version": "1.0", "owner": "secops", "rules": []interface{}{"r1"},
			"roles": []interface{}{"admin"}, "review_frequency_days": 90,
			"description": "who gets access", "review_date": "2024-01-15",
		}
		v := ValidatePolicy(policy, "access", now)
		assert.True(t, v.IsValid)
		assert.Empty(t, v.Violations)
		assert.Empty(t, v.Warnings)
		assert.Equal(t, baseRecommendations, v.Recommendations)
	})

	t.Run("missing keys and stale review", func(t *testing.T) {
		policy := map[string]interface{}{"name": "Sec", "rules": "not-a-list", "review_date": "2022-01-01",
			"password_min_length": 8, "mfa_required": false}
		v := ValidatePolicy(policy, "security", now)
		assert.False(t, v.IsValid)

		fields := map[string]bool{}
		for _, viol := range v.Violations {
			fields[viol.Field] = true
		}
		assert.True(t, fields["version"])
		assert.True(t, fields["owner"])
		assert.True(t, fields["rules"])
		assert.Contains(t, v.Warnings, "Policy has not been reviewed in over a year")
		assert.Contains(t, v.Warnings, "password_min_length below 12 characters")
		assert.Contains(t, v.Recommendations, "Schedule a policy review")
	})
}

func TestBuildReport(t *testing.T) {
	now := time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)
	result := &Result{
		OverallScore:     0.72,
		OverallStatus:    StatusPartiallyCompliant,
		FrameworkResults: []FrameworkResult{{Framework: FrameworkSOX}},
		Issues: []Issue{
			{Framework: FrameworkSOX, Severity: SeverityCritical, Description: "logging off", Control: "302"},
			{Framework: FrameworkSOX, Severity: SeverityLow, Description: "minor"},
		},
	}
	history := []*CheckRecord{
		{OverallScore: 0.70, CreatedAt: now.Add(-time.Hour)},
		{OverallScore: 0.60, CreatedAt: now.Add(-48 * time.Hour)},
	}

	rep := BuildReport(result, history, FormatJSON, now)

	assert.Equal(t, "compliance_20240305_140709", rep.ReportID)
	assert.Equal(t, 1, rep.ExecutiveSummary.CriticalIssues)
	assert.Equal(t, 2, rep.ExecutiveSummary.TotalIssues)
	require.Len(t, rep.ActionItems, 2)
	assert.Equal(t, "critical", rep.ActionItems[0].Priority)
	assert.Equal(t, "Address critical compliance gaps", rep.ActionItems[1].Action)
	assert.Equal(t, now.AddDate(0, 0, 30), rep.ActionItems[1].DueDate)
	assert.Equal(t, "improving", rep.Trends.Trend)
	assert.Equal(t, "+12%", rep.Trends.ScoreChange)
	assert.Equal(t, 0.60, rep.Trends.Points[0].Score)
}

func TestAnalyzeTrends_NoHistory(t *testing.T) {
	tr := AnalyzeTrends(nil, 0.9)
	assert.Equal(t, "insufficient_data", tr.Trend)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)
	f, err = ParseFormat("PDF")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)
	_, err = ParseFormat("docx")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
