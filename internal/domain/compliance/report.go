package compliance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Format is an output format of a compliance report.
type Format string

// Report formats.
const (
	FormatJSON Format = "json"
	FormatHTML Format = "html"
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

// ParseFormat validates a report format. Empty input yields json.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatHTML, FormatPDF, FormatXLSX:
		return f, nil
	default:
		return "", ErrUnsupportedFormat
	}
}

// ExecutiveSummary condenses a result for report readers.
type ExecutiveSummary struct {
	OverallStatus      Status  `json:"overall_status"`
	ComplianceScore    float64 `json:"compliance_score"`
	FrameworksAssessed int     `json:"frameworks_assessed"`
	TotalIssues        int     `json:"total_issues"`
	CriticalIssues     int     `json:"critical_issues"`
}

// ActionItem is a follow-up task derived from the findings.
type ActionItem struct {
	Priority string    `json:"priority"`
	Action   string    `json:"action"`
	Control  string    `json:"control,omitempty"`
	DueDate  time.Time `json:"due_date"`
}

// TrendPoint is one historical score.
type TrendPoint struct {
	CheckedAt time.Time `json:"checked_at"`
	Score     float64   `json:"score"`
}

// Trends summarises score movement across recent checks.
type Trends struct {
	Trend       string       `json:"trend"`
	ScoreChange string       `json:"score_change"`
	Period      string       `json:"period"`
	Points      []TrendPoint `json:"points"`
}

// Report is a generated compliance report.
type Report struct {
	ReportID         string           `json:"report_id"`
	GeneratedAt      time.Time        `json:"generated_at"`
	Format           Format           `json:"report_format"`
	ExecutiveSummary ExecutiveSummary `json:"executive_summary"`
	DetailedFindings *Result          `json:"detailed_findings"`
	ActionItems      []ActionItem     `json:"action_items"`
	Trends           Trends           `json:"compliance_trends"`
	HTMLContent      string           `json:"html_content,omitempty"`
	ArtifactKey      string           `json:"artifact_key,omitempty"`
	ArtifactURL      string           `json:"artifact_url,omitempty"`
}

const actionItemDueDays = 30

// BuildReport assembles a report from a result and recent history.
func BuildReport(result *Result, history []*CheckRecord, format Format, now time.Time) *Report {
	now = now.UTC()
	return &Report{
		ReportID:    "compliance_" + now.Format("20060102_150405"),
		GeneratedAt: now,
		Format:      format,
		ExecutiveSummary: ExecutiveSummary{
			OverallStatus:      result.OverallStatus,
			ComplianceScore:    result.OverallScore,
			FrameworksAssessed: len(result.FrameworkResults),
			TotalIssues:        len(result.Issues),
			CriticalIssues:     result.CriticalIssues(),
		},
		DetailedFindings: result,
		ActionItems:      actionItems(result, now),
		Trends:           AnalyzeTrends(history, result.OverallScore),
	}
}

func actionItems(result *Result, now time.Time) []ActionItem {
	due := now.AddDate(0, 0, actionItemDueDays)
	items := []ActionItem{}
	for _, i := range result.Issues {
		if !i.Severity.AtLeastHigh() {
			continue
		}
		items = append(items, ActionItem{
			Priority: string(i.Severity),
			Action:   fmt.Sprintf("[%s] %s", i.Framework, i.Description),
			Control:  i.Control,
			DueDate:  due,
		})
	}
	if result.OverallScore < RecommendationThreshold {
		items = append(items, ActionItem{
			Priority: "high",
			Action:   "Address critical compliance gaps",
			DueDate:  due,
		})
	}
	return items
}

// AnalyzeTrends compares the current score with history ordered newest first.
func AnalyzeTrends(history []*CheckRecord, current float64) Trends {
	t := Trends{Period: "30_days", Points: make([]TrendPoint, 0, len(history))}
	for i := len(history) - 1; i >= 0; i-- {
		t.Points = append(t.Points, TrendPoint{CheckedAt: history[i].CreatedAt, Score: history[i].OverallScore})
	}
	if len(history) == 0 {
		t.Trend = "insufficient_data"
		t.ScoreChange = "+0%"
		return t
	}

	oldest := history[len(history)-1].OverallScore
	delta := (current - oldest) * 100
	switch {
	case delta > 0.5:
		t.Trend = "improving"
	case delta < -0.5:
		t.Trend = "declining"
	default:
		t.Trend = "stable"
	}
	t.ScoreChange = fmt.Sprintf("%+.0f%%", delta)
	return t
}

// CheckRecord is a persisted summary of one compliance check.
type CheckRecord struct {
	ID            uuid.UUID
	CacheKey      string
	Frameworks    []Framework
	OverallScore  float64
	OverallStatus Status
	IssueCount    int
	CreatedAt     time.Time
}

// NewCheckRecord summarises a result for the history table.
func NewCheckRecord(r *Result) *CheckRecord {
	return &CheckRecord{
		ID:            uuid.New(),
		CacheKey:      r.CacheKey,
		Frameworks:    r.Frameworks,
		OverallScore:  r.OverallScore,
		OverallStatus: r.OverallStatus,
		IssueCount:    len(r.Issues),
		CreatedAt:     r.CheckedAt,
	}
}

// HistoryRepository persists check summaries for trend analysis.
type HistoryRepository interface {
	Save(ctx context.Context, record *CheckRecord) error
	// ListRecent returns records checking exactly these frameworks, newest first.
	ListRecent(ctx context.Context, frameworks []Framework, since time.Time, limit int) ([]*CheckRecord, error)
}
