package compliance

import "time"

// Issue is a failed control found while evaluating a framework.
type Issue struct {
	Framework      Framework `json:"framework"`
	RuleID         string    `json:"rule_id"`
	Control        string    `json:"control"`
	Type           string    `json:"type"`
	Severity       Severity  `json:"severity"`
	Description    string    `json:"description"`
	Recommendation string    `json:"recommendation,omitempty"`
}

// FrameworkResult is the verdict for one framework.
type FrameworkResult struct {
	Framework       Framework `json:"framework"`
	Status          Status    `json:"status"`
	Score           float64   `json:"score"`
	Issues          []Issue   `json:"issues"`
	ControlsChecked int       `json:"controls_checked"`
	ControlsPassed  int       `json:"controls_passed"`
}

// Result is the aggregated outcome of a compliance check.
type Result struct {
	CacheKey          string            `json:"cache_key"`
	Frameworks        []Framework       `json:"frameworks_checked"`
	SkippedFrameworks []string          `json:"skipped_frameworks,omitempty"`
	OverallScore      float64           `json:"compliance_score"`
	OverallStatus     Status            `json:"overall_status"`
	FrameworkResults  []FrameworkResult `json:"framework_results"`
	Issues            []Issue           `json:"issues"`
	Recommendations   []string          `json:"recommendations"`
	CheckedAt         time.Time         `json:"checked_at"`
	Cached            bool              `json:"cached"`
}

// CriticalIssues counts critical-severity issues.
func (r *Result) CriticalIssues() int {
	n := 0
	for _, i := range r.Issues {
		if i.Severity == SeverityCritical {
			n++
		}
	}
	return n
}

// standardRecommendations are added whenever the overall score is below RecommendationThreshold.
var standardRecommendations = []string{
	"Implement additional security controls",
	"Enhance documentation processes",
	"Conduct regular compliance training",
}

// Aggregate combines per-framework results into an overall Result.
// In strict mode any critical issue forces a non-compliant verdict.
func Aggregate(results []FrameworkResult, strict bool) Result {
	out := Result{
		FrameworkResults: results,
		Issues:           []Issue{},
		Recommendations:  []string{},
	}

	var total float64
	for _, fr := range results {
		out.Frameworks = append(out.Frameworks, fr.Framework)
		out.Issues = append(out.Issues, fr.Issues...)
		total += fr.Score
	}
	if len(results) > 0 {
		out.OverallScore = roundScore(total / float64(len(results)))
	}
	out.OverallStatus = StatusForScore(out.OverallScore)
	if strict && out.CriticalIssues() > 0 {
		out.OverallStatus = StatusNonCompliant
	}

	if out.OverallScore < RecommendationThreshold {
		out.Recommendations = append(out.Recommendations, standardRecommendations...)
	}
	seen := make(map[string]bool, len(out.Recommendations))
	for _, r := range out.Recommendations {
		seen[r] = true
	}
	for _, i := range out.Issues {
		if i.Recommendation != "" && !seen[i.Recommendation] {
			seen[i.Recommendation] = true
			out.Recommendations = append(out.Recommendations, i.Recommendation)
		}
	}
	return out
}

func roundScore(v float64) float64 {
	return float64(int64(v*10000+0.5)) / 10000
}
