package compliance

import (
	"fmt"
	"strings"
	"time"
)

// PolicyViolation is a structural problem that makes a policy invalid.
type PolicyViolation struct {
	Field    string   `json:"field"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// PolicyValidation is the outcome of ValidatePolicy.
type PolicyValidation struct {
	PolicyType      string            `json:"policy_type"`
	ValidatedAt     time.Time         `json:"validated_at"`
	IsValid         bool              `json:"is_valid"`
	Violations      []PolicyViolation `json:"violations"`
	Warnings        []string          `json:"warnings"`
	Recommendations []string          `json:"recommendations"`
}

var requiredPolicyKeys = []string{"name", "version", "owner", "rules"}

// typeRequiredKeys are extra keys demanded by specific policy types.
var typeRequiredKeys = map[string][]string{
	"access":   {"roles", "review_frequency_days"},
	"data":     {"classification", "retention_days"},
	"security": {"password_min_length", "mfa_required"},
}

var baseRecommendations = []string{
	"Review policy settings quarterly",
	"Implement automated compliance monitoring",
}

// ValidatePolicy checks a policy document's structure and freshness.
func ValidatePolicy(policy map[string]interface{}, policyType string, now time.Time) PolicyValidation {
	policyType = strings.ToLower(strings.TrimSpace(policyType))
	if policyType == "" {
		policyType = "general"
	}
	out := PolicyValidation{
		PolicyType:      policyType,
		ValidatedAt:     now.UTC(),
		Violations:      []PolicyViolation{},
		Warnings:        []string{},
		Recommendations: append([]string(nil), baseRecommendations...),
	}

	required := append(append([]string(nil), requiredPolicyKeys...), typeRequiredKeys[policyType]...)
	for _, key := range required {
		if v, ok := policy[key]; !ok || isEmpty(v) {
			out.Violations = append(out.Violations, PolicyViolation{
				Field:    key,
				Message:  fmt.Sprintf("%s is required", key),
				Severity: SeverityHigh,
			})
		}
	}
	if raw, ok := policy["rules"]; ok && raw != nil {
		if _, isList := raw.([]interface{}); !isList {
			out.Violations = append(out.Violations, PolicyViolation{
				Field:    "rules",
				Message:  "rules must be a list",
				Severity: SeverityHigh,
			})
		}
	}

	if v, ok := policy["description"]; !ok || isEmpty(v) {
		out.Warnings = append(out.Warnings, "Policy has no description")
	}
	switch reviewed := policy["review_date"].(type) {
	case string:
		t, err := time.Parse("2006-01-02", reviewed)
		if err != nil {
			out.Warnings = append(out.Warnings, "review_date is not a YYYY-MM-DD date")
		} else if now.Sub(t) > 365*24*time.Hour {
			out.Warnings = append(out.Warnings, "Policy has not been reviewed in over a year")
			out.Recommendations = append(out.Recommendations, "Schedule a policy review")
		}
	default:
		out.Warnings = append(out.Warnings, "Policy has no review_date")
	}
	if policyType == "security" {
		if n, ok := toFloat(policy["password_min_length"]); ok && n < 12 {
			out.Warnings = append(out.Warnings, "password_min_length below 12 characters")
		}
		if b, ok := policy["mfa_required"].(bool); ok && !b {
			out.Warnings = append(out.Warnings, "Consider implementing additional security measures")
		}
	}

	out.IsValid = len(out.Violations) == 0
	return out
}
