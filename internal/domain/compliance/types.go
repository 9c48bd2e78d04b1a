// Package compliance provides the rule engine and result model used to check
// arbitrary JSON documents against regulatory compliance frameworks.
package compliance

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Domain-specific errors for compliance package.
var (
	ErrUnsupportedFramework = errors.New("unsupported compliance framework")
	ErrNoFrameworks         = errors.New("no supported frameworks to check")
	ErrEmptyData            = errors.New("compliance data cannot be empty")
	ErrUnsupportedFormat    = errors.New("report format must be one of json, html, pdf, xlsx")
	ErrInvalidRule          = errors.New("invalid compliance rule")
)

// Framework is a named regulatory standard.
type Framework string

// Supported frameworks.
const (
	FrameworkSOX      Framework = "SOX"
	FrameworkGDPR     Framework = "GDPR"
	FrameworkISO27001 Framework = "ISO27001"
	FrameworkHIPAA    Framework = "HIPAA"
	FrameworkPCIDSS   Framework = "PCI_DSS"
	FrameworkSOC2     Framework = "SOC2"
	FrameworkNIST     Framework = "NIST"
	FrameworkCOBIT    Framework = "COBIT"
)

// SupportedFrameworks lists every framework the engine knows, in display order.
var SupportedFrameworks = []Framework{
	FrameworkSOX, FrameworkGDPR, FrameworkISO27001, FrameworkHIPAA,
	FrameworkPCIDSS, FrameworkSOC2, FrameworkNIST, FrameworkCOBIT,
}

// ParseFramework normalizes a framework name ("pci-dss" -> PCI_DSS).
func ParseFramework(s string) (Framework, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	name = strings.ReplaceAll(name, "-", "_")
	for _, f := range SupportedFrameworks {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFramework, s)
}

// Status is a compliance verdict.
type Status string

// Compliance verdicts.
const (
	StatusCompliant          Status = "compliant"
	StatusNonCompliant       Status = "non_compliant"
	StatusPartiallyCompliant Status = "partially_compliant"
	StatusPendingReview      Status = "pending_review"
	StatusNotApplicable      Status = "not_applicable"
)

// Score thresholds.
const (
	CompliantThreshold      = 0.90
	PartialThreshold        = 0.70
	RecommendationThreshold = 0.80

	// pendingReviewScore is reported for a framework that has no rules loaded.
	pendingReviewScore = 0.50
)

// StatusForScore maps a score in [0,1] to a verdict.
func StatusForScore(score float64) Status {
	switch {
	case score >= CompliantThreshold:
		return StatusCompliant
	case score >= PartialThreshold:
		return StatusPartiallyCompliant
	default:
		return StatusNonCompliant
	}
}

// Severity ranks an issue.
type Severity string

// Issue severities.
const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// UnmarshalYAML rejects unknown severities in rule files.
func (s *Severity) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	switch sev := Severity(strings.ToLower(raw)); sev {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo:
		*s = sev
		return nil
	default:
		return fmt.Errorf("invalid severity: %q", raw)
	}
}

// AtLeastHigh reports whether the severity is high or critical.
func (s Severity) AtLeastHigh() bool {
	return s == SeverityCritical || s == SeverityHigh
}
