package compliance

import (
	"embed"
	"fmt"
	"io/fs"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed rules/*.yaml
var embeddedRules embed.FS

// CheckType selects how a rule inspects the document.
type CheckType string

// Supported checks.
const (
	CheckRequiredField      CheckType = "required_field"
	CheckFieldEquals        CheckType = "field_equals"
	CheckFieldTrue          CheckType = "field_true"
	CheckFieldMin           CheckType = "field_min"
	CheckFieldMax           CheckType = "field_max"
	CheckFieldMatches       CheckType = "field_matches"
	CheckFieldAbsentPattern CheckType = "field_absent_pattern"
)

// RootPath addresses the whole document.
const RootPath = "$"

// Rule is one control check loaded from a rule file.
type Rule struct {
	ID             string      `yaml:"id"`
	Control        string      `yaml:"control"`
	Description    string      `yaml:"description"`
	Category       string      `yaml:"category"`
	Severity       Severity    `yaml:"severity"`
	Weight         float64     `yaml:"weight"`
	Check          CheckType   `yaml:"check"`
	Path           string      `yaml:"path"`
	Value          interface{} `yaml:"value"`
	Pattern        string      `yaml:"pattern"`
	Recommendation string      `yaml:"recommendation"`

	compiled *regexp.Regexp
}

// RuleSet is the rule file of one framework.
type RuleSet struct {
	Framework   Framework `yaml:"framework"`
	Version     string    `yaml:"version"`
	Description string    `yaml:"description"`
	Rules       []Rule    `yaml:"rules"`
}

// Validate checks every rule and compiles its regex.
func (rs *RuleSet) Validate() error {
	if _, err := ParseFramework(string(rs.Framework)); err != nil {
		return err
	}
	ids := make(map[string]bool, len(rs.Rules))
	for i := range rs.Rules {
		r := &rs.Rules[i]
		if r.ID == "" || ids[r.ID] {
			return fmt.Errorf("%w: %s rule %d has an empty or duplicate id", ErrInvalidRule, rs.Framework, i)
		}
		ids[r.ID] = true
		if r.Path == "" {
			return fmt.Errorf("%w: %s has no path", ErrInvalidRule, r.ID)
		}
		if r.Weight <= 0 {
			return fmt.Errorf("%w: %s weight must be positive", ErrInvalidRule, r.ID)
		}
		if r.Severity == "" {
			r.Severity = SeverityMedium
		}
		switch r.Check {
		case CheckRequiredField, CheckFieldTrue:
		case CheckFieldEquals:
			if r.Value == nil {
				return fmt.Errorf("%w: %s needs a value", ErrInvalidRule, r.ID)
			}
		case CheckFieldMin, CheckFieldMax:
			if _, ok := toFloat(r.Value); !ok {
				return fmt.Errorf("%w: %s needs a numeric value", ErrInvalidRule, r.ID)
			}
		case CheckFieldMatches, CheckFieldAbsentPattern:
			re, err := regexp.Compile(r.Pattern)
			if err != nil || r.Pattern == "" {
				return fmt.Errorf("%w: %s has a bad pattern %q", ErrInvalidRule, r.ID, r.Pattern)
			}
			r.compiled = re
		default:
			return fmt.Errorf("%w: %s has unknown check %q", ErrInvalidRule, r.ID, r.Check)
		}
	}
	return nil
}

// TotalWeight sums the weights of all rules.
func (rs *RuleSet) TotalWeight() float64 {
	var w float64
	for _, r := range rs.Rules {
		w += r.Weight
	}
	return w
}

// LoadRuleSets parses every *.yaml file in fsys. A later file for the same
// framework replaces an earlier one.
func LoadRuleSets(fsys fs.FS) (map[Framework]*RuleSet, error) {
	files, err := fs.Glob(fsys, "*.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to list rule files: %w", err)
	}
	sort.Strings(files)

	sets := make(map[Framework]*RuleSet, len(files))
	for _, name := range files {
		raw, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read rule file %s: %w", name, err)
		}
		var rs RuleSet
		if err := yaml.Unmarshal(raw, &rs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal rule file %s: %w", name, err)
		}
		fw, err := ParseFramework(string(rs.Framework))
		if err != nil {
			return nil, fmt.Errorf("rule file %s: %w", name, err)
		}
		rs.Framework = fw
		if err := rs.Validate(); err != nil {
			return nil, fmt.Errorf("rule file %s: %w", name, err)
		}
		sets[fw] = &rs
	}
	return sets, nil
}

// DefaultRuleSets loads the rule files compiled into the binary.
func DefaultRuleSets() (map[Framework]*RuleSet, error) {
	sub, err := fs.Sub(embeddedRules, "rules")
	if err != nil {
		return nil, err
	}
	return LoadRuleSets(sub)
}
