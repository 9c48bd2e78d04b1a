package compliance

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Engine evaluates documents against loaded rule sets. It is read-only after
// construction and safe for concurrent use.
type Engine struct {
	sets map[Framework]*RuleSet
}

// NewEngine creates an engine over the given rule sets.
func NewEngine(sets map[Framework]*RuleSet) *Engine {
	if sets == nil {
		sets = map[Framework]*RuleSet{}
	}
	return &Engine{sets: sets}
}

// RulesLoaded returns the total number of rules across frameworks.
func (e *Engine) RulesLoaded() int {
	n := 0
	for _, rs := range e.sets {
		n += len(rs.Rules)
	}
	return n
}

// Evaluate checks data against one framework. A framework without rules is
// reported as pending review.
func (e *Engine) Evaluate(fw Framework, data map[string]interface{}) FrameworkResult {
	res := FrameworkResult{Framework: fw, Issues: []Issue{}}

	rs, ok := e.sets[fw]
	if !ok || len(rs.Rules) == 0 {
		res.Score = pendingReviewScore
		res.Status = StatusPendingReview
		return res
	}

	var passedWeight float64
	for i := range rs.Rules {
		r := &rs.Rules[i]
		res.ControlsChecked++
		if r.passes(data) {
			res.ControlsPassed++
			passedWeight += r.Weight
			continue
		}
		res.Issues = append(res.Issues, Issue{
			Framework:      fw,
			RuleID:         r.ID,
			Control:        r.Control,
			Type:           r.Category,
			Severity:       r.Severity,
			Description:    r.Description,
			Recommendation: r.Recommendation,
		})
	}

	res.Score = roundScore(passedWeight / rs.TotalWeight())
	res.Status = StatusForScore(res.Score)
	return res
}

func (r *Rule) passes(data map[string]interface{}) bool {
	val, found := Lookup(data, r.Path)

	switch r.Check {
	case CheckRequiredField:
		return found && !isEmpty(val)
	case CheckFieldTrue:
		b, ok := val.(bool)
		return found && ok && b
	case CheckFieldEquals:
		return found && jsonEqual(val, r.Value)
	case CheckFieldMin:
		got, ok := toFloat(val)
		want, _ := toFloat(r.Value)
		return found && ok && got >= want
	case CheckFieldMax:
		got, ok := toFloat(val)
		want, _ := toFloat(r.Value)
		return found && ok && got <= want
	case CheckFieldMatches:
		s, ok := val.(string)
		return found && ok && r.compiled.MatchString(s)
	case CheckFieldAbsentPattern:
		if !found {
			return true
		}
		return !anyStringMatches(val, r)
	default:
		return false
	}
}

// Lookup resolves a dotted path ("a.b.0.c") in a decoded JSON document.
// RootPath returns the document itself.
func Lookup(data map[string]interface{}, path string) (interface{}, bool) {
	if path == RootPath {
		return data, true
	}
	var cur interface{} = data
	for _, part := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]interface{}:
			v, ok := node[part]
			if !ok {
				return nil, false
			}
			cur = v
		case []interface{}:
			idx, err := strconv.Atoi(part)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			cur = node[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}

func anyStringMatches(v interface{}, r *Rule) bool {
	switch node := v.(type) {
	case string:
		return r.compiled.MatchString(node)
	case map[string]interface{}:
		for _, child := range node {
			if anyStringMatches(child, r) {
				return true
			}
		}
	case []interface{}:
		for _, child := range node {
			if anyStringMatches(child, r) {
				return true
			}
		}
	}
	return false
}

func isEmpty(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []interface{}:
		return len(t) == 0
	case map[string]interface{}:
		return len(t) == 0
	default:
		return false
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func jsonEqual(a, b interface{}) bool {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}
