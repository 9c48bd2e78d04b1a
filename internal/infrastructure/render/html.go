// Package render turns compliance reports into html, pdf and xlsx documents.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/chiragkoyande/audit-project/internal/domain/compliance"
)

const (
	timeLayout = "2006-01-02 15:04:05 UTC"
	dateLayout = "2006-01-02"
)

var funcs = template.FuncMap{
	"pct":   func(v float64) string { return fmt.Sprintf("%.1f%%", v*100) },
	"upper": strings.ToUpper,
	"label": label,
}

var reportTemplate = template.Must(template.New("report").Funcs(funcs).Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>Compliance Report {{.ReportID}}</title>
  <style>
    body { font-family: Arial, sans-serif; margin: 40px; color: #333; }
    table { border-collapse: collapse; width: 100%; margin-bottom: 24px; }
    th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }
    th { background: #4472C4; color: #fff; }
    .critical { color: #b91c1c; font-weight: bold; }
    .high { color: #c2410c; }
  </style>
</head>
<body>
  <h1>Compliance Report</h1>
  <p>Report ID: {{.ReportID}}<br>Generated: {{.GeneratedAt.Format "2006-01-02 15:04:05 UTC"}}</p>

  <h2>Executive Summary</h2>
  <table>
    <tr><th>Overall Status</th><td>{{label .ExecutiveSummary.OverallStatus}}</td></tr>
    <tr><th>Compliance Score</th><td>{{pct .ExecutiveSummary.ComplianceScore}}</td></tr>
    <tr><th>Frameworks Assessed</th><td>{{.ExecutiveSummary.FrameworksAssessed}}</td></tr>
    <tr><th>Total Issues</th><td>{{.ExecutiveSummary.TotalIssues}}</td></tr>
    <tr><th>Critical Issues</th><td>{{.ExecutiveSummary.CriticalIssues}}</td></tr>
  </table>

  <h2>Frameworks</h2>
  <table>
    <tr><th>Framework</th><th>Status</th><th>Score</th><th>Controls Passed</th></tr>
    {{- range .DetailedFindings.FrameworkResults}}
    <tr><td>{{.Framework}}</td><td>{{label .Status}}</td><td>{{pct .Score}}</td><td>{{.ControlsPassed}} / {{.ControlsChecked}}</td></tr>
    {{- end}}
  </table>

  {{- with .DetailedFindings.Issues}}
  <h2>Issues</h2>
  <table>
    <tr><th>Framework</th><th>Control</th><th>Severity</th><th>Description</th><th>Recommendation</th></tr>
    {{- range .}}
    <tr><td>{{.Framework}}</td><td>{{.Control}}</td><td class="{{.Severity}}">{{upper (printf "%s" .Severity)}}</td><td>{{.Description}}</td><td>{{.Recommendation}}</td></tr>
    {{- end}}
  </table>
  {{- end}}

  {{- with .ActionItems}}
  <h2>Action Items</h2>
  <table>
    <tr><th>Priority</th><th>Action</th><th>Due</th></tr>
    {{- range .}}
    <tr><td>{{.Priority}}</td><td>{{.Action}}</td><td>{{.DueDate.Format "2006-01-02"}}</td></tr>
    {{- end}}
  </table>
  {{- end}}

  {{- with .DetailedFindings.Recommendations}}
  <h2>Recommendations</h2>
  <ul>
    {{- range .}}
    <li>{{.}}</li>
    {{- end}}
  </ul>
  {{- end}}

  <h2>Trend</h2>
  <p>{{label .Trends.Trend}} ({{.Trends.ScoreChange}} over {{label .Trends.Period}})</p>
</body>
</html>
`))

// HTML renders the report as a standalone html page.
func HTML(r *compliance.Report) ([]byte, error) {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, r); err != nil {
		return nil, fmt.Errorf("failed to render html report: %w", err)
	}
	return buf.Bytes(), nil
}
