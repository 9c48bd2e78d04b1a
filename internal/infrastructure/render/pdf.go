package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/chiragkoyande/audit-project/internal/domain/compliance"
)

// PDF renders the report as an A4 document.
func PDF(r *compliance.Report) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Compliance Report "+r.ReportID, true)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	heading := func(text string) {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 13)
		pdf.CellFormat(0, 8, tr(text), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
	}
	row := func(label, value string) {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(55, 6, tr(label), "1", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 6, tr(value), "1", 1, "L", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, "Compliance Report", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 5, tr(fmt.Sprintf("%s - generated %s", r.ReportID, r.GeneratedAt.Format(timeLayout))), "", 1, "C", false, 0, "")

	s := r.ExecutiveSummary
	heading("Executive Summary")
	row("Overall Status", label(s.OverallStatus))
	row("Compliance Score", fmt.Sprintf("%.1f%%", s.ComplianceScore*100))
	row("Frameworks Assessed", fmt.Sprint(s.FrameworksAssessed))
	row("Total Issues", fmt.Sprint(s.TotalIssues))
	row("Critical Issues", fmt.Sprint(s.CriticalIssues))

	if r.DetailedFindings != nil {
		heading("Frameworks")
		for _, fr := range r.DetailedFindings.FrameworkResults {
			row(string(fr.Framework), fmt.Sprintf("%s, %.1f%%, %d/%d controls passed",
				label(fr.Status), fr.Score*100, fr.ControlsPassed, fr.ControlsChecked))
		}

		if len(r.DetailedFindings.Issues) > 0 {
			heading("Issues")
			for _, i := range r.DetailedFindings.Issues {
				pdf.SetFont("Helvetica", "B", 10)
				pdf.MultiCell(0, 5, tr(fmt.Sprintf("[%s] %s %s", strings.ToUpper(string(i.Severity)), i.Framework, i.Control)), "", "L", false)
				pdf.SetFont("Helvetica", "", 10)
				pdf.MultiCell(0, 5, tr(i.Description), "", "L", false)
				if i.Recommendation != "" {
					pdf.MultiCell(0, 5, tr("Recommendation: "+i.Recommendation), "", "L", false)
				}
				pdf.Ln(2)
			}
		}
	}

	if len(r.ActionItems) > 0 {
		heading("Action Items")
		for _, a := range r.ActionItems {
			pdf.MultiCell(0, 5, tr(fmt.Sprintf("%s (%s, due %s)", a.Action, a.Priority, a.DueDate.Format(dateLayout))), "", "L", false)
		}
	}

	heading("Trend")
	pdf.MultiCell(0, 5, tr(fmt.Sprintf("%s (%s over %s)", label(r.Trends.Trend), r.Trends.ScoreChange, label(r.Trends.Period))), "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf report: %w", err)
	}
	return buf.Bytes(), nil
}

func label(v interface{}) string {
	return strings.ReplaceAll(fmt.Sprint(v), "_", " ")
}
