package render

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/chiragkoyande/audit-project/internal/domain/compliance"
)

// XLSX renders the report as a workbook with summary, issue and action sheets.
func XLSX(r *compliance.Report) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	// Summary
	summary := "Summary"
	index, _ := f.NewSheet(summary)
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	s := r.ExecutiveSummary
	rows := [][]interface{}{
		{"Report ID", r.ReportID},
		{"Generated At", r.GeneratedAt.Format(timeLayout)},
		{"Overall Status", string(s.OverallStatus)},
		{"Compliance Score", s.ComplianceScore},
		{"Frameworks Assessed", s.FrameworksAssessed},
		{"Total Issues", s.TotalIssues},
		{"Critical Issues", s.CriticalIssues},
		{"Trend", r.Trends.Trend},
		{"Score Change", r.Trends.ScoreChange},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		_ = f.SetSheetRow(summary, cell, &row)
	}
	_ = f.SetColWidth(summary, "A", "A", 22)
	_ = f.SetColWidth(summary, "B", "B", 30)

	if r.DetailedFindings != nil {
		// Frameworks
		frameworks := "Frameworks"
		_, _ = f.NewSheet(frameworks)
		writeHeader(f, frameworks, headerStyle, "Framework", "Status", "Score", "Controls Checked", "Controls Passed")
		for i, fr := range r.DetailedFindings.FrameworkResults {
			cell, _ := excelize.CoordinatesToCellName(1, i+2)
			_ = f.SetSheetRow(frameworks, cell, &[]interface{}{
				string(fr.Framework), string(fr.Status), fr.Score, fr.ControlsChecked, fr.ControlsPassed,
			})
		}
		_ = f.SetColWidth(frameworks, "A", "E", 18)

		// Issues
		issues := "Issues"
		_, _ = f.NewSheet(issues)
		writeHeader(f, issues, headerStyle, "Framework", "Rule", "Control", "Severity", "Type", "Description", "Recommendation")
		for i, is := range r.DetailedFindings.Issues {
			cell, _ := excelize.CoordinatesToCellName(1, i+2)
			_ = f.SetSheetRow(issues, cell, &[]interface{}{
				string(is.Framework), is.RuleID, is.Control, string(is.Severity), is.Type, is.Description, is.Recommendation,
			})
		}
		_ = f.SetColWidth(issues, "A", "E", 15)
		_ = f.SetColWidth(issues, "F", "G", 50)
	}

	// Action items
	actions := "Action Items"
	_, _ = f.NewSheet(actions)
	writeHeader(f, actions, headerStyle, "Priority", "Action", "Control", "Due Date")
	for i, a := range r.ActionItems {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		_ = f.SetSheetRow(actions, cell, &[]interface{}{a.Priority, a.Action, a.Control, a.DueDate.Format(dateLayout)})
	}
	_ = f.SetColWidth(actions, "A", "A", 10)
	_ = f.SetColWidth(actions, "B", "B", 60)
	_ = f.SetColWidth(actions, "C", "D", 15)

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write excel to buffer: %w", err)
	}
	return buffer.Bytes(), nil
}

func writeHeader(f *excelize.File, sheet string, style int, headers ...string) {
	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		_ = f.SetCellValue(sheet, cell, header)
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	_ = f.SetCellStyle(sheet, "A1", last, style)
}
