package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/chiragkoyande/audit-project/internal/domain/compliance"
)

func sampleReport() *compliance.Report {
	now := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	result := &compliance.Result{
		Frameworks:    []compliance.Framework{"SOX"},
		OverallScore:  0.6,
		OverallStatus: compliance.StatusNonCompliant,
		FrameworkResults: []compliance.FrameworkResult{{
			Framework: "SOX", Status: compliance.StatusNonCompliant, Score: 0.6, ControlsChecked: 5, ControlsPassed: 3,
		}},
		Issues: []compliance.Issue{{
			Framework:      "SOX",
			RuleID:         "sox-404-1",
			Control:        "SOX-404",
			Type:           "internal_controls",
			Severity:       compliance.SeverityCritical,
			Description:    "Segregation of duties <not> documented",
			Recommendation: "Document approval workflow",
		}},
		Recommendations: []string{"Implement additional security controls"},
		CheckedAt:       now,
	}
	return compliance.BuildReport(result, nil, compliance.FormatPDF, now)
}

func TestHTML(t *testing.T) {
	out, err := HTML(sampleReport())
	require.NoError(t, err)
	html := string(out)

	assert.Contains(t, html, "compliance_20240601_093000")
	assert.Contains(t, html, "non compliant")
	assert.Contains(t, html, "60.0%")
	assert.Contains(t, html, "CRITICAL")
	assert.Contains(t, html, "Segregation of duties &lt;not&gt; documented")
	assert.Contains(t, html, "Address critical compliance gaps")
	assert.Contains(t, html, "insufficient data")
}

func TestPDF(t *testing.T) {
	out, err := PDF(sampleReport())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestXLSX(t *testing.T) {
	out, err := XLSX(sampleReport())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{"Summary", "Frameworks", "Issues", "Action Items"}, f.GetSheetList())

	v, err := f.GetCellValue("Summary", "B1")
	require.NoError(t, err)
	assert.Equal(t, "compliance_20240601_093000", v)

	header, err := f.GetCellValue("Issues", "D1")
	require.NoError(t, err)
	assert.Equal(t, "Severity", header)

	sev, err := f.GetCellValue("Issues", "D2")
	require.NoError(t, err)
	assert.Equal(t, "critical", sev)

	action, err := f.GetCellValue("Action Items", "B2")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(action, "[SOX]"))
}
