package auditlog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"github.com/chiragkoyande/audit-project/internal/domain/auditlog"
	"github.com/chiragkoyande/audit-project/internal/domain/shared"
	"github.com/chiragkoyande/audit-project/internal/infrastructure/storage"
)

// MaxExportRows bounds a single export.
const MaxExportRows = 10000

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ArtifactStore stores generated files and returns a download link.
type ArtifactStore interface {
	Put(ctx context.Context, folder, name string, data []byte, contentType string) (*storage.Artifact, error)
}

// ExportQuery represents the export audit logs query. Paging fields are ignored.
type ExportQuery struct {
	Filter ListQuery
}

// ExportResult represents the export audit logs result. Artifact is set when
// the file was uploaded to object storage.
type ExportResult struct {
	FileContent []byte
	FileName    string
	RowCount    int
	Truncated   bool
	Artifact    *storage.Artifact
}

// ExportHandler handles the ExportAuditLogs query.
type ExportHandler struct {
	repo  auditlog.Repository
	store ArtifactStore
	now   func() time.Time
}

// NewExportHandler creates a new ExportHandler. store may be nil.
func NewExportHandler(repo auditlog.Repository, store ArtifactStore) *ExportHandler {
	return &ExportHandler{repo: repo, store: store, now: time.Now}
}

// Handle executes the export audit logs query.
func (h *ExportHandler) Handle(ctx context.Context, query ExportQuery) (*ExportResult, error) {
	logs, truncated, err := h.collect(ctx, query.Filter)
	if err != nil {
		return nil, err
	}

	content, err := buildWorkbook(logs)
	if err != nil {
		return nil, err
	}

	result := &ExportResult{
		FileContent: content,
		FileName:    fmt.Sprintf("audit_logs_%s.xlsx", h.now().UTC().Format("20060102_150405")),
		RowCount:    len(logs),
		Truncated:   truncated,
	}

	if h.store != nil {
		artifact, err := h.store.Put(ctx, "exports", result.FileName, content, xlsxContentType)
		if err != nil {
			log.Warn().Err(err).Str("file", result.FileName).Msg("Failed to upload export, returning inline")
		} else {
			result.Artifact = artifact
		}
	}

	return result, nil
}

func (h *ExportHandler) collect(ctx context.Context, filter ListQuery) ([]*auditlog.AuditLog, bool, error) {
	filter.PageSize = shared.MaxPageSize
	var out []*auditlog.AuditLog

	for page := 1; ; page++ {
		filter.Page = page
		params, err := filter.params()
		if err != nil {
			return nil, false, err
		}
		logs, total, err := h.repo.List(ctx, params)
		if err != nil {
			return nil, false, fmt.Errorf("failed to get audit logs for export: %w", err)
		}
		out = append(out, logs...)

		if len(out) >= MaxExportRows {
			return out[:MaxExportRows], total > MaxExportRows, nil
		}
		if len(logs) < params.PageSize || int64(len(out)) >= total {
			return out, false, nil
		}
	}
}

func buildWorkbook(logs []*auditlog.AuditLog) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheetName := "Audit Logs"
	index, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	headers := []string{"Seq", "Timestamp", "User ID", "Action", "Resource Type", "Resource ID", "Status", "Description", "IP Address", "Changes", "Hash"}
	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		_ = f.SetCellValue(sheetName, cell, header)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "K1", headerStyle)

	for i, l := range logs {
		userID := ""
		if l.UserID() != nil {
			userID = l.UserID().String()
		}
		changes, _ := json.Marshal(l.Changes())

		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		_ = f.SetSheetRow(sheetName, cell, &[]interface{}{
			l.Seq(),
			l.Timestamp().Format("2006-01-02 15:04:05"),
			userID,
			l.Action(),
			l.ResourceType(),
			l.ResourceID(),
			string(l.Status()),
			l.Description(),
			l.IPAddress(),
			string(changes),
			l.Hash(),
		})
	}

	_ = f.SetColWidth(sheetName, "A", "A", 8)
	_ = f.SetColWidth(sheetName, "B", "B", 20)
	_ = f.SetColWidth(sheetName, "C", "C", 38)
	_ = f.SetColWidth(sheetName, "D", "G", 15)
	_ = f.SetColWidth(sheetName, "H", "H", 40)
	_ = f.SetColWidth(sheetName, "I", "I", 16)
	_ = f.SetColWidth(sheetName, "J", "K", 50)

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write excel to buffer: %w", err)
	}
	return buffer.Bytes(), nil
}
