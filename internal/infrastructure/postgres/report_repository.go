package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chiragkoyande/audit-project/internal/domain/report"
	"github.com/chiragkoyande/audit-project/internal/domain/shared"
)

const reportColumns = `id, title, content, user_id, status, metadata, created_at, updated_at`

var reportSortColumns = map[string]string{
	"title":      "title",
	"status":     "status",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

// ReportRepository implements report.Repository interface.
type ReportRepository struct {
	db *DB
}

// NewReportRepository creates a new ReportRepository.
func NewReportRepository(db *DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create inserts a new report.
func (r *ReportRepository) Create(ctx context.Context, rep *report.Report) error {
	metadata, err := toJSONB(rep.Metadata())
	if err != nil {
		return err
	}
	if metadata == nil {
		metadata = []byte("{}")
	}
	query := `
		INSERT INTO reports (` + reportColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = r.db.ExecContext(ctx, query,
		rep.ID(), rep.Title(), rep.Content(), rep.UserID(), string(rep.Status()),
		metadata, rep.CreatedAt(), rep.UpdatedAt(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return fmt.Errorf("failed to insert report: %w", err)
	}
	return nil
}

// GetByID retrieves a report by ID.
func (r *ReportRepository) GetByID(ctx context.Context, id uuid.UUID) (*report.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE id = $1`

	var row reportRow
	if err := row.scan(r.db.QueryRowContext(ctx, query, id)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return row.toDomain(), nil
}

// Update persists report changes.
func (r *ReportRepository) Update(ctx context.Context, rep *report.Report) error {
	metadata, err := toJSONB(rep.Metadata())
	if err != nil {
		return err
	}
	if metadata == nil {
		metadata = []byte("{}")
	}
	query := `
		UPDATE reports
		SET title = $2, content = $3, status = $4, metadata = $5, updated_at = $6
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query,
		rep.ID(), rep.Title(), rep.Content(), string(rep.Status()), metadata, rep.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to update report: %w", err)
	}
	return requireAffected(res)
}

// Delete removes a report.
func (r *ReportRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	return requireAffected(res)
}

// List lists reports with filters and pagination.
func (r *ReportRepository) List(ctx context.Context, params report.ListParams) ([]*report.Report, int64, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(title ILIKE $%d OR content ILIKE $%d)", argPos, argPos))
		args = append(args, "%"+params.Search+"%")
		argPos++
	}
	if params.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", argPos))
		args = append(args, *params.UserID)
		argPos++
	}
	if params.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, string(params.Status))
		argPos++
	}

	whereClause := "1=1"
	if len(conditions) > 0 {
		whereClause = strings.Join(conditions, " AND ")
	}

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM reports WHERE %s", whereClause)
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count reports: %w", err)
	}

	page, pageSize := shared.NormalizePage(params.Page, params.PageSize)
	query := fmt.Sprintf(`
		SELECT %s FROM reports
		WHERE %s
		ORDER BY %s
		LIMIT $%d OFFSET $%d
	`, reportColumns, whereClause,
		orderBy(params.SortBy, params.SortOrder, reportSortColumns, "created_at"),
		argPos, argPos+1)
	args = append(args, pageSize, shared.Offset(page, pageSize))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list reports: %w", err)
	}
	defer closeRows(rows, "report list")

	var reports []*report.Report
	for rows.Next() {
		var row reportRow
		if err := row.scan(rows); err != nil {
			return nil, 0, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, row.toDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate reports: %w", err)
	}
	return reports, total, nil
}

type reportRow struct {
	ID        uuid.UUID
	Title     string
	Content   string
	UserID    uuid.UUID
	Status    string
	Metadata  []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r *reportRow) scan(s rowScanner) error {
	return s.Scan(&r.ID, &r.Title, &r.Content, &r.UserID, &r.Status, &r.Metadata, &r.CreatedAt, &r.UpdatedAt)
}

func (r *reportRow) toDomain() *report.Report {
	return report.ReconstructReport(
		r.ID, r.Title, r.Content, r.UserID, report.Status(r.Status),
		fromJSONB(r.Metadata), r.CreatedAt, r.UpdatedAt,
	)
}
