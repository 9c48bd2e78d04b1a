package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/chiragkoyande/audit-project/internal/domain/auditlog"
	"github.com/chiragkoyande/audit-project/internal/domain/shared"
)

// auditChainLockKey serializes appends to the audit hash chain.
const auditChainLockKey int64 = 0x61756469745f6c67

const auditColumns = `id, seq, timestamp, user_id, action, resource_type, resource_id,
	description, changes, ip_address, user_agent, status, prev_hash, hash`

var auditSortColumns = map[string]string{
	"timestamp":     "timestamp",
	"seq":           "seq",
	"action":        "action",
	"resource_type": "resource_type",
	"status":        "status",
}

// AuditLogRepository implements auditlog.Repository interface.
type AuditLogRepository struct {
	db *DB
}

// NewAuditLogRepository creates a new AuditLogRepository.
func NewAuditLogRepository(db *DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

// Create appends the log to the hash chain. The advisory lock makes reading
// the chain head and inserting the new row a single step.
func (r *AuditLogRepository) Create(ctx context.Context, l *auditlog.AuditLog) error {
	return r.db.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, auditChainLockKey); err != nil {
			return fmt.Errorf("failed to lock audit chain: %w", err)
		}

		var lastSeq int64
		var lastHash string
		err := tx.QueryRowContext(ctx,
			`SELECT seq, hash FROM audit_logs ORDER BY seq DESC LIMIT 1`,
		).Scan(&lastSeq, &lastHash)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to read audit chain head: %w", err)
		}

		l.Chain(lastSeq+1, lastHash)

		changes, err := toJSONB(l.Changes())
		if err != nil {
			return err
		}
		if changes == nil {
			changes = []byte("{}")
		}

		query := `
			INSERT INTO audit_logs (` + auditColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		`
		_, err = tx.ExecContext(ctx, query,
			l.ID(), l.Seq(), l.Timestamp(), l.UserID(), l.Action(), l.ResourceType(),
			nullString(l.ResourceID()), nullString(l.Description()), changes,
			nullString(l.IPAddress()), nullString(l.UserAgent()), string(l.Status()),
			l.PrevHash(), l.Hash(),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return shared.ErrAlreadyExists
			}
			return fmt.Errorf("failed to insert audit log: %w", err)
		}
		return nil
	})
}

// GetByID retrieves an audit log by ID.
func (r *AuditLogRepository) GetByID(ctx context.Context, id uuid.UUID) (*auditlog.AuditLog, error) {
	query := `SELECT ` + auditColumns + ` FROM audit_logs WHERE id = $1`

	var row auditRow
	if err := row.scan(r.db.QueryRowContext(ctx, query, id)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get audit log: %w", err)
	}
	return row.toDomain(), nil
}

// List lists audit logs with filters.
func (r *AuditLogRepository) List(ctx context.Context, params auditlog.ListParams) ([]*auditlog.AuditLog, int64, error) {
	whereClause, args, argPos := buildAuditListFilters(params)

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM audit_logs WHERE %s", whereClause)
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	page, pageSize := shared.NormalizePage(params.Page, params.PageSize)
	query := fmt.Sprintf(`
		SELECT %s FROM audit_logs
		WHERE %s
		ORDER BY %s
		LIMIT $%d OFFSET $%d
	`, auditColumns, whereClause,
		orderBy(params.SortBy, params.SortOrder, auditSortColumns, "timestamp"),
		argPos, argPos+1)
	args = append(args, pageSize, shared.Offset(page, pageSize))

	logs, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

// ListRange returns up to limit logs after afterSeq in chain order.
func (r *AuditLogRepository) ListRange(ctx context.Context, afterSeq int64, limit int) ([]*auditlog.AuditLog, error) {
	query := `SELECT ` + auditColumns + ` FROM audit_logs WHERE seq > $1 ORDER BY seq ASC LIMIT $2`
	return r.query(ctx, query, afterSeq, limit)
}

func (r *AuditLogRepository) query(ctx context.Context, query string, args ...interface{}) ([]*auditlog.AuditLog, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	defer closeRows(rows, "audit log list")

	var logs []*auditlog.AuditLog
	for rows.Next() {
		var row auditRow
		if err := row.scan(rows); err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		logs = append(logs, row.toDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit logs: %w", err)
	}
	return logs, nil
}

func buildAuditListFilters(params auditlog.ListParams) (string, []interface{}, int) {
	var conditions []string
	var args []interface{}
	argPos := 1

	add := func(cond string, arg interface{}) {
		conditions = append(conditions, fmt.Sprintf(cond, argPos))
		args = append(args, arg)
		argPos++
	}

	if params.UserID != nil {
		add("user_id = $%d", *params.UserID)
	}
	if params.Action != "" {
		add("action = $%d", params.Action)
	}
	if params.ResourceType != "" {
		add("resource_type = $%d", params.ResourceType)
	}
	if params.ResourceID != "" {
		add("resource_id = $%d", params.ResourceID)
	}
	if params.Status != "" {
		add("status = $%d", string(params.Status))
	}
	if params.DateFrom != nil {
		add("timestamp >= $%d", *params.DateFrom)
	}
	if params.DateTo != nil {
		add("timestamp <= $%d", *params.DateTo)
	}
	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(description ILIKE $%d OR resource_id ILIKE $%d)", argPos, argPos))
		args = append(args, "%"+params.Search+"%")
		argPos++
	}

	whereClause := "1=1"
	if len(conditions) > 0 {
		whereClause = strings.Join(conditions, " AND ")
	}
	return whereClause, args, argPos
}

// GetSummary retrieves audit statistics for a time range.
func (r *AuditLogRepository) GetSummary(ctx context.Context, timeRange string) (*auditlog.Summary, error) {
	timeRange, since := parseTimeRange(timeRange, time.Now())
	summary := &auditlog.Summary{TimeRange: timeRange}

	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'success'),
			COUNT(*) FILTER (WHERE status = 'failure')
		FROM audit_logs
		WHERE timestamp >= $1
	`, since).Scan(&summary.TotalEvents, &summary.SuccessCount, &summary.FailureCount)
	if err != nil {
		return nil, fmt.Errorf("failed to get summary counts: %w", err)
	}

	if summary.ByAction, err = r.actionCounts(ctx, since); err != nil {
		return nil, err
	}
	if summary.TopUsers, err = r.topUsers(ctx, since); err != nil {
		return nil, err
	}
	if summary.EventsByHour, err = r.hourlyCounts(ctx, since); err != nil {
		return nil, err
	}
	return summary, nil
}

func (r *AuditLogRepository) actionCounts(ctx context.Context, since time.Time) ([]auditlog.ActionCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT action, COUNT(*) AS count
		FROM audit_logs
		WHERE timestamp >= $1
		GROUP BY action
		ORDER BY count DESC, action
	`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get action counts: %w", err)
	}
	defer closeRows(rows, "audit action counts")

	var out []auditlog.ActionCount
	for rows.Next() {
		var c auditlog.ActionCount
		if err := rows.Scan(&c.Action, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *AuditLogRepository) topUsers(ctx context.Context, since time.Time) ([]auditlog.UserActivity, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.user_id, COALESCE(u.email, ''), COALESCE(u.full_name, ''), COUNT(*) AS count
		FROM audit_logs a
		LEFT JOIN users u ON u.id = a.user_id
		WHERE a.timestamp >= $1 AND a.user_id IS NOT NULL
		GROUP BY a.user_id, u.email, u.full_name
		ORDER BY count DESC
		LIMIT 10
	`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get top users: %w", err)
	}
	defer closeRows(rows, "audit top users")

	var out []auditlog.UserActivity
	for rows.Next() {
		var a auditlog.UserActivity
		if err := rows.Scan(&a.UserID, &a.Email, &a.FullName, &a.EventCount); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AuditLogRepository) hourlyCounts(ctx context.Context, since time.Time) ([]auditlog.HourlyCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT EXTRACT(HOUR FROM timestamp AT TIME ZONE 'UTC')::int AS hour, COUNT(*) AS count
		FROM audit_logs
		WHERE timestamp >= $1
		GROUP BY hour
		ORDER BY hour
	`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get hourly counts: %w", err)
	}
	defer closeRows(rows, "audit hourly counts")

	var out []auditlog.HourlyCount
	for rows.Next() {
		var h auditlog.HourlyCount
		if err := rows.Scan(&h.Hour, &h.Count); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// parseTimeRange resolves "24h", "7d" or "30d"; anything else means 24h.
func parseTimeRange(timeRange string, now time.Time) (string, time.Time) {
	switch timeRange {
	case "7d":
		return timeRange, now.Add(-7 * 24 * time.Hour)
	case "30d":
		return timeRange, now.Add(-30 * 24 * time.Hour)
	default:
		if timeRange != "" && timeRange != "24h" {
			log.Debug().Str("time_range", timeRange).Msg("unknown audit summary range, using 24h")
		}
		return "24h", now.Add(-24 * time.Hour)
	}
}

type auditRow struct {
	ID           uuid.UUID
	Seq          int64
	Timestamp    time.Time
	UserID       *uuid.UUID
	Action       string
	ResourceType string
	ResourceID   sql.NullString
	Description  sql.NullString
	Changes      []byte
	IPAddress    sql.NullString
	UserAgent    sql.NullString
	Status       string
	PrevHash     string
	Hash         string
}

func (r *auditRow) scan(s rowScanner) error {
	return s.Scan(
		&r.ID, &r.Seq, &r.Timestamp, &r.UserID, &r.Action, &r.ResourceType, &r.ResourceID,
		&r.Description, &r.Changes, &r.IPAddress, &r.UserAgent, &r.Status, &r.PrevHash, &r.Hash,
	)
}

func (r *auditRow) toDomain() *auditlog.AuditLog {
	changes := fromJSONB(r.Changes)
	if changes == nil {
		changes = map[string]interface{}{}
	}
	return auditlog.ReconstructAuditLog(
		r.ID, r.Seq, r.Timestamp, r.UserID,
		r.Action, r.ResourceType, r.ResourceID.String, r.Description.String,
		changes,
		r.IPAddress.String, r.UserAgent.String,
		auditlog.Status(r.Status),
		r.PrevHash, r.Hash,
	)
}
