package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/chiragkoyande/audit-project/internal/domain/syslog"
)

const syslogColumns = `id, timestamp, level, module, message, stack_trace, request_id, additional_data`

// SystemLogRepository implements syslog.Repository interface.
type SystemLogRepository struct {
	db *DB
}

// NewSystemLogRepository creates a new SystemLogRepository.
func NewSystemLogRepository(db *DB) *SystemLogRepository {
	return &SystemLogRepository{db: db}
}

// Create inserts a system log entry.
func (r *SystemLogRepository) Create(ctx context.Context, e *syslog.Entry) error {
	data, err := toJSONB(e.AdditionalData())
	if err != nil {
		return err
	}
	query := `
		INSERT INTO system_logs (` + syslogColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = r.db.ExecContext(ctx, query,
		e.ID(), e.Timestamp(), string(e.Level()), e.Module(), e.Message(),
		nullString(e.StackTrace()), nullString(e.RequestID()), data,
	)
	if err != nil {
		return fmt.Errorf("failed to insert system log: %w", err)
	}
	return nil
}

// ListByLevel returns the newest entries of a level.
func (r *SystemLogRepository) ListByLevel(ctx context.Context, level syslog.Level, limit int) ([]*syslog.Entry, error) {
	query := `SELECT ` + syslogColumns + ` FROM system_logs WHERE level = $1 ORDER BY timestamp DESC LIMIT $2`
	return r.query(ctx, query, string(level), syslog.NormalizeLimit(limit))
}

// ListByModule returns the newest entries of a module.
func (r *SystemLogRepository) ListByModule(ctx context.Context, module string, limit int) ([]*syslog.Entry, error) {
	query := `SELECT ` + syslogColumns + ` FROM system_logs WHERE module = $1 ORDER BY timestamp DESC LIMIT $2`
	return r.query(ctx, query, module, syslog.NormalizeLimit(limit))
}

// ListByRequest returns all entries of a request, oldest first.
func (r *SystemLogRepository) ListByRequest(ctx context.Context, requestID string) ([]*syslog.Entry, error) {
	query := `SELECT ` + syslogColumns + ` FROM system_logs WHERE request_id = $1 ORDER BY timestamp ASC`
	return r.query(ctx, query, requestID)
}

// DeleteOlderThan purges entries older than cutoff.
func (r *SystemLogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM system_logs WHERE timestamp < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge system logs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}

func (r *SystemLogRepository) query(ctx context.Context, query string, args ...interface{}) ([]*syslog.Entry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query system logs: %w", err)
	}
	defer closeRows(rows, "system log query")

	var entries []*syslog.Entry
	for rows.Next() {
		var row syslogRow
		if err := rows.Scan(
			&row.ID, &row.Timestamp, &row.Level, &row.Module, &row.Message,
			&row.StackTrace, &row.RequestID, &row.AdditionalData,
		); err != nil {
			return nil, fmt.Errorf("failed to scan system log: %w", err)
		}
		entries = append(entries, row.toDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate system logs: %w", err)
	}
	return entries, nil
}

type syslogRow struct {
	ID             uuid.UUID
	Timestamp      time.Time
	Level          string
	Module         string
	Message        string
	StackTrace     sql.NullString
	RequestID      sql.NullString
	AdditionalData []byte
}

func (r *syslogRow) toDomain() *syslog.Entry {
	return syslog.ReconstructEntry(
		r.ID, r.Timestamp, syslog.Level(r.Level), r.Module, r.Message,
		r.StackTrace.String, r.RequestID.String, fromJSONB(r.AdditionalData),
	)
}
