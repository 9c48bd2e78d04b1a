package postgres

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/chiragkoyande/audit-project/internal/domain/compliance"
)

// ComplianceHistoryRepository implements compliance.HistoryRepository interface.
type ComplianceHistoryRepository struct {
	db *DB
}

// NewComplianceHistoryRepository creates a new ComplianceHistoryRepository.
func NewComplianceHistoryRepository(db *DB) *ComplianceHistoryRepository {
	return &ComplianceHistoryRepository{db: db}
}

// Save stores a check summary.
func (r *ComplianceHistoryRepository) Save(ctx context.Context, rec *compliance.CheckRecord) error {
	query := `
		INSERT INTO compliance_checks (id, cache_key, frameworks, overall_score, overall_status, issue_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.CacheKey, pq.Array(frameworkNames(rec.Frameworks)),
		rec.OverallScore, string(rec.OverallStatus), rec.IssueCount, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert compliance check: %w", err)
	}
	return nil
}

// ListRecent returns checks of exactly the given frameworks since a time, newest first.
func (r *ComplianceHistoryRepository) ListRecent(
	ctx context.Context, frameworks []compliance.Framework, since time.Time, limit int,
) ([]*compliance.CheckRecord, error) {
	query := `
		SELECT id, cache_key, frameworks, overall_score, overall_status, issue_count, created_at
		FROM compliance_checks
		WHERE frameworks = $1 AND created_at >= $2
		ORDER BY created_at DESC
		LIMIT $3
	`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(frameworkNames(frameworks)), since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list compliance checks: %w", err)
	}
	defer closeRows(rows, "compliance history")

	var out []*compliance.CheckRecord
	for rows.Next() {
		var (
			id        uuid.UUID
			key       string
			names     []string
			score     float64
			status    string
			issues    int
			createdAt time.Time
		)
		if err := rows.Scan(&id, &key, pq.Array(&names), &score, &status, &issues, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan compliance check: %w", err)
		}
		fws := make([]compliance.Framework, len(names))
		for i, n := range names {
			fws[i] = compliance.Framework(n)
		}
		out = append(out, &compliance.CheckRecord{
			ID:            id,
			CacheKey:      key,
			Frameworks:    fws,
			OverallScore:  score,
			OverallStatus: compliance.Status(status),
			IssueCount:    issues,
			CreatedAt:     createdAt.UTC(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate compliance checks: %w", err)
	}
	return out, nil
}

// frameworkNames returns sorted names so equal sets compare equal as arrays.
func frameworkNames(fws []compliance.Framework) []string {
	names := make([]string, len(fws))
	for i, f := range fws {
		names[i] = string(f)
	}
	sort.Strings(names)
	return names
}
