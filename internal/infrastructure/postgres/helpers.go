package postgres

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

const (
	sortASC  = "ASC"
	sortDESC = "DESC"

	uniqueViolation = "23505"
)

// isUniqueViolation checks if the error is a PostgreSQL unique violation
// from either the pgx or the lib/pq driver.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	return false
}

// orderBy resolves a caller-supplied sort column against an allow-list.
func orderBy(sortBy, sortOrder string, allowed map[string]string, fallback string) string {
	column, ok := allowed[strings.ToLower(sortBy)]
	if !ok {
		column = fallback
	}
	order := sortDESC
	if strings.EqualFold(sortOrder, sortASC) {
		order = sortASC
	}
	return column + " " + order
}

func toJSONB(v map[string]interface{}) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode json column: %w", err)
	}
	return b, nil
}

func fromJSONB(b []byte) map[string]interface{} {
	if len(b) == 0 {
		return nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		log.Warn().Err(err).Msg("failed to decode json column")
		return nil
	}
	return m
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func closeRows(rows *sql.Rows, what string) {
	if err := rows.Close(); err != nil {
		log.Warn().Err(err).Msgf("failed to close rows in %s", what)
	}
}
