// Package main seeds default audit service data into the database.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/chiragkoyande/audit-project/internal/infrastructure/config"
	"github.com/chiragkoyande/audit-project/internal/infrastructure/password"
	"github.com/chiragkoyande/audit-project/internal/infrastructure/postgres"
	"github.com/chiragkoyande/audit-project/pkg/logger"
)

const (
	adminEmail           = "admin@audit.local"
	defaultAdminPassword = "ChangeMe123!"
)

// seedUser defines a user to seed.
type seedUser struct {
	Email    string
	FullName string
	Role     string
}

// seedReport defines a report to seed for the admin user.
type seedReport struct {
	Title   string
	Content string
	Status  string
}

func defaultUsers() []seedUser {
	return []seedUser{
		{Email: adminEmail, FullName: "System Administrator", Role: "admin"},
		{Email: "auditor@audit.local", FullName: "Lead Auditor", Role: "auditor"},
		{Email: "viewer@audit.local", FullName: "Read Only", Role: "viewer"},
	}
}

func defaultReports() []seedReport {
	return []seedReport{
		{Title: "Quarterly Access Review", Content: "Review of privileged access granted during the quarter.", Status: "draft"},
		{Title: "GDPR Readiness Assessment", Content: "Data inventory, consent records and retention schedule.", Status: "in_review"},
		{Title: "SOX Control Testing FY", Content: "Segregation of duties and change management evidence.", Status: "published"},
	}
}

func main() {
	logger.Setup("info", "console", false)

	log.Info().Msg("Starting audit database seeding...")

	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Seeding failed")
	}

	log.Info().Msg("Seeding completed successfully")
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close database connection")
		}
	}()

	if err := postgres.Migrate(cfg.Database.ConnectionString()); err != nil {
		return err
	}

	plain := os.Getenv("SEED_ADMIN_PASSWORD")
	if plain == "" {
		plain = defaultAdminPassword
	}
	hash, err := password.Hash(plain)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	return db.Transaction(ctx, func(tx *sql.Tx) error {
		ids, err := seedUsers(ctx, tx, hash)
		if err != nil {
			return fmt.Errorf("failed to seed users: %w", err)
		}
		if err := seedReports(ctx, tx, ids[adminEmail]); err != nil {
			return fmt.Errorf("failed to seed reports: %w", err)
		}
		return nil
	})
}

// seedUsers inserts the default users and returns a map of email -> id.
// Every seeded user shares the same initial password.
func seedUsers(ctx context.Context, tx *sql.Tx, passwordHash string) (map[string]uuid.UUID, error) {
	log.Info().Msg("Seeding users...")

	ids := make(map[string]uuid.UUID)
	for _, u := range defaultUsers() {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO users (id, email, full_name, password_hash, role, is_active)
			VALUES ($1, $2, $3, $4, $5, true)
			ON CONFLICT ((LOWER(email))) DO NOTHING`,
			uuid.New(), u.Email, u.FullName, passwordHash, u.Role,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert user %s: %w", u.Email, err)
		}

		// Retrieve the actual ID (may differ if row already existed)
		var id uuid.UUID
		if err := tx.QueryRowContext(ctx, `SELECT id FROM users WHERE LOWER(email) = LOWER($1)`, u.Email).Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to retrieve user %s: %w", u.Email, err)
		}
		ids[u.Email] = id
		log.Info().Str("user_id", id.String()).Str("email", u.Email).Str("role", u.Role).Msg("User seeded")
	}
	return ids, nil
}

// seedReports inserts sample reports owned by ownerID unless a report with
// the same title already exists.
func seedReports(ctx context.Context, tx *sql.Tx, ownerID uuid.UUID) error {
	log.Info().Msg("Seeding reports...")

	inserted := 0
	for _, r := range defaultReports() {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO reports (id, title, content, user_id, status, metadata)
			SELECT $1, $2, $3, $4, $5, '{"seeded": true}'::jsonb
			WHERE NOT EXISTS (SELECT 1 FROM reports WHERE title = $2)`,
			uuid.New(), r.Title, r.Content, ownerID, r.Status,
		)
		if err != nil {
			return fmt.Errorf("failed to insert report %q: %w", r.Title, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	log.Info().Int("inserted", inserted).Msg("Reports seeded")
	return nil
}
