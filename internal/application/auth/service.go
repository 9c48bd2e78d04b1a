// Package auth provides authentication application services.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/chiragkoyande/audit-project/internal/domain/auditlog"
	"github.com/chiragkoyande/audit-project/internal/domain/shared"
	"github.com/chiragkoyande/audit-project/internal/domain/user"
	"github.com/chiragkoyande/audit-project/internal/infrastructure/jwt"
	"github.com/chiragkoyande/audit-project/internal/infrastructure/password"
)

// TokenBlacklist records revoked token IDs until they expire.
type TokenBlacklist interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// LoginInput is the credentials of a login attempt.
type LoginInput struct {
	Email    string
	Password string
}

// LoginResult is a successful login.
type LoginResult struct {
	AccessToken string
	TokenType   string
	ExpiresIn   int64
	ExpiresAt   time.Time
	User        *user.User
}

// Service authenticates users and validates bearer tokens.
type Service struct {
	userRepo   user.Repository
	jwtService *jwt.Service
	blacklist  TokenBlacklist
	auditor    auditlog.Recorder
}

// NewService creates a new auth service.
func NewService(userRepo user.Repository, jwtService *jwt.Service, blacklist TokenBlacklist, auditor auditlog.Recorder) *Service {
	return &Service{
		userRepo:   userRepo,
		jwtService: jwtService,
		blacklist:  blacklist,
		auditor:    auditor,
	}
}

// Login authenticates a user by email and password and issues an access token.
func (s *Service) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	u, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.recordFailedLogin(ctx, nil, input.Email, "unknown email")
			return nil, shared.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := u.CanLogin(); err != nil {
		id := u.ID()
		s.recordFailedLogin(ctx, &id, input.Email, err.Error())
		return nil, shared.ErrInvalidCredentials
	}

	ok, err := password.Verify(input.Password, u.PasswordHash())
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		id := u.ID()
		s.recordFailedLogin(ctx, &id, input.Email, "wrong password")
		return nil, shared.ErrInvalidCredentials
	}

	token, err := s.jwtService.Issue(u.ID(), u.Email(), string(u.Role()))
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.record(ctx, u.ID(), auditlog.ActionLogin, auditlog.StatusSuccess, "User logged in")

	return &LoginResult{
		AccessToken: token.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   s.jwtService.TTLSeconds(),
		ExpiresAt:   token.ExpiresAt,
		User:        u,
	}, nil
}

// Logout revokes the token identified by claims for the rest of its lifetime.
func (s *Service) Logout(ctx context.Context, claims *jwt.Claims) error {
	if s.blacklist != nil {
		if err := s.blacklist.Revoke(ctx, claims.ID, s.jwtService.Remaining(claims)); err != nil {
			return fmt.Errorf("failed to revoke token: %w", err)
		}
	}

	if id, err := uuid.Parse(claims.UserID); err == nil {
		s.record(ctx, id, auditlog.ActionLogout, auditlog.StatusSuccess, "User logged out")
	}
	return nil
}

// Authenticate validates a bearer token and checks it has not been revoked.
func (s *Service) Authenticate(ctx context.Context, token string) (*jwt.Claims, error) {
	claims, err := s.jwtService.Validate(token)
	if err != nil {
		if errors.Is(err, jwt.ErrExpiredToken) {
			return nil, shared.ErrTokenExpired
		}
		return nil, shared.ErrInvalidToken
	}

	if s.blacklist != nil {
		revoked, err := s.blacklist.IsRevoked(ctx, claims.ID)
		if err != nil {
			log.Warn().Err(err).Msg("Token blacklist check failed")
		}
		if revoked {
			return nil, shared.ErrInvalidToken
		}
	}
	return claims, nil
}

func (s *Service) recordFailedLogin(ctx context.Context, userID *uuid.UUID, email, reason string) {
	log.Warn().Str("email", email).Str("reason", reason).Msg("Login failed")
	if s.auditor == nil {
		return
	}
	_, err := s.auditor.Record(ctx, auditlog.Params{
		UserID:       userID,
		Action:       auditlog.ActionLoginFailed,
		ResourceType: "auth",
		ResourceID:   truncate(email, 50),
		Description:  "Failed login: " + reason,
		Status:       auditlog.StatusFailure,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to record audit event")
	}
}

func (s *Service) record(ctx context.Context, userID uuid.UUID, action string, status auditlog.Status, description string) {
	if s.auditor == nil {
		return
	}
	_, err := s.auditor.Record(ctx, auditlog.Params{
		UserID:       &userID,
		Action:       action,
		ResourceType: "auth",
		ResourceID:   userID.String(),
		Description:  description,
		Status:       status,
	})
	if err != nil {
		log.Warn().Err(err).Str("action", action).Msg("Failed to record audit event")
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
