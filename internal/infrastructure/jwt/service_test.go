package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chiragkoyande/audit-project/internal/infrastructure/config"
)

func newTestService() *Service {
	return NewService(&config.JWTConfig{
		AccessTokenSecret: "test-secret",
		AccessTokenTTL:    time.Hour,
		Issuer:            "audit-test",
	})
}

func TestService_IssueAndValidate(t *testing.T) {
	svc := newTestService()
	id := uuid.New()

	tok, err := svc.Issue(id, "a@example.com", "admin")
	require.NoError(t, err)
	assert.NotEmpty(t, tok.TokenID)

	claims, err := svc.Validate(tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, id.String(), claims.UserID)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, tok.TokenID, claims.ID)
	assert.InDelta(t, time.Hour.Seconds(), svc.Remaining(claims).Seconds(), 5)
	assert.Equal(t, int64(3600), svc.TTLSeconds())
}

func TestService_ValidateFailures(t *testing.T) {
	svc := newTestService()
	tok, err := svc.Issue(uuid.New(), "a@example.com", "viewer")
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		later := newTestService()
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := later.Validate(tok.AccessToken)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewService(&config.JWTConfig{AccessTokenSecret: "other", AccessTokenTTL: time.Hour, Issuer: "audit-test"})
		_, err := other.Validate(tok.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewService(&config.JWTConfig{AccessTokenSecret: "test-secret", AccessTokenTTL: time.Hour, Issuer: "someone-else"})
		_, err := other.Validate(tok.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.Validate("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
