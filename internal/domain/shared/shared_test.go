package shared

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestValidationErrors(t *testing.T) {
	var errs ValidationErrors
	assert.NoError(t, errs.Err())

	errs.Add("email", "is required")
	errs.Add("full_name", "is too long")

	err := errs.Err()
	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.Contains(t, err.Error(), "email: is required")
	assert.Contains(t, err.Error(), "full_name: is too long")

	wrapped := fmt.Errorf("create user: %w", NewValidationError("role", "unknown"))
	assert.ErrorIs(t, wrapped, ErrInvalidInput)
}

func TestRequestContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "", RequestID(ctx))
	assert.Equal(t, "system", Performer(ctx))

	ctx = WithRequestContext(ctx, "req-1", "10.0.0.1", "curl/8")
	ctx = WithActor(ctx, Actor{UserID: uuid.New(), Email: "a@b.io", Role: "admin"})

	assert.Equal(t, "req-1", RequestID(ctx))
	assert.Equal(t, "10.0.0.1", IPAddress(ctx))
	assert.Equal(t, "curl/8", UserAgent(ctx))
	assert.Equal(t, "a@b.io", Performer(ctx))
}

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		page, size         int
		wantPage, wantSize int
	}{
		{0, 0, 1, DefaultPageSize},
		{3, 20, 3, 20},
		{1, 1000, 1, MaxPageSize},
	}
	for _, tt := range tests {
		p, s := NormalizePage(tt.page, tt.size)
		assert.Equal(t, tt.wantPage, p)
		assert.Equal(t, tt.wantSize, s)
	}
	assert.Equal(t, 20, Offset(3, 10))
}
