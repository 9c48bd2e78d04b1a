package httpdelivery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_Allow(t *testing.T) {
	t.Run("success - burst then reject", func(t *testing.T) {
		rl := NewRateLimiter(1, 3)
		for i := 0; i < 3; i++ {
			assert.True(t, rl.Allow("10.0.0.1", "/api/v1/reports"), "request %d", i)
		}
		assert.False(t, rl.Allow("10.0.0.1", "/api/v1/reports"))
		assert.True(t, rl.Allow("10.0.0.2", "/api/v1/reports"))
	})

	t.Run("success - login has its own stricter bucket", func(t *testing.T) {
		rl := NewRateLimiter(100, 0)
		for i := 0; i < 5; i++ {
			assert.True(t, rl.Allow("10.0.0.1", "/api/v1/auth/login"))
		}
		assert.False(t, rl.Allow("10.0.0.1", "/api/v1/auth/login"))
		assert.True(t, rl.Allow("10.0.0.1", "/api/v1/reports"))
	})
}

func TestRateLimiter_Cleanup(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(10, 10)
	rl.now = func() time.Time { return now }

	rl.Allow("idle", "/api/v1/reports")
	now = now.Add(2 * time.Minute)
	rl.Allow("active", "/api/v1/reports")
	now = now.Add(2 * time.Minute)

	assert.Equal(t, 1, rl.Cleanup())
	assert.Len(t, rl.clients, 1)
	assert.Contains(t, rl.clients, "active")
}
