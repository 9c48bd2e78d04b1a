package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "audit-service", cfg.App.Name)
	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, "gpt-3.5-turbo", cfg.AI.ModelName)
	assert.Equal(t, 30*time.Second, cfg.AI.Timeout)
	assert.Equal(t, 3, cfg.AI.MaxRetries)
	assert.InDelta(t, 0.1, cfg.AI.Temperature, 1e-6)
	assert.Equal(t, 1000, cfg.AI.MaxTokens)
	assert.False(t, cfg.Compliance.StrictMode)
	assert.True(t, cfg.Compliance.CacheResults)
	assert.Equal(t, time.Hour, cfg.Compliance.CacheTTL)
	assert.Equal(t, []string{"SOX", "GDPR", "ISO27001"}, cfg.Compliance.DefaultFrameworks)
	assert.Equal(t, "audit@company.com", cfg.Notification.Email.FromAddress)
	assert.Equal(t, "Audit System", cfg.Notification.Email.FromName)
	assert.Equal(t, 587, cfg.Notification.Email.SMTPPort)
	assert.False(t, cfg.Notification.SMS.Enabled)
	assert.Equal(t, "#audit-alerts", cfg.Notification.Slack.Channel)
	assert.Equal(t, 30, cfg.Notification.InApp.RetentionDays)
	assert.Equal(t, 3, cfg.Notification.Retry.MaxAttempts)
	assert.Equal(t, 2.0, cfg.Notification.Retry.BackoffFactor)
	assert.Equal(t, time.Second, cfg.Notification.Retry.InitialDelay)
	assert.False(t, cfg.Supabase.Enabled())
}

func TestLoadFrom_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte(`
server:
  http_port: 9090
compliance:
  strict_mode: true
  default_frameworks: [HIPAA]
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o600))
	t.Setenv("SUPABASE_URL", "https://x.supabase.co")
	t.Setenv("SUPABASE_KEY", "anon")
	t.Setenv("DATABASE_HOST", "db.internal")

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.HTTPPort)
	assert.True(t, cfg.Compliance.StrictMode)
	assert.Equal(t, []string{"HIPAA"}, cfg.Compliance.DefaultFrameworks)
	assert.True(t, cfg.Supabase.Enabled())
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Contains(t, cfg.Database.ConnectionString(), "host=db.internal")
}

func TestConfig_Validate(t *testing.T) {
	base := func() *Config {
		cfg, err := LoadFrom(t.TempDir())
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"bad port", func(c *Config) { c.Server.HTTPPort = 0 }},
		{"no attempts", func(c *Config) { c.Notification.Retry.MaxAttempts = 0 }},
		{"shrinking backoff", func(c *Config) { c.Notification.Retry.BackoffFactor = 0.5 }},
		{"zero ttl", func(c *Config) { c.Compliance.CacheTTL = 0 }},
		{"default secret in production", func(c *Config) { c.App.Env = "production" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	t.Run("success - defaults valid", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})
}
