package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadServerConfig_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "CACHE_TTL", "RATE_LIMIT_PER_MINUTE", "MAX_TEXT_LENGTH", "JWT_SECRET", "ADMIN_USER", "ADMIN_USER_PASSWORD", "ENABLE_RATE_LIMITING", "HISTORY_RETENTION", "HISTORY_RETENTION_SCHEDULE", "ALERT_TIMEOUT"} {
		t.Setenv(key, "")
	}

	cfg, err := LoadServerConfig()
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, ":8000", cfg.Addr())
	assert.Equal(t, time.Hour, cfg.CacheTTL)
	assert.True(t, cfg.EnableResultCaching)
	assert.True(t, cfg.EnableRateLimiting)
	assert.Equal(t, 60, cfg.RateLimitPerMinute)
	assert.Equal(t, 50000, cfg.MaxTextLength)
	assert.Equal(t, int64(10<<20), cfg.MaxBodyBytes)
	assert.False(t, cfg.AdminEnabled())
	assert.Equal(t, 720*time.Hour, cfg.HistoryRetention)
	assert.Equal(t, "0 3 * * *", cfg.HistoryRetentionSchedule)
	assert.Equal(t, 10*time.Second, cfg.AlertTimeout)
}

func TestLoadServerConfig_Custom(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CACHE_TTL", "10m")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("ENABLE_RATE_LIMITING", "false")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "0")
	t.Setenv("JWT_SECRET", strings.Repeat("s", 32))
	t.Setenv("ADMIN_USER", "admin")
	t.Setenv("ADMIN_USER_PASSWORD", "correct horse battery staple")
	t.Setenv("RATE_LIMIT_TRUSTED_PROXIES", "10.0.0.0/8,192.168.1.1")
	t.Setenv("ALERT_SLACK_WEBHOOK_URL", "https://hooks.slack.com/services/T/B/x")

	cfg, err := LoadServerConfig()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.False(t, cfg.EnableRateLimiting)
	assert.True(t, cfg.AdminEnabled())
	assert.Equal(t, []string{"10.0.0.0/8", "192.168.1.1"}, cfg.TrustedProxies)
	assert.Equal(t, "https://hooks.slack.com/services/T/B/x", cfg.AlertSlackWebhookURL)
}

func TestLoadServerConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{name: "malformed port", env: map[string]string{"PORT": "eighty"}, wantErr: "failed to parse"},
		{name: "port out of range", env: map[string]string{"PORT": "70000"}, wantErr: "PORT"},
		{name: "short jwt secret", env: map[string]string{"JWT_SECRET": "short"}, wantErr: "JWT_SECRET"},
		{name: "rate limit zero", env: map[string]string{"ENABLE_RATE_LIMITING": "true", "RATE_LIMIT_PER_MINUTE": "0"}, wantErr: "RATE_LIMIT_PER_MINUTE"},
		{name: "negative retention", env: map[string]string{"HISTORY_RETENTION": "-1h"}, wantErr: "HISTORY_RETENTION"},
		{name: "bad retention schedule", env: map[string]string{"HISTORY_RETENTION_SCHEDULE": "nightly"}, wantErr: "HISTORY_RETENTION_SCHEDULE"},
		{name: "alert timeout", env: map[string]string{"ALERT_TIMEOUT": "0s"}, wantErr: "ALERT_TIMEOUT"},
		{name: "sample ratio", env: map[string]string{"TRACING_SAMPLE_RATIO": "1.5"}, wantErr: "TRACING_SAMPLE_RATIO"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadServerConfig()
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoadServerConfig_RetentionDisabledIgnoresSchedule(t *testing.T) {
	t.Setenv("HISTORY_RETENTION", "0s")
	t.Setenv("HISTORY_RETENTION_SCHEDULE", "nightly")

	cfg, err := LoadServerConfig()
	require.NoError(t, err)
	assert.Zero(t, cfg.HistoryRetention)
}
