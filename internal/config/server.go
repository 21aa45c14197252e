package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	opconfig "summarize-pro/internal/pkg/config"
)

// ServerConfig holds the HTTP API settings.
type ServerConfig struct {
	Port    int    `env:"PORT"    envDefault:"8000"`
	Version string `env:"VERSION" envDefault:"dev"`

	RedisURL            string        `env:"REDIS_URL"`
	CacheTTL            time.Duration `env:"CACHE_TTL"             envDefault:"1h"`
	EnableResultCaching bool          `env:"ENABLE_RESULT_CACHING" envDefault:"true"`

	DatabaseURL string `env:"DATABASE_URL"`

	// HistoryRetention of 0 keeps stored summaries forever.
	HistoryRetention         time.Duration `env:"HISTORY_RETENTION"          envDefault:"720h"`
	HistoryRetentionSchedule string        `env:"HISTORY_RETENTION_SCHEDULE" envDefault:"0 3 * * *"`

	AlertSlackWebhookURL   string        `env:"ALERT_SLACK_WEBHOOK_URL"`
	AlertDiscordWebhookURL string        `env:"ALERT_DISCORD_WEBHOOK_URL"`
	AlertTimeout           time.Duration `env:"ALERT_TIMEOUT" envDefault:"10s"`

	EnableRateLimiting bool     `env:"ENABLE_RATE_LIMITING"       envDefault:"true"`
	RateLimitPerMinute int      `env:"RATE_LIMIT_PER_MINUTE"      envDefault:"60"`
	TrustedProxies     []string `env:"RATE_LIMIT_TRUSTED_PROXIES" envSeparator:","`

	MaxTextLength int   `env:"MAX_TEXT_LENGTH" envDefault:"50000"`
	MaxBodyBytes  int64 `env:"MAX_BODY_BYTES"  envDefault:"10485760"`

	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT"  envDefault:"5m"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	JWTSecret         string        `env:"JWT_SECRET"`
	JWTExpiry         time.Duration `env:"JWT_EXPIRY"          envDefault:"24h"`
	AdminUser         string        `env:"ADMIN_USER"`
	AdminUserPassword string        `env:"ADMIN_USER_PASSWORD"`

	TracingSampleRatio float64 `env:"TRACING_SAMPLE_RATIO" envDefault:"0"`
}

// LoadServerConfig parses the environment into a ServerConfig.
func LoadServerConfig() (*ServerConfig, error) {
	cfg, err := env.ParseAs[ServerConfig]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse server configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks configuration correctness.
func (c *ServerConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}
	if c.EnableRateLimiting && c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive when rate limiting is enabled")
	}
	if c.MaxTextLength <= 0 {
		return fmt.Errorf("MAX_TEXT_LENGTH must be positive")
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive")
	}
	if c.JWTSecret != "" && len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	if c.HistoryRetention < 0 {
		return fmt.Errorf("HISTORY_RETENTION must not be negative")
	}
	if c.HistoryRetention > 0 {
		if err := opconfig.ValidateCronSchedule(c.HistoryRetentionSchedule); err != nil {
			return fmt.Errorf("HISTORY_RETENTION_SCHEDULE: %w", err)
		}
	}
	if c.AlertTimeout <= 0 {
		return fmt.Errorf("ALERT_TIMEOUT must be positive")
	}
	if c.TracingSampleRatio < 0 || c.TracingSampleRatio > 1 {
		return fmt.Errorf("TRACING_SAMPLE_RATIO must be between 0 and 1")
	}
	return nil
}

// AdminEnabled reports whether the admin endpoints can issue and verify tokens.
func (c *ServerConfig) AdminEnabled() bool {
	return c.JWTSecret != "" && c.AdminUser != "" && c.AdminUserPassword != ""
}

// Addr is the listen address.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
