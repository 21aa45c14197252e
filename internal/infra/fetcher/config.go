package fetcher

import (
	"fmt"
	"time"

	opconfig "summarize-pro/internal/pkg/config"
	pkgconfig "summarize-pro/pkg/config"
)

// Config controls URL fetching.
type Config struct {
	// Timeout bounds a single HTTP request. Default: 15s
	Timeout time.Duration

	// MaxBodySize is the largest response body read, in bytes. Enforced while
	// reading, not from Content-Length. Default: 10MB
	MaxBodySize int64

	// MaxRedirects is the number of redirects followed. Each target is validated
	// again. Default: 5
	MaxRedirects int

	// DenyPrivateIPs rejects URLs resolving to loopback, private or link-local
	// addresses. Should always be true in production. Default: true
	DenyPrivateIPs bool

	// MinReadableChars is the shortest readability result accepted before the
	// selector based extraction is tried. Default: 200
	MinReadableChars int

	// UserAgent is sent with every request.
	UserAgent string
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:          15 * time.Second,
		MaxBodySize:      10 * 1024 * 1024,
		MaxRedirects:     5,
		DenyPrivateIPs:   true,
		MinReadableChars: 200,
		UserAgent:        "SummarizeProBot/1.0",
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := opconfig.ValidatePositiveDuration(c.Timeout); err != nil {
		return fmt.Errorf("timeout: %w", err)
	}
	minBody, maxBody := int64(1024), int64(100*1024*1024)
	if c.MaxBodySize < minBody || c.MaxBodySize > maxBody {
		return fmt.Errorf("max body size must be between %d and %d bytes, got %d", minBody, maxBody, c.MaxBodySize)
	}
	if err := opconfig.ValidateIntRange(c.MaxRedirects, 0, 10); err != nil {
		return fmt.Errorf("max redirects: %w", err)
	}
	if c.MinReadableChars < 0 {
		return fmt.Errorf("min readable chars must be non-negative, got %d", c.MinReadableChars)
	}
	return nil
}

// LoadConfigFromEnv reads URL_FETCH_* variables over the defaults.
func LoadConfigFromEnv() (Config, error) {
	d := DefaultConfig()
	cfg := Config{
		Timeout:          pkgconfig.GetEnvDuration("URL_FETCH_TIMEOUT", d.Timeout),
		MaxBodySize:      int64(pkgconfig.GetEnvInt("URL_FETCH_MAX_BODY_SIZE", int(d.MaxBodySize))),
		MaxRedirects:     pkgconfig.GetEnvInt("URL_FETCH_MAX_REDIRECTS", d.MaxRedirects),
		DenyPrivateIPs:   pkgconfig.GetEnvBool("URL_FETCH_DENY_PRIVATE_IPS", d.DenyPrivateIPs),
		MinReadableChars: pkgconfig.GetEnvInt("URL_FETCH_MIN_READABLE_CHARS", d.MinReadableChars),
		UserAgent:        pkgconfig.GetEnvString("URL_FETCH_USER_AGENT", d.UserAgent),
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}
