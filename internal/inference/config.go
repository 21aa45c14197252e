package inference

import (
	"fmt"
	"time"
)

const (
	defaultCallTimeout   = 60 * time.Second
	defaultMaxInputChars = 12000
)

// ClientConfig configures a hosted chat backend.
type ClientConfig struct {
	// APIKey authenticates against the provider. An empty key makes every Open fail
	// with ErrBackendNotConfigured so that the model cache moves on to a fallback.
	APIKey string

	// BaseURL overrides the provider endpoint (proxies, compatible servers).
	BaseURL string

	// Timeout bounds a single Run call including retries.
	Timeout time.Duration

	// MaxInputChars bounds the input sent when Params.Truncate is set.
	MaxInputChars int
}

// Configured reports whether the backend can be used.
func (c ClientConfig) Configured() bool {
	return c.APIKey != ""
}

// Validate checks the configuration.
func (c ClientConfig) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %v", c.Timeout)
	}
	if c.MaxInputChars < 0 {
		return fmt.Errorf("max input chars must not be negative, got %d", c.MaxInputChars)
	}
	return nil
}

func (c ClientConfig) withDefaults() ClientConfig {
	if c.Timeout == 0 {
		c.Timeout = defaultCallTimeout
	}
	if c.MaxInputChars == 0 {
		c.MaxInputChars = defaultMaxInputChars
	}
	return c
}
