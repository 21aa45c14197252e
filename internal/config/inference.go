package config

import (
	"fmt"
	"strings"
	"time"

	"summarize-pro/internal/inference"
	pkgconfig "summarize-pro/pkg/config"
)

// InferenceConfig holds the credentials and endpoints of the inference backends.
// A backend without credentials stays registered; loading through it fails and the
// model cache moves on to the next fallback identifier.
type InferenceConfig struct {
	// DefaultBackend serves identifiers without a scheme. Default: "local"
	DefaultBackend string

	OpenAI    inference.ClientConfig
	Claude    inference.ClientConfig
	Responses inference.ClientConfig
	GRPC      inference.GRPCConfig
}

// LoadInferenceConfig reads backend settings from the environment.
func LoadInferenceConfig() (*InferenceConfig, error) {
	timeout := pkgconfig.GetEnvDuration("INFERENCE_TIMEOUT", 60*time.Second)
	maxInput := pkgconfig.GetEnvInt("INFERENCE_MAX_INPUT_CHARS", 12000)
	openAIKey := pkgconfig.GetEnvString("OPENAI_API_KEY", "")

	cfg := &InferenceConfig{
		DefaultBackend: strings.ToLower(strings.TrimSpace(pkgconfig.GetEnvString("INFERENCE_DEFAULT_BACKEND", "local"))),
		OpenAI: inference.ClientConfig{
			APIKey:        openAIKey,
			BaseURL:       pkgconfig.GetEnvString("OPENAI_BASE_URL", ""),
			Timeout:       timeout,
			MaxInputChars: maxInput,
		},
		Claude: inference.ClientConfig{
			APIKey:        pkgconfig.GetEnvString("ANTHROPIC_API_KEY", ""),
			BaseURL:       pkgconfig.GetEnvString("ANTHROPIC_BASE_URL", ""),
			Timeout:       timeout,
			MaxInputChars: maxInput,
		},
		Responses: inference.ClientConfig{
			APIKey:        openAIKey,
			BaseURL:       pkgconfig.GetEnvString("OPENAI_BASE_URL", ""),
			Timeout:       timeout,
			MaxInputChars: maxInput,
		},
		GRPC: inference.GRPCConfig{
			Address: strings.TrimSpace(pkgconfig.GetEnvString("INFERENCE_GRPC_ADDR", "")),
			Timeout: pkgconfig.GetEnvDuration("INFERENCE_GRPC_TIMEOUT", 120*time.Second),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid inference configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks configuration correctness.
func (c *InferenceConfig) Validate() error {
	switch c.DefaultBackend {
	case "local", "openai", "claude", "responses", "grpc":
	default:
		return fmt.Errorf("INFERENCE_DEFAULT_BACKEND: unknown backend %q", c.DefaultBackend)
	}
	for name, cc := range map[string]inference.ClientConfig{"openai": c.OpenAI, "claude": c.Claude, "responses": c.Responses} {
		if err := cc.Validate(); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if c.GRPC.Timeout <= 0 {
		return fmt.Errorf("INFERENCE_GRPC_TIMEOUT must be positive")
	}
	return nil
}

// NewRegistry builds the loader for every backend. The returned cleanup closes the
// gRPC connection.
func (c *InferenceConfig) NewRegistry() (*inference.Registry, func() error, error) {
	grpcBackend, err := inference.NewGRPCBackend(c.GRPC)
	if err != nil {
		return nil, nil, fmt.Errorf("grpc backend: %w", err)
	}

	registry, err := inference.NewRegistry(c.DefaultBackend,
		inference.NewLocalBackend(),
		inference.NewOpenAIBackend(c.OpenAI),
		inference.NewClaudeBackend(c.Claude),
		inference.NewResponsesBackend(c.Responses),
		grpcBackend,
	)
	if err != nil {
		_ = grpcBackend.Shutdown()
		return nil, nil, err
	}
	return registry, grpcBackend.Shutdown, nil
}
