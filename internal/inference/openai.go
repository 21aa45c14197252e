package inference

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"summarize-pro/internal/resilience/circuitbreaker"
	"summarize-pro/internal/resilience/retry"
)

// OpenAIBackend serves "openai:<model>" identifiers through the Chat Completions API.
type OpenAIBackend struct {
	client         *openai.Client
	config         ClientConfig
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

// NewOpenAIBackend creates the backend. The client is created lazily per key so an
// unconfigured backend still registers and simply fails every Open.
func NewOpenAIBackend(cfg ClientConfig) *OpenAIBackend {
	cfg = cfg.withDefaults()
	b := &OpenAIBackend{
		config:         cfg,
		circuitBreaker: circuitbreaker.New(circuitbreaker.InferenceAPIConfig("openai")),
		retryConfig:    retry.InferenceConfig(),
	}
	if cfg.Configured() {
		clientCfg := openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientCfg.BaseURL = cfg.BaseURL
		}
		b.client = openai.NewClientWithConfig(clientCfg)
	}
	return b
}

// Name implements Backend.
func (b *OpenAIBackend) Name() string { return "openai" }

// Open implements Backend.
func (b *OpenAIBackend) Open(ctx context.Context, model string, task TaskKind) (Handle, error) {
	if b.client == nil {
		return nil, fmt.Errorf("openai: %w", ErrBackendNotConfigured)
	}
	slog.InfoContext(ctx, "opened openai model",
		slog.String("model", model),
		slog.String("task", string(task)))
	return &openAIHandle{backend: b, model: model, task: task}, nil
}

type openAIHandle struct {
	backend *OpenAIBackend
	model   string
	task    TaskKind
}

func (h *openAIHandle) Run(ctx context.Context, input string, p Params) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, h.backend.config.Timeout)
	defer cancel()

	prompt := buildPrompt(h.task, input, p, h.backend.config.MaxInputChars)
	req := openai.ChatCompletionRequest{
		Model: h.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.System},
			{Role: openai.ChatMessageRoleUser, Content: prompt.User},
		},
		Temperature:      float32(temperature(p)),
		FrequencyPenalty: float32(frequencyPenalty(p)),
	}
	if h.task.Generative() && p.MaxLength > 0 {
		req.MaxTokens = p.MaxLength
	}

	var result string
	err := retry.WithBackoff(ctx, h.backend.retryConfig, func() error {
		out, err := h.backend.circuitBreaker.Execute(func() (interface{}, error) {
			return h.complete(ctx, req)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				return fmt.Errorf("openai unavailable: circuit breaker open: %w", err)
			}
			return err
		}
		result = out.(string)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("openai %s: %w", h.model, err)
	}
	return result, nil
}

func (h *openAIHandle) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	resp, err := h.backend.client.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", &retry.HTTPError{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message, Err: err}
		}
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyOutput
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", ErrEmptyOutput
	}
	return out, nil
}

// Close is a no-op: hosted models hold no local resources.
func (h *openAIHandle) Close() error { return nil }
