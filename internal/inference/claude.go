package inference

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sony/gobreaker"

	"summarize-pro/internal/resilience/circuitbreaker"
	"summarize-pro/internal/resilience/retry"
)

// defaultClaudeMaxTokens is used for non generative tasks where Params carry no budget.
const defaultClaudeMaxTokens = 256

// ClaudeBackend serves "claude:<model>" identifiers through the Messages API.
type ClaudeBackend struct {
	client         anthropic.Client
	configured     bool
	config         ClientConfig
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

// NewClaudeBackend creates the backend.
func NewClaudeBackend(cfg ClientConfig) *ClaudeBackend {
	cfg = cfg.withDefaults()
	b := &ClaudeBackend{
		config:         cfg,
		configured:     cfg.Configured(),
		circuitBreaker: circuitbreaker.New(circuitbreaker.InferenceAPIConfig("claude")),
		retryConfig:    retry.InferenceConfig(),
	}
	if b.configured {
		opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
		if cfg.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(cfg.BaseURL))
		}
		// retries are handled by retry.WithBackoff
		opts = append(opts, option.WithMaxRetries(0))
		b.client = anthropic.NewClient(opts...)
	}
	return b
}

// Name implements Backend.
func (b *ClaudeBackend) Name() string { return "claude" }

// Open implements Backend.
func (b *ClaudeBackend) Open(_ context.Context, model string, task TaskKind) (Handle, error) {
	if !b.configured {
		return nil, fmt.Errorf("claude: %w", ErrBackendNotConfigured)
	}
	return &claudeHandle{backend: b, model: model, task: task}, nil
}

type claudeHandle struct {
	backend *ClaudeBackend
	model   string
	task    TaskKind
}

func (h *claudeHandle) Run(ctx context.Context, input string, p Params) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, h.backend.config.Timeout)
	defer cancel()

	prompt := buildPrompt(h.task, input, p, h.backend.config.MaxInputChars)
	maxTokens := int64(defaultClaudeMaxTokens)
	if h.task.Generative() && p.MaxLength > 0 {
		maxTokens = int64(p.MaxLength)
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(h.model),
		MaxTokens: maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: prompt.System},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt.User)),
		},
		Temperature: anthropic.Float(temperature(p)),
	}

	var result string
	err := retry.WithBackoff(ctx, h.backend.retryConfig, func() error {
		out, err := h.backend.circuitBreaker.Execute(func() (interface{}, error) {
			return h.message(ctx, params)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				return fmt.Errorf("claude unavailable: circuit breaker open: %w", err)
			}
			return err
		}
		result = out.(string)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("claude %s: %w", h.model, err)
	}
	return result, nil
}

func (h *claudeHandle) message(ctx context.Context, params anthropic.MessageNewParams) (string, error) {
	message, err := h.backend.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", &retry.HTTPError{StatusCode: apiErr.StatusCode, Message: "claude api error", Err: err}
		}
		return "", err
	}

	var sb strings.Builder
	for _, block := range message.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(tb.Text)
		}
	}
	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", ErrEmptyOutput
	}
	return out, nil
}

func (h *claudeHandle) Close() error { return nil }
