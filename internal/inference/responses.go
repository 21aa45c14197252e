package inference

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
	"github.com/sony/gobreaker"

	"summarize-pro/internal/resilience/circuitbreaker"
	"summarize-pro/internal/resilience/retry"
)

const (
	baseMaxOutputTokens  int64 = 256
	limitMaxOutputTokens int64 = 2048
)

// ResponsesBackend serves "responses:<model>" identifiers through the OpenAI
// Responses API. Reasoning models are addressed this way.
type ResponsesBackend struct {
	client         openai.Client
	configured     bool
	config         ClientConfig
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

// NewResponsesBackend creates the backend.
func NewResponsesBackend(cfg ClientConfig) *ResponsesBackend {
	cfg = cfg.withDefaults()
	b := &ResponsesBackend{
		config:         cfg,
		configured:     cfg.Configured(),
		circuitBreaker: circuitbreaker.New(circuitbreaker.InferenceAPIConfig("responses")),
		retryConfig:    retry.InferenceConfig(),
	}
	if b.configured {
		opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey), option.WithMaxRetries(0)}
		if cfg.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(cfg.BaseURL))
		}
		b.client = openai.NewClient(opts...)
	}
	return b
}

// Name implements Backend.
func (b *ResponsesBackend) Name() string { return "responses" }

// Open implements Backend.
func (b *ResponsesBackend) Open(_ context.Context, model string, task TaskKind) (Handle, error) {
	if !b.configured {
		return nil, fmt.Errorf("responses: %w", ErrBackendNotConfigured)
	}
	return &responsesHandle{backend: b, model: model, task: task}, nil
}

type responsesHandle struct {
	backend *ResponsesBackend
	model   string
	task    TaskKind
}

func (h *responsesHandle) Run(ctx context.Context, input string, p Params) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, h.backend.config.Timeout)
	defer cancel()

	prompt := buildPrompt(h.task, input, p, h.backend.config.MaxInputChars)
	maxOutputTokens := baseMaxOutputTokens
	if h.task.Generative() && int64(p.MaxLength) > maxOutputTokens {
		maxOutputTokens = min(int64(p.MaxLength), limitMaxOutputTokens)
	}

	var result string
	err := retry.WithBackoff(ctx, h.backend.retryConfig, func() error {
		out, err := h.backend.circuitBreaker.Execute(func() (interface{}, error) {
			return h.respond(ctx, prompt, maxOutputTokens)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				return fmt.Errorf("responses unavailable: circuit breaker open: %w", err)
			}
			return err
		}
		result = out.(string)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("responses %s: %w", h.model, err)
	}
	return result, nil
}

// respond grows the output budget when the model stops on max_output_tokens, since
// reasoning tokens count against it.
func (h *responsesHandle) respond(ctx context.Context, prompt chatPrompt, maxOutputTokens int64) (string, error) {
	for {
		resp, err := h.backend.client.Responses.New(ctx, responses.ResponseNewParams{
			Model:           h.model,
			MaxOutputTokens: openai.Int(maxOutputTokens),
			Instructions:    openai.String(prompt.System),
			Input: responses.ResponseNewParamsInputUnion{
				OfString: openai.String(prompt.User),
			},
		})
		if err != nil {
			var apiErr *openai.Error
			if errors.As(err, &apiErr) {
				return "", &retry.HTTPError{StatusCode: apiErr.StatusCode, Message: "responses api error", Err: err}
			}
			return "", fmt.Errorf("do request: %w", err)
		}

		if resp.Status == "incomplete" {
			if resp.IncompleteDetails.Reason == "max_output_tokens" && maxOutputTokens < limitMaxOutputTokens {
				maxOutputTokens = min(maxOutputTokens*2, limitMaxOutputTokens)
				continue
			}
			return "", fmt.Errorf("response is incomplete (reason = %s, maxOutputTokens = %d)",
				resp.IncompleteDetails.Reason, maxOutputTokens)
		}

		out := strings.TrimSpace(resp.OutputText())
		if out == "" {
			return "", ErrEmptyOutput
		}
		return out, nil
	}
}

func (h *responsesHandle) Close() error { return nil }
