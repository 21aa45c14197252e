package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// RateLimitError represents a 429 answer from a webhook service.
type RateLimitError struct {
	RetryAfter time.Duration
	Message    string
}

func (e *RateLimitError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s (retry after %v)", e.Message, e.RetryAfter)
	}
	return fmt.Sprintf("rate limit exceeded (retry after %v)", e.RetryAfter)
}

// ClientError represents a non-429 4xx answer. It is not retried.
type ClientError struct {
	StatusCode int
	Message    string
}

func (e *ClientError) Error() string { return e.Message }

// ServerError represents a 5xx answer.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string { return e.Message }

// isRetryableError reports whether another attempt may succeed: server and
// network errors yes, client errors no. Rate limits are handled separately.
func isRetryableError(err error) bool {
	var serverErr *ServerError
	if errors.As(err, &serverErr) {
		return true
	}
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return false
	}
	var rateLimitErr *RateLimitError
	return !errors.As(err, &rateLimitErr)
}

// truncate cuts text to maxLength bytes including suffix.
func truncate(text string, maxLength int, suffix string) string {
	if len(text) <= maxLength {
		return text
	}
	cut := max(maxLength-len(suffix), 0)
	return text[:cut] + suffix
}

// retryAfterBody is the 429 body shape shared by Slack and Discord.
type retryAfterBody struct {
	RetryAfter float64 `json:"retry_after"`
}

// extractRetryAfter reads the wait from the JSON body, then the Retry-After
// header, then defaults to 5s.
func extractRetryAfter(resp *http.Response, body []byte) time.Duration {
	var b retryAfterBody
	if err := json.Unmarshal(body, &b); err == nil && b.RetryAfter > 0 {
		return time.Duration(b.RetryAfter * float64(time.Second))
	}
	if h := resp.Header.Get("Retry-After"); h != "" {
		if seconds, err := strconv.Atoi(h); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return 5 * time.Second
}

// webhook is the transport shared by the Slack and Discord notifiers.
type webhook struct {
	service     string
	url         string
	client      *http.Client
	limiter     *RateLimiter
	maxAttempts int
	baseDelay   time.Duration
	logger      *slog.Logger
}

func newWebhook(service, url string, timeout time.Duration, limiter *RateLimiter) *webhook {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &webhook{
		service:     service,
		url:         url,
		client:      &http.Client{Timeout: timeout},
		limiter:     limiter,
		maxAttempts: 2,
		baseDelay:   5 * time.Second,
		logger:      slog.Default(),
	}
}

func (w *webhook) post(ctx context.Context, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("execute http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitError{
			Message:    w.service + " rate limit exceeded",
			RetryAfter: extractRetryAfter(resp, body),
		}
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return &ClientError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("%s webhook client error: %s", w.service, string(body)),
		}
	case resp.StatusCode >= 500:
		return &ServerError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("%s webhook server error: %s", w.service, string(body)),
		}
	}
	return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
}

// send rate limits, then posts with retries. 429s wait for the advertised
// retry_after, 5xx and network errors back off linearly, 4xx fail at once.
func (w *webhook) send(ctx context.Context, title string, payload any) error {
	alertID := uuid.New().String()
	log := w.logger.With(
		slog.String("alert_id", alertID),
		slog.String("service", w.service),
		slog.String("title", title))

	if err := w.limiter.Allow(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= w.maxAttempts; attempt++ {
		err := w.post(ctx, payload)
		if err == nil {
			log.Info("alert delivered", slog.Int("attempt", attempt))
			return nil
		}
		lastErr = err

		var delay time.Duration
		var rateLimitErr *RateLimitError
		switch {
		case errors.As(err, &rateLimitErr):
			delay = rateLimitErr.RetryAfter
			log.Warn("webhook rate limit hit, backing off",
				slog.Duration("retry_after", delay),
				slog.Int("attempt", attempt))
		case !isRetryableError(err):
			log.Error("alert delivery failed with non-retryable error",
				slog.Any("error", err),
				slog.Int("attempt", attempt))
			return err
		default:
			delay = w.baseDelay * time.Duration(attempt)
			log.Warn("webhook request failed, retrying",
				slog.Any("error", err),
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay))
		}

		if attempt == w.maxAttempts {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("context canceled during backoff: %w", ctx.Err())
		}
	}

	log.Error("alert delivery failed after all retries",
		slog.Any("error", lastErr),
		slog.Int("max_attempts", w.maxAttempts))
	return fmt.Errorf("%s alert failed after %d attempts: %w", w.service, w.maxAttempts, lastErr)
}
