package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAlert = Alert{
	Title:    "SLO breached",
	Message:  "availability below target",
	Severity: SeverityCritical,
	Fields:   []Field{{Name: "availability", Value: "97.10%"}, {Name: "requests", Value: "1200"}},
	Time:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
}

func fastRetries(h *webhook) {
	h.baseDelay = time.Millisecond
	h.limiter = NewRateLimiter(1000, 100)
}

func TestSlackNotifier_buildPayload(t *testing.T) {
	n := NewSlackNotifier(SlackConfig{WebhookURL: "https://hooks.slack.test/x"})
	p := n.buildPayload(testAlert)

	assert.Equal(t, "[CRITICAL] SLO breached", p.Text)
	require.Len(t, p.Blocks, 3)
	assert.Contains(t, p.Blocks[0].Text.Text, "*SLO breached*")
	assert.Contains(t, p.Blocks[0].Text.Text, "availability below target")
	require.Len(t, p.Blocks[1].Fields, 2)
	assert.Equal(t, "*availability*\n97.10%", p.Blocks[1].Fields[0].Text)
	assert.Equal(t, "context", p.Blocks[2].Type)
	assert.Contains(t, p.Blocks[2].Elements[0].Text, "2026-03-01T12:00:00Z")
}

func TestSlackNotifier_buildPayload_Truncates(t *testing.T) {
	n := NewSlackNotifier(SlackConfig{})
	p := n.buildPayload(Alert{Title: strings.Repeat("t", 400), Message: strings.Repeat("m", 5000)})

	assert.Len(t, p.Text, maxFallbackLength)
	assert.Len(t, p.Blocks[0].Text.Text, maxSectionTextLength)
	assert.True(t, strings.HasSuffix(p.Blocks[0].Text.Text, slackTruncationSuffix))
	assert.Len(t, p.Blocks, 2, "no field block without fields")
}

func TestDiscordNotifier_buildPayload(t *testing.T) {
	n := NewDiscordNotifier(DiscordConfig{})
	p := n.buildPayload(testAlert)

	require.Len(t, p.Embeds, 1)
	e := p.Embeds[0]
	assert.Equal(t, "SLO breached", e.Title)
	assert.Equal(t, discordSeverityColor[SeverityCritical], e.Color)
	assert.Equal(t, "critical", e.Footer.Text)
	assert.Equal(t, "2026-03-01T12:00:00Z", e.Timestamp)
	require.Len(t, e.Fields, 2)
	assert.Equal(t, DiscordEmbedField{Name: "requests", Value: "1200", Inline: true}, e.Fields[1])

	defaulted := n.buildPayload(Alert{Title: "x"})
	assert.Equal(t, discordSeverityColor[SeverityWarning], defaulted.Embeds[0].Color)
}

func TestSlackNotifier_Notify(t *testing.T) {
	var got SlackWebhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	n := NewSlackNotifier(SlackConfig{WebhookURL: srv.URL, Timeout: time.Second})
	require.NoError(t, n.Notify(context.Background(), testAlert))
	assert.Equal(t, "[CRITICAL] SLO breached", got.Text)
}

func TestDiscordNotifier_Notify_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewDiscordNotifier(DiscordConfig{WebhookURL: srv.URL})
	fastRetries(n.hook)

	require.NoError(t, n.Notify(context.Background(), testAlert))
	assert.Equal(t, int32(2), calls.Load())
}

func TestNotify_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "invalid_payload", http.StatusBadRequest)
	}))
	defer srv.Close()

	n := NewSlackNotifier(SlackConfig{WebhookURL: srv.URL})
	fastRetries(n.hook)

	err := n.Notify(context.Background(), testAlert)
	var clientErr *ClientError
	require.ErrorAs(t, err, &clientErr)
	assert.Equal(t, http.StatusBadRequest, clientErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestNotify_RateLimitUsesRetryAfter(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"retry_after": 0.01}`))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewDiscordNotifier(DiscordConfig{WebhookURL: srv.URL})
	fastRetries(n.hook)

	require.NoError(t, n.Notify(context.Background(), testAlert))
	assert.Equal(t, int32(2), calls.Load())
}

func TestNotify_ExhaustsRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	n := NewSlackNotifier(SlackConfig{WebhookURL: srv.URL})
	fastRetries(n.hook)

	err := n.Notify(context.Background(), testAlert)
	var serverErr *ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Contains(t, err.Error(), "after 2 attempts")
}

func TestExtractRetryAfter(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	assert.Equal(t, 1500*time.Millisecond, extractRetryAfter(resp, []byte(`{"retry_after":1.5}`)))

	resp.Header.Set("Retry-After", "3")
	assert.Equal(t, 3*time.Second, extractRetryAfter(resp, []byte("rate limited")))

	assert.Equal(t, 5*time.Second, extractRetryAfter(&http.Response{Header: http.Header{}}, nil))
}

type stubNotifier struct {
	err   error
	calls int
}

func (s *stubNotifier) Notify(context.Context, Alert) error {
	s.calls++
	return s.err
}

func TestMulti_Notify(t *testing.T) {
	a, b := &stubNotifier{err: errors.New("slack down")}, &stubNotifier{}
	err := Multi{a, b}.Notify(context.Background(), testAlert)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "slack down")
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls, "later notifiers still run after a failure")
}

func TestNew(t *testing.T) {
	assert.IsType(t, NoOpNotifier{}, New("", "", time.Second))
	assert.IsType(t, &SlackNotifier{}, New("https://s", "", time.Second))
	assert.IsType(t, &DiscordNotifier{}, New("", "https://d", time.Second))
	assert.IsType(t, Multi{}, New("https://s", "https://d", time.Second))
	assert.NoError(t, NoOpNotifier{}.Notify(context.Background(), testAlert))
}
