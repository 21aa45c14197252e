package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"summarize-pro/internal/domain/entity"
	"summarize-pro/internal/handler/http/respond"
	"summarize-pro/internal/infra/fetcher"
	"summarize-pro/internal/modelcache"
	"summarize-pro/internal/summarize"
	"summarize-pro/internal/usecase/summary"
)

func TestClassify(t *testing.T) {
	loadErr := &modelcache.LoadError{
		Key: "text-summarizer",
		Attempts: []modelcache.Attempt{
			{Identifier: "openai:gpt-4o-mini", Err: errors.New("api key sk-abcdefghijklmnopqrstuvwxyz rejected")},
			{Identifier: "local:extractive", Err: errors.New("not registered")},
		},
	}

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{"validation", &entity.ValidationError{Field: "summary_style", Message: "must be one of 'brief'"}, 400, "must be one of 'brief'"},
		{"body too large", &http.MaxBytesError{Limit: 10}, 413, "request body too large"},
		{"empty input", fmt.Errorf("run: %w", summarize.ErrEmptyInput), 400, "text is required"},
		{"unknown class", summarize.ErrUnknownContentClass, 400, "unsupported content type"},
		{"insufficient", fmt.Errorf("%w: page too short", summary.ErrInsufficientContent), 422, "content too short to summarize"},
		{"no fetcher", summary.ErrFetcherUnavailable, 503, "url summarization is not available"},
		{"fetch invalid url", fmt.Errorf("fetch x: %w", fetcher.ErrInvalidURL), 400, "invalid url"},
		{"fetch no content", fmt.Errorf("fetch x: %w", fetcher.ErrNoContent), 422, "no readable content at url"},
		{"fetch timeout", fmt.Errorf("fetch x: %w", fetcher.ErrTimeout), 504, "url fetch timed out"},
		{"fetch status", fmt.Errorf("fetch x: %w: 404", fetcher.ErrHTTPStatus), 502, "could not fetch url"},
		{"fetch unreachable", fmt.Errorf("%w: %w", fetcher.ErrUnreachable, errors.New("dial tcp")), 502, "could not fetch url"},
		{"model load", loadErr, 502, "model unavailable"},
		{"unknown key", fmt.Errorf("acquire: %w", modelcache.ErrUnknownModelKey), 502, "model unavailable"},
		{"breaker open", fmt.Errorf("openai: %w", gobreaker.ErrOpenState), 503, "upstream temporarily unavailable"},
		{"deadline", context.DeadlineExceeded, 504, "request timed out"},
		{"not found", fmt.Errorf("summary 9: %w", entity.ErrNotFound), 404, "not found"},
		{"inference", &summarize.InferenceError{Step: "reduce", Chunk: -1, Err: errors.New("503 from upstream")}, 502, "inference failed"},
		{"other", errors.New("boom"), 500, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var appErr *respond.AppError
			require.True(t, errors.As(classify(tt.err), &appErr))
			assert.Equal(t, tt.wantCode, appErr.Code)
			assert.Equal(t, tt.wantMsg, appErr.UserMsg)
		})
	}
}

func TestWriteError_HidesCause(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, &modelcache.LoadError{
		Key:      "qa",
		Attempts: []modelcache.Attempt{{Identifier: "claude:haiku", Err: errors.New("key sk-ant-api03-secretsecret invalid")}},
	})

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"error":"model unavailable"}`, rec.Body.String())
}
