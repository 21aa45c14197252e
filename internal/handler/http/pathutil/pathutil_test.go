package pathutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePath(t *testing.T) {
	tests := map[string]string{
		"/api/v1/summaries/42":       "/api/v1/summaries/:id",
		"/api/v1/summaries/42/":      "/api/v1/summaries/:id",
		"/api/v1/summaries/abc":      "/api/v1/summaries/:id",
		"/api/v1/summaries/7?x=1":    "/api/v1/summaries/:id",
		"/api/v1/summaries":          "/api/v1/summaries",
		"/api/v1/summaries?page=2":   "/api/v1/summaries",
		"/api/v1/summarize/text":     "/api/v1/summarize/text",
		"/health/models/clear-cache": "/health/models/clear-cache",
		"/":                          "/",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, NormalizePath(in))
		})
	}
}

func TestParseID(t *testing.T) {
	id, err := ParseID("123")
	require.NoError(t, err)
	assert.Equal(t, int64(123), id)

	for _, raw := range []string{"", "0", "-1", "abc", "1.5", "99999999999999999999"} {
		t.Run(raw, func(t *testing.T) {
			_, err := ParseID(raw)
			assert.ErrorIs(t, err, ErrInvalidID)
		})
	}
}

func BenchmarkNormalizePath(b *testing.B) {
	paths := []string{"/api/v1/summaries/123", "/api/v1/summarize/text", "/health", "/metrics"}
	for i := 0; i < b.N; i++ {
		_ = NormalizePath(paths[i%len(paths)])
	}
}
