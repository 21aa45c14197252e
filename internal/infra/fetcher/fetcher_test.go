package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"summarize-pro/internal/domain/entity"
	"summarize-pro/internal/resilience/retry"
)

const articleHTML = `<!DOCTYPE html>
<html><head><title>City Council Passes Transit Budget</title></head>
<body>
<nav><a href="/">Home</a> <a href="/news">News</a></nav>
<article>
<h1>City Council Passes Transit Budget</h1>
<p>The city council approved a new transit budget on Monday after a long debate that stretched late into the evening and drew residents from every district.</p>
<p>The plan adds bus routes to the northern suburbs, extends service hours on weekends and funds a study of a light rail line along the river corridor.</p>
<p>Opponents argued that the fare increase included in the plan would hurt commuters with low incomes, while supporters pointed to the expanded coverage.</p>
<p>The mayor is expected to sign the budget later this week, and the first new routes could open as early as next spring according to officials.</p>
</article>
<footer>Copyright</footer>
</body></html>`

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.DenyPrivateIPs = false
	cfg.Timeout = 2 * time.Second
	return cfg
}

func newTestFetcher(cfg Config) *ReadabilityFetcher {
	f := NewReadabilityFetcher(cfg)
	f.retryConfig = retry.Config{MaxAttempts: 1, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}
	return f
}

/* ───────── Fetch ───────── */

func TestFetch_ExtractsArticle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "SummarizeProBot/1.0", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = fmt.Fprint(w, articleHTML)
	}))
	defer srv.Close()

	article, err := newTestFetcher(testConfig()).Fetch(context.Background(), srv.URL+"/news/budget")
	require.NoError(t, err)

	assert.Equal(t, srv.URL+"/news/budget", article.URL)
	assert.Contains(t, article.Title, "Transit Budget")
	assert.Contains(t, article.Text, "light rail line")
	assert.NotContains(t, article.Text, "Copyright")
	assert.NotContains(t, article.Text, "\n")
}

func TestFetch_HTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.NotFound(w, nil)
	}))
	defer srv.Close()

	_, err := newTestFetcher(testConfig()).Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrHTTPStatus)

	var httpErr *retry.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
}

func TestFetch_BodyTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, "<html><body><p>"+strings.Repeat("x", 4096)+"</p></body></html>")
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.MaxBodySize = 1024
	_, err := newTestFetcher(cfg).Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrBodyTooLarge)
}

func TestFetch_TooManyRedirects(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, srv.URL+r.URL.Path+"x", http.StatusFound)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.MaxRedirects = 2
	_, err := newTestFetcher(cfg).Fetch(context.Background(), srv.URL+"/r")
	assert.ErrorIs(t, err, ErrTooManyRedirects)
}

func TestFetch_NoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, "<html><head><title>Empty</title></head><body></body></html>")
	}))
	defer srv.Close()

	_, err := newTestFetcher(testConfig()).Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrNoContent)
}

func TestFetch_DeniesPrivateAddresses(t *testing.T) {
	cfg := testConfig()
	cfg.DenyPrivateIPs = true

	_, err := newTestFetcher(cfg).Fetch(context.Background(), "http://127.0.0.1:1/admin")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidURL)

	var vErr *entity.ValidationError
	assert.True(t, errors.As(err, &vErr))
}

func TestValidateURL_Schemes(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"http://127.0.0.1:8080/page", false},
		{"https://example.org/a", false},
		{"ftp://example.org/a", true},
		{"http://", true},
		{"::not a url", true},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			err := validateURL(tt.url, false)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidURL)
				return
			}
			assert.NoError(t, err)
		})
	}
}

/* ───────── Selectors ───────── */

func TestExtractWithSelectors(t *testing.T) {
	html := `<html><head><meta property="og:title" content="OG Title"><title>Doc</title>
<script>var x = "ignored";</script></head>
<body><div class="entry-content"><p>First   paragraph.</p><ul><li>Item one</li></ul></div>
<aside><p>Sidebar</p></aside></body></html>`

	article, err := extractWithSelectors(strings.NewReader(html))
	require.NoError(t, err)
	assert.Equal(t, "OG Title", article.Title)
	assert.Equal(t, "First paragraph. Item one", article.Text)
}

func TestExtractWithSelectors_FallsBackToAllParagraphs(t *testing.T) {
	html := `<html><head><title> Plain  Page </title></head><body><div><p>Alpha.</p></div><p>Beta.</p></body></html>`

	article, err := extractWithSelectors(strings.NewReader(html))
	require.NoError(t, err)
	assert.Equal(t, "Plain Page", article.Title)
	assert.Equal(t, "Alpha. Beta.", article.Text)
}

/* ───────── Config ───────── */

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	bad := cfg
	bad.Timeout = 0
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.MaxBodySize = 10
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.MaxRedirects = 11
	assert.Error(t, bad.Validate())
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("URL_FETCH_TIMEOUT", "3s")
	t.Setenv("URL_FETCH_MAX_REDIRECTS", "2")
	t.Setenv("URL_FETCH_DENY_PRIVATE_IPS", "false")

	cfg, err := LoadConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.Equal(t, 2, cfg.MaxRedirects)
	assert.False(t, cfg.DenyPrivateIPs)
	assert.Equal(t, int64(10*1024*1024), cfg.MaxBodySize)
}
