package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"summarize-pro/internal/common/pagination"
	"summarize-pro/internal/domain/entity"
	"summarize-pro/internal/handler/http/auth"
	"summarize-pro/internal/handler/http/middleware"
	authservice "summarize-pro/internal/service/auth"
)

const routerSecret = "router-test-secret-0123456789abcdef"

type routerFixture struct {
	summaries *fakeSummaries
	qa        *fakeQA
	models    *fakeModels
	history   *fakeHistory
	issuer    *auth.Issuer
}

func newRouterFixture(t *testing.T, withAdmin bool, tweak func(*Deps)) (http.Handler, *routerFixture) {
	t.Helper()
	fx := &routerFixture{
		summaries: &fakeSummaries{result: sampleSummary()},
		qa:        &fakeQA{answer: sampleAnswer()},
		models:    &fakeModels{info: residentInfo()},
		history: &fakeHistory{
			items: []*entity.Summary{sampleSummary()},
			total: 1,
			byID:  map[int64]*entity.Summary{7: sampleSummary()},
		},
	}
	d := Deps{
		Logger:         discardLogger(),
		Version:        "test",
		Summaries:      fx.summaries,
		History:        fx.history,
		Results:        &fakeResults{n: 2},
		QA:             fx.qa,
		Models:         fx.models,
		Pagination:     pagination.DefaultConfig(),
		MaxBodyBytes:   1 << 20,
		RequestTimeout: time.Minute,
	}
	if withAdmin {
		provider, err := authservice.NewAdminProvider("ops", "correct horse battery")
		require.NoError(t, err)
		fx.issuer = auth.NewIssuer(routerSecret, time.Hour)
		d.Auth = authservice.NewAuthService(provider)
		d.Issuer = fx.issuer
	}
	if tweak != nil {
		tweak(&d)
	}
	return NewRouter(d), fx
}

func serve(h http.Handler, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_PublicRoutes(t *testing.T) {
	h, fx := newRouterFixture(t, false, nil)

	tests := []struct {
		name     string
		method   string
		path     string
		body     string
		wantCode int
	}{
		{"text", http.MethodPost, "/api/v1/summarize/text", `{"text":"x"}`, http.StatusOK},
		{"document", http.MethodPost, "/api/v1/summarize/document", `{"text":"x"}`, http.StatusOK},
		{"youtube", http.MethodPost, "/api/v1/summarize/youtube", `{"transcript":"x"}`, http.StatusOK},
		{"multilingual", http.MethodPost, "/api/v1/summarize/multilingual", `{"text":"x"}`, http.StatusOK},
		{"ask", http.MethodPost, "/api/v1/qa/ask", `{"question":"q","context":"c"}`, http.StatusOK},
		{"conversation", http.MethodPost, "/api/v1/qa/conversation", `{"question":"q","context":"c"}`, http.StatusOK},
		{"health", http.MethodGet, "/health", "", http.StatusOK},
		{"ready", http.MethodGet, "/ready", "", http.StatusOK},
		{"live", http.MethodGet, "/live", "", http.StatusOK},
		{"models", http.MethodGet, "/health/models", "", http.StatusOK},
		{"metrics", http.MethodGet, "/metrics", "", http.StatusOK},
		{"wrong method", http.MethodGet, "/api/v1/summarize/text", "", http.StatusMethodNotAllowed},
		{"unknown", http.MethodGet, "/api/v2/anything", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(h, tt.method, tt.path, tt.body, nil)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
		})
	}

	assert.Len(t, fx.summaries.reqs, 4)
	assert.Len(t, fx.qa.asked, 1)
	assert.Len(t, fx.qa.conversed, 1)
}

func TestRouter_AdminDisabled(t *testing.T) {
	h, fx := newRouterFixture(t, false, nil)

	assert.Equal(t, http.StatusNotFound, serve(h, http.MethodPost, "/auth/token", `{}`, nil).Code)
	assert.Equal(t, http.StatusNotFound, serve(h, http.MethodGet, "/api/v1/summaries", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, serve(h, http.MethodPost, "/health/models/clear-cache", "", nil).Code)
	assert.Zero(t, fx.models.cleared)
}

func TestRouter_AdminRoutes(t *testing.T) {
	h, fx := newRouterFixture(t, true, nil)

	rec := serve(h, http.MethodPost, "/auth/token", `{"username":"ops","password":"correct horse battery"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	token := decodeBody[map[string]any](t, rec)["token"].(string)
	require.NotEmpty(t, token)
	bearer := map[string]string{"Authorization": "Bearer " + token}

	t.Run("history requires token", func(t *testing.T) {
		rec := serve(h, http.MethodGet, "/api/v1/summaries", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("history list", func(t *testing.T) {
		rec := serve(h, http.MethodGet, "/api/v1/summaries?limit=5", "", bearer)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, pagination.Params{Page: 1, Limit: 5}, fx.history.params)
	})

	t.Run("history get", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/api/v1/summaries/7", "", bearer).Code)
		assert.Equal(t, http.StatusNotFound, serve(h, http.MethodGet, "/api/v1/summaries/99", "", bearer).Code)
	})

	t.Run("clear cache", func(t *testing.T) {
		rec := serve(h, http.MethodPost, "/health/models/clear-cache", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Zero(t, fx.models.cleared)

		rec = serve(h, http.MethodPost, "/health/models/clear-cache", "", bearer)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, fx.models.cleared)
		assert.Equal(t, 2, decodeBody[clearCacheResponse](t, rec).ResultsCleared)
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := serve(h, http.MethodPost, "/auth/token", `{"username":"ops","password":"nope"}`, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRouter_BodyLimit(t *testing.T) {
	h, fx := newRouterFixture(t, false, func(d *Deps) { d.MaxBodyBytes = 64 })

	rec := serve(h, http.MethodPost, "/api/v1/summarize/text", `{"text":"`+strings.Repeat("w ", 100)+`"}`, nil)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Empty(t, fx.summaries.reqs)
}

func TestRouter_RateLimit(t *testing.T) {
	h, _ := newRouterFixture(t, false, func(d *Deps) {
		d.RateLimiter = middleware.NewRateLimiter(2, &middleware.RemoteAddrExtractor{})
	})

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/live", "", nil).Code)
	}
	rec := serve(h, http.MethodGet, "/live", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRouter_PropagatesRequestID(t *testing.T) {
	h, _ := newRouterFixture(t, false, nil)

	rec := serve(h, http.MethodGet, "/live", "", map[string]string{"X-Request-ID": "client-id-1"})
	assert.Equal(t, "client-id-1", rec.Header().Get("X-Request-ID"))
}
