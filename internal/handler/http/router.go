package http

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"summarize-pro/internal/common/pagination"
	"summarize-pro/internal/handler/http/auth"
	"summarize-pro/internal/handler/http/middleware"
	"summarize-pro/internal/handler/http/pathutil"
	"summarize-pro/internal/handler/http/requestid"
	"summarize-pro/internal/observability/tracing"
	authservice "summarize-pro/internal/service/auth"
)

// Deps are the collaborators of the HTTP API. Summaries, QA and Models are
// required; the rest are optional.
type Deps struct {
	Logger  *slog.Logger
	Version string

	Summaries SummaryService
	History   HistoryService
	Results   ResultCacheClearer
	QA        QAService
	Models    ModelCache

	// DB and Cache are probed by /health and /ready.
	DB    *sql.DB
	Cache Pinger

	// Auth and Issuer enable /auth/token and the admin routes.
	Auth   *authservice.AuthService
	Issuer *auth.Issuer

	// RateLimiter is applied to every route when non-nil.
	RateLimiter *middleware.RateLimiter

	Pagination     pagination.Config
	MaxBodyBytes   int64
	RequestTimeout time.Duration
}

// NewRouter registers every route and wraps the mux with the middleware chain:
// request ID, rate limit, recover, logging, body limit, tracing, metrics.
func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	withTimeout := Timeout(d.RequestTimeout)

	sh := SummaryHandler{Svc: d.Summaries}
	mux.Handle("POST /api/v1/summarize/text", withTimeout(http.HandlerFunc(sh.Text)))
	mux.Handle("POST /api/v1/summarize/document", withTimeout(http.HandlerFunc(sh.Document)))
	mux.Handle("POST /api/v1/summarize/url", withTimeout(http.HandlerFunc(sh.URL)))
	mux.Handle("POST /api/v1/summarize/youtube", withTimeout(http.HandlerFunc(sh.YouTube)))
	mux.Handle("POST /api/v1/summarize/multilingual", withTimeout(http.HandlerFunc(sh.Multilingual)))

	qh := QAHandler{Svc: d.QA}
	mux.Handle("POST /api/v1/qa/ask", withTimeout(http.HandlerFunc(qh.Ask)))
	mux.Handle("POST /api/v1/qa/conversation", withTimeout(http.HandlerFunc(qh.Conversation)))

	mux.Handle("GET /health", &HealthHandler{DB: d.DB, Cache: d.Cache, Models: d.Models, Version: d.Version})
	mux.Handle("GET /ready", &ReadyHandler{DB: d.DB})
	mux.Handle("GET /live", LiveHandler{})
	mux.Handle("GET /metrics", MetricsHandler())

	mh := ModelsHandler{Models: d.Models, Results: d.Results, Logger: logger}
	mux.HandleFunc("GET /health/models", mh.Info)

	if d.Auth != nil && d.Issuer != nil {
		admin := auth.RequireAdmin(d.Issuer)
		mux.Handle("POST /auth/token", auth.TokenHandler(d.Auth, d.Issuer))
		mux.Handle("POST /health/models/clear-cache", admin(http.HandlerFunc(mh.ClearCache)))
		if d.History != nil {
			hh := HistoryHandler{Svc: d.History, PaginationCfg: d.Pagination}
			mux.Handle("GET /api/v1/summaries", admin(http.HandlerFunc(hh.List)))
			mux.Handle("GET /api/v1/summaries/{id}", admin(http.HandlerFunc(hh.Get)))
		}
	} else {
		logger.Warn("admin credentials not configured: /auth/token and admin routes are disabled")
	}

	mws := []func(http.Handler) http.Handler{requestid.Middleware}
	if d.RateLimiter != nil {
		mws = append(mws, d.RateLimiter.Middleware)
	}
	mws = append(mws,
		Recover(logger),
		Logging(logger),
		InputValidation(d.MaxBodyBytes),
		tracing.Middleware(pathutil.NormalizePath),
		MetricsMiddleware,
	)
	return Chain(mux, mws...)
}
