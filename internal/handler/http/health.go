// Package http contains the HTTP surface of the summarization service: routing,
// request handlers, health probes and the cross-cutting middleware.
package http

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"summarize-pro/internal/handler/http/respond"
	"summarize-pro/internal/modelcache"
)

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
	statusDisabled  = "disabled"
)

// Pinger is satisfied by *resultcache.RedisCache.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ModelInspector is satisfied by *modelcache.Cache.
type ModelInspector interface {
	Info() modelcache.Info
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Checks    map[string]CheckStatus `json:"checks"`
	Version   string                 `json:"version"`
}

// CheckStatus is the result of one dependency check.
type CheckStatus struct {
	Status  string         `json:"status"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// HealthHandler reports the state of every configured dependency. The database and
// the result cache are optional; when absent they are reported as disabled.
type HealthHandler struct {
	DB      *sql.DB
	Cache   Pinger
	Models  ModelInspector
	Version string
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]CheckStatus{
		"database":     h.checkDatabase(ctx),
		"result_cache": h.checkCache(ctx),
	}
	if h.Models != nil {
		checks["models"] = checkModels(h.Models.Info())
	}

	status, code := statusHealthy, http.StatusOK
	for _, c := range checks {
		switch c.Status {
		case statusUnhealthy:
			status, code = statusUnhealthy, http.StatusServiceUnavailable
		case statusDegraded:
			if status == statusHealthy {
				status = statusDegraded
			}
		}
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	respond.JSON(w, code, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Version:   h.Version,
	})
}

func (h *HealthHandler) checkDatabase(ctx context.Context) CheckStatus {
	if h.DB == nil {
		return CheckStatus{Status: statusDisabled}
	}
	if err := h.DB.PingContext(ctx); err != nil {
		slog.WarnContext(ctx, "health: database ping failed", slog.String("error", respond.SanitizeError(err)))
		return CheckStatus{Status: statusUnhealthy, Message: "database unreachable"}
	}

	stats := h.DB.Stats()
	details := map[string]any{
		"max_open_connections": stats.MaxOpenConnections,
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"wait_count":           stats.WaitCount,
		"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
	}
	if stats.MaxOpenConnections == 0 {
		return CheckStatus{Status: statusDegraded, Message: "connection pool max connections not configured", Details: details}
	}
	utilization := float64(stats.InUse) / float64(stats.MaxOpenConnections) * 100
	details["utilization_percent"] = utilization
	if utilization >= 80 {
		return CheckStatus{Status: statusDegraded, Message: "connection pool utilization above 80%", Details: details}
	}
	return CheckStatus{Status: statusHealthy, Details: details}
}

// checkCache never reports unhealthy: summaries are still produced without the cache.
func (h *HealthHandler) checkCache(ctx context.Context) CheckStatus {
	if h.Cache == nil {
		return CheckStatus{Status: statusDisabled}
	}
	if err := h.Cache.Ping(ctx); err != nil {
		slog.WarnContext(ctx, "health: result cache ping failed", slog.String("error", respond.SanitizeError(err)))
		return CheckStatus{Status: statusDegraded, Message: "result cache unreachable"}
	}
	return CheckStatus{Status: statusHealthy}
}

func checkModels(info modelcache.Info) CheckStatus {
	return CheckStatus{
		Status: statusHealthy,
		Details: map[string]any{
			"capacity": info.Capacity,
			"resident": len(info.ResidentKeys),
		},
	}
}

// ReadyHandler answers 200 once the configured database accepts connections.
type ReadyHandler struct {
	DB *sql.DB
}

func (h *ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.DB != nil {
		if err := h.DB.PingContext(ctx); err != nil {
			respond.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready", "reason": "database unreachable"})
			return
		}
	}
	respond.JSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// LiveHandler always answers 200 while the process can serve requests.
type LiveHandler struct{}

func (LiveHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{"status": "alive"})
}
