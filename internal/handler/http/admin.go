package http

import (
	"context"
	"log/slog"
	"net/http"

	"summarize-pro/internal/common/pagination"
	"summarize-pro/internal/domain/entity"
	"summarize-pro/internal/handler/http/pathutil"
	"summarize-pro/internal/handler/http/respond"
	"summarize-pro/internal/modelcache"
	"summarize-pro/internal/usecase/summary"
)

// ModelCache is implemented by *modelcache.Cache.
type ModelCache interface {
	Info() modelcache.Info
	Clear(ctx context.Context) []string
}

// ResultCacheClearer is implemented by *summary.Service.
type ResultCacheClearer interface {
	ClearCache(ctx context.Context) (int, error)
}

// HistoryService is implemented by *summary.Service.
type HistoryService interface {
	ListHistory(ctx context.Context, params pagination.Params) (*summary.PaginatedResult, error)
	GetHistory(ctx context.Context, id int64) (*entity.Summary, error)
}

// ModelsHandler exposes the model cache.
type ModelsHandler struct {
	Models  ModelCache
	Results ResultCacheClearer
	Logger  *slog.Logger
}

// Info handles GET /health/models.
func (h ModelsHandler) Info(w http.ResponseWriter, _ *http.Request) {
	respond.JSON(w, http.StatusOK, h.Models.Info())
}

type clearCacheResponse struct {
	Status         string   `json:"status"`
	ModelsReleased []string `json:"models_released"`
	ResultsCleared int      `json:"results_cleared"`
}

// ClearCache handles POST /health/models/clear-cache. It releases every resident
// model and empties the result cache. A result cache failure is logged and
// reported as zero cleared entries.
func (h ModelsHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	released := h.Models.Clear(r.Context())

	cleared := 0
	if h.Results != nil {
		n, err := h.Results.ClearCache(r.Context())
		if err != nil {
			h.Logger.Warn("result cache clear failed", slog.Any("error", err))
		}
		cleared = n
	}

	h.Logger.Info("caches cleared",
		slog.Int("models_released", len(released)),
		slog.Int("results_cleared", cleared))
	respond.JSON(w, http.StatusOK, clearCacheResponse{
		Status:         "cleared",
		ModelsReleased: released,
		ResultsCleared: cleared,
	})
}

// HistoryHandler lists stored summaries.
type HistoryHandler struct {
	Svc           HistoryService
	PaginationCfg pagination.Config
}

// List handles GET /api/v1/summaries?page=&limit=.
func (h HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	params, err := pagination.ParseQueryParams(r, h.PaginationCfg)
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	page, err := h.Svc.ListHistory(r.Context(), params)
	if err != nil {
		writeError(w, err)
		return
	}

	data := make([]summaryResponse, 0, len(page.Data))
	for _, s := range page.Data {
		data = append(data, toSummaryResponse(s))
	}
	respond.JSON(w, http.StatusOK, pagination.NewResponse(data, page.Pagination))
}

// Get handles GET /api/v1/summaries/{id}.
func (h HistoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.ParseID(r.PathValue("id"))
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	s, err := h.Svc.GetHistory(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, toSummaryResponse(s))
}
