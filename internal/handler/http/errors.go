package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/sony/gobreaker"

	"summarize-pro/internal/domain/entity"
	"summarize-pro/internal/handler/http/respond"
	"summarize-pro/internal/infra/fetcher"
	"summarize-pro/internal/modelcache"
	"summarize-pro/internal/summarize"
	"summarize-pro/internal/usecase/summary"
)

// writeError maps service errors to status codes and client messages. Causes are
// logged by respond.Fail with secrets masked.
func writeError(w http.ResponseWriter, err error) {
	respond.Fail(w, http.StatusInternalServerError, classify(err))
}

func classify(err error) error {
	var valErr *entity.ValidationError
	var loadErr *modelcache.LoadError
	var maxBytes *http.MaxBytesError

	switch {
	case errors.As(err, &valErr):
		return respond.NewAppError(http.StatusBadRequest, valErr.Message, nil)
	case errors.As(err, &maxBytes):
		return respond.NewAppError(http.StatusRequestEntityTooLarge, "request body too large", nil)
	case errors.Is(err, summarize.ErrEmptyInput):
		return respond.NewAppError(http.StatusBadRequest, "text is required", nil)
	case errors.Is(err, summarize.ErrUnknownContentClass):
		return respond.NewAppError(http.StatusBadRequest, "unsupported content type", nil)
	case errors.Is(err, summary.ErrInsufficientContent):
		return respond.NewAppError(http.StatusUnprocessableEntity, "content too short to summarize", nil)
	case errors.Is(err, summary.ErrFetcherUnavailable):
		return respond.NewAppError(http.StatusServiceUnavailable, "url summarization is not available", err)
	case errors.Is(err, fetcher.ErrInvalidURL):
		return respond.NewAppError(http.StatusBadRequest, "invalid url", nil)
	case errors.Is(err, fetcher.ErrNoContent):
		return respond.NewAppError(http.StatusUnprocessableEntity, "no readable content at url", nil)
	case errors.Is(err, fetcher.ErrTimeout):
		return respond.NewAppError(http.StatusGatewayTimeout, "url fetch timed out", err)
	case errors.Is(err, fetcher.ErrHTTPStatus),
		errors.Is(err, fetcher.ErrBodyTooLarge),
		errors.Is(err, fetcher.ErrTooManyRedirects),
		errors.Is(err, fetcher.ErrUnreachable):
		return respond.NewAppError(http.StatusBadGateway, "could not fetch url", err)
	case errors.As(err, &loadErr), errors.Is(err, modelcache.ErrUnknownModelKey):
		return respond.NewAppError(http.StatusBadGateway, "model unavailable", err)
	case errors.Is(err, gobreaker.ErrOpenState):
		return respond.NewAppError(http.StatusServiceUnavailable, "upstream temporarily unavailable", err)
	case errors.Is(err, context.DeadlineExceeded):
		return respond.NewAppError(http.StatusGatewayTimeout, "request timed out", err)
	case errors.Is(err, entity.ErrNotFound):
		return respond.NewAppError(http.StatusNotFound, "not found", nil)
	}

	var infErr *summarize.InferenceError
	if errors.As(err, &infErr) {
		return respond.NewAppError(http.StatusBadGateway, "inference failed", err)
	}
	return respond.NewAppError(http.StatusInternalServerError, "internal server error", err)
}
