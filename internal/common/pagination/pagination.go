// Package pagination parses page/limit query parameters and builds paginated
// responses for list endpoints.
package pagination

import (
	"fmt"
	"net/http"
	"strconv"

	pkgconfig "summarize-pro/pkg/config"
)

// Config holds the defaults and bounds for page parameters.
type Config struct {
	DefaultLimit int
	MaxLimit     int
}

// DefaultConfig returns limit 20, max 100.
func DefaultConfig() Config {
	return Config{DefaultLimit: 20, MaxLimit: 100}
}

// LoadFromEnv reads PAGINATION_DEFAULT_LIMIT and PAGINATION_MAX_LIMIT.
func LoadFromEnv() Config {
	d := DefaultConfig()
	return Config{
		DefaultLimit: pkgconfig.GetEnvInt("PAGINATION_DEFAULT_LIMIT", d.DefaultLimit),
		MaxLimit:     pkgconfig.GetEnvInt("PAGINATION_MAX_LIMIT", d.MaxLimit),
	}
}

// Params are 1-based page parameters.
type Params struct {
	Page  int
	Limit int
}

// Offset is the number of rows skipped before the page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// ParseQueryParams reads ?page= and ?limit=. Missing values use the defaults;
// malformed or out of range values are an error.
func ParseQueryParams(r *http.Request, cfg Config) (Params, error) {
	params := Params{Page: 1, Limit: cfg.DefaultLimit}
	q := r.URL.Query()

	if s := q.Get("page"); s != "" {
		page, err := strconv.Atoi(s)
		if err != nil || page < 1 {
			return params, fmt.Errorf("invalid query parameter: page must be a positive integer")
		}
		params.Page = page
	}
	if s := q.Get("limit"); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil || limit < 1 || limit > cfg.MaxLimit {
			return params, fmt.Errorf("invalid query parameter: limit must be between 1 and %d", cfg.MaxLimit)
		}
		params.Limit = limit
	}
	return params, nil
}

// Metadata describes the returned page.
type Metadata struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

// NewMetadata computes TotalPages; an empty result still has one page.
func NewMetadata(p Params, total int64) Metadata {
	pages := 1
	if total > 0 {
		pages = int((total + int64(p.Limit) - 1) / int64(p.Limit))
	}
	return Metadata{Total: total, Page: p.Page, Limit: p.Limit, TotalPages: pages}
}

// Response is a page of T.
type Response[T any] struct {
	Data       []T      `json:"data"`
	Pagination Metadata `json:"pagination"`
}

// NewResponse builds a Response. A nil slice is rendered as [].
func NewResponse[T any](data []T, meta Metadata) Response[T] {
	if data == nil {
		data = []T{}
	}
	return Response[T]{Data: data, Pagination: meta}
}
