package repository

import (
	"context"
	"time"

	"summarize-pro/internal/domain/entity"
)

// SummaryRepository stores completed summaries for the history endpoint.
type SummaryRepository interface {
	// Save stores s and sets its ID and CreatedAt.
	Save(ctx context.Context, s *entity.Summary) error
	// ListRecent returns summaries ordered by created_at DESC.
	ListRecent(ctx context.Context, offset, limit int) ([]*entity.Summary, error)
	// Count returns the total number of stored summaries.
	Count(ctx context.Context) (int64, error)
	// Get returns entity.ErrNotFound when no summary has the given id.
	Get(ctx context.Context, id int64) (*entity.Summary, error)
	// DeleteBefore removes summaries created before t and returns how many were removed.
	DeleteBefore(ctx context.Context, t time.Time) (int64, error)
}
