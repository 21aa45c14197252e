package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"summarize-pro/internal/domain/entity"
	"summarize-pro/internal/repository"
	"summarize-pro/internal/resilience/circuitbreaker"
)

type SummaryRepo struct {
	db *circuitbreaker.DBCircuitBreaker
}

func NewSummaryRepo(db *sql.DB) repository.SummaryRepository {
	return &SummaryRepo{db: circuitbreaker.NewDBCircuitBreaker(db)}
}

func (repo *SummaryRepo) Save(ctx context.Context, s *entity.Summary) error {
	const query = `
INSERT INTO summaries (summary, content_type, style, metadata, analysis)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, created_at`

	metadata, err := json.Marshal(s.Metadata)
	if err != nil {
		return fmt.Errorf("Save: marshal metadata: %w", err)
	}
	var analysis any
	if s.Analysis != nil {
		b, err := json.Marshal(s.Analysis)
		if err != nil {
			return fmt.Errorf("Save: marshal analysis: %w", err)
		}
		analysis = string(b)
	}

	rows, err := repo.db.QueryContext(ctx, query,
		s.Summary, string(s.Metadata.ContentType), string(s.Metadata.SummaryStyle), string(metadata), analysis)
	if err != nil {
		return fmt.Errorf("Save: %w", err)
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return fmt.Errorf("Save: %w", err)
		}
		return errors.New("Save: no row returned")
	}
	if err := rows.Scan(&s.ID, &s.CreatedAt); err != nil {
		return fmt.Errorf("Save: Scan: %w", err)
	}
	return rows.Err()
}

// ListRecent returns one page of history, newest first.
func (repo *SummaryRepo) ListRecent(ctx context.Context, offset, limit int) ([]*entity.Summary, error) {
	const query = `
SELECT id, summary, metadata, analysis, created_at
FROM summaries
ORDER BY created_at DESC, id DESC
LIMIT $1 OFFSET $2`

	rows, err := repo.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ListRecent: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := make([]*entity.Summary, 0, limit)
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("ListRecent: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

func (repo *SummaryRepo) Count(ctx context.Context) (int64, error) {
	const query = `SELECT COUNT(*) FROM summaries`
	var count int64
	if err := repo.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("Count: %w", err)
	}
	return count, nil
}

func (repo *SummaryRepo) Get(ctx context.Context, id int64) (*entity.Summary, error) {
	const query = `
SELECT id, summary, metadata, analysis, created_at
FROM summaries
WHERE id = $1`

	rows, err := repo.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("Get: %w", err)
		}
		return nil, entity.ErrNotFound
	}
	s, err := scanSummary(rows)
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return s, rows.Err()
}

func (repo *SummaryRepo) DeleteBefore(ctx context.Context, t time.Time) (int64, error) {
	const query = `DELETE FROM summaries WHERE created_at < $1`
	res, err := repo.db.ExecContext(ctx, query, t)
	if err != nil {
		return 0, fmt.Errorf("DeleteBefore: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("DeleteBefore: RowsAffected: %w", err)
	}
	return n, nil
}

func scanSummary(rows *sql.Rows) (*entity.Summary, error) {
	var (
		s        entity.Summary
		metadata []byte
		analysis []byte
	)
	if err := rows.Scan(&s.ID, &s.Summary, &metadata, &analysis, &s.CreatedAt); err != nil {
		return nil, fmt.Errorf("Scan: %w", err)
	}
	if err := json.Unmarshal(metadata, &s.Metadata); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	if len(analysis) > 0 {
		s.Analysis = &entity.Analysis{}
		if err := json.Unmarshal(analysis, s.Analysis); err != nil {
			return nil, fmt.Errorf("decode analysis: %w", err)
		}
	}
	return &s, nil
}
