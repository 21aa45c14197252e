package summary

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"summarize-pro/internal/common/pagination"
	"summarize-pro/internal/domain/entity"
	"summarize-pro/internal/infra/fetcher"
	"summarize-pro/internal/infra/resultcache"
	"summarize-pro/internal/observability/metrics"
	"summarize-pro/internal/repository"
	"summarize-pro/internal/summarize"
	"summarize-pro/internal/utils/text"
)

// Pipeline runs one summarization. *summarize.Pipeline implements it.
type Pipeline interface {
	Run(ctx context.Context, req summarize.Request) (*summarize.Output, error)
}

// Analyzer extracts keywords, topics and sentiment. *analysis.Service implements it.
type Analyzer interface {
	Analyze(ctx context.Context, s string) *entity.Analysis
}

// Fetcher downloads a web article. *fetcher.ReadabilityFetcher implements it.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*fetcher.Article, error)
}

// Request is one summary request.
type Request struct {
	Class        entity.ContentClass
	Text         string
	Style        entity.Style
	CustomPrompt string

	// Source fields are copied into the result metadata.
	SourceURL      string
	SourceTitle    string
	FilesProcessed []string
}

// Service provides the summary use cases. Pipeline is required; every other
// dependency is optional.
type Service struct {
	Pipeline Pipeline
	Analyzer Analyzer
	Cache    resultcache.Cache
	History  repository.SummaryRepository
	Fetcher  Fetcher
	// MaxTextLength limits the input in characters; 0 disables the limit.
	MaxTextLength int
}

// PaginatedResult is one page of stored summaries.
type PaginatedResult struct {
	Data       []*entity.Summary
	Pagination pagination.Metadata
}

// Summarize validates req, serves it from the result cache when possible and
// otherwise runs the pipeline and analysis. Cache and history failures are logged
// and never fail the request.
func (s *Service) Summarize(ctx context.Context, req Request) (*entity.Summary, error) {
	if !req.Class.IsValid() {
		return nil, &entity.ValidationError{Field: "content_type", Message: fmt.Sprintf("unknown content type %q", req.Class)}
	}
	style, err := entity.ParseStyle(string(req.Style))
	if err != nil {
		return nil, err
	}
	input := req.Text
	if req.Class == entity.ClassMultilingual {
		input = text.Preprocess(input).Text
	}
	if err := entity.ValidateText("text", input, s.MaxTextLength); err != nil {
		return nil, err
	}
	prompt := strings.TrimSpace(req.CustomPrompt)

	key := resultcache.Key(req.Class, style, prompt, input)
	if cached := s.lookup(ctx, key); cached != nil {
		return cached, nil
	}

	out, err := s.Pipeline.Run(ctx, summarize.Request{
		Class:        req.Class,
		Text:         input,
		Style:        style,
		CustomPrompt: prompt,
	})
	if err != nil {
		return nil, err
	}

	result := &entity.Summary{
		Summary: out.Summary,
		Metadata: entity.Metadata{
			OriginalWordCount:  text.CountWords(input),
			SummaryWordCount:   text.CountWords(out.Summary),
			CompressionRatio:   summarize.CompressionRatio(input, out.Summary),
			ReadingTimeMinutes: summarize.ReadingTime(out.Summary),
			ContentType:        req.Class,
			SummaryStyle:       style,
			CustomPromptUsed:   prompt != "",
			Chunks:             out.Chunks,
			SourceURL:          req.SourceURL,
			SourceTitle:        req.SourceTitle,
			FilesProcessed:     req.FilesProcessed,
		},
	}
	if s.Analyzer != nil {
		result.Analysis = s.Analyzer.Analyze(ctx, input)
	}

	s.store(ctx, key, result)
	s.record(ctx, result)
	return result, nil
}

// SummarizeURL fetches the article at url and summarizes its text as ClassURL.
func (s *Service) SummarizeURL(ctx context.Context, url string, style entity.Style) (*entity.Summary, error) {
	if s.Fetcher == nil {
		return nil, ErrFetcherUnavailable
	}
	article, err := s.Fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	if text.CountWords(article.Text) < entity.MinSummarizableWords {
		return nil, fmt.Errorf("%w: the page at %s has fewer than %d words",
			ErrInsufficientContent, url, entity.MinSummarizableWords)
	}
	return s.Summarize(ctx, Request{
		Class:       entity.ClassURL,
		Text:        article.Text,
		Style:       style,
		SourceURL:   article.URL,
		SourceTitle: article.Title,
	})
}

// ListHistory returns one page of stored summaries, newest first.
func (s *Service) ListHistory(ctx context.Context, params pagination.Params) (*PaginatedResult, error) {
	if s.History == nil {
		return &PaginatedResult{Data: []*entity.Summary{}, Pagination: pagination.NewMetadata(params, 0)}, nil
	}
	total, err := s.History.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count summaries: %w", err)
	}
	data, err := s.History.ListRecent(ctx, params.Offset(), params.Limit)
	if err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}
	return &PaginatedResult{Data: data, Pagination: pagination.NewMetadata(params, total)}, nil
}

// GetHistory returns one stored summary. It returns entity.ErrNotFound when the id
// is unknown or no history store is configured.
func (s *Service) GetHistory(ctx context.Context, id int64) (*entity.Summary, error) {
	if s.History == nil {
		return nil, entity.ErrNotFound
	}
	return s.History.Get(ctx, id)
}

// PruneHistory deletes stored summaries older than retention. It is a no-op when
// retention is not positive or no history store is configured.
func (s *Service) PruneHistory(ctx context.Context, retention time.Duration) (int64, error) {
	if s.History == nil || retention <= 0 {
		return 0, nil
	}
	cutoff := time.Now().Add(-retention)
	n, err := s.History.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune summaries before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	slog.InfoContext(ctx, "summary history pruned",
		slog.Int64("deleted", n),
		slog.Time("cutoff", cutoff))
	return n, nil
}

// ClearCache removes every cached result and returns how many were removed.
func (s *Service) ClearCache(ctx context.Context) (int, error) {
	if s.Cache == nil {
		return 0, nil
	}
	return s.Cache.Clear(ctx)
}

func (s *Service) lookup(ctx context.Context, key string) *entity.Summary {
	if s.Cache == nil {
		return nil
	}
	cached, ok, err := s.Cache.Get(ctx, key)
	switch {
	case err != nil:
		metrics.RecordCacheLookup("error")
		slog.WarnContext(ctx, "result cache lookup failed", slog.Any("error", err))
		return nil
	case !ok:
		metrics.RecordCacheLookup("miss")
		return nil
	}
	metrics.RecordCacheLookup("hit")
	cached.Metadata.Cached = true
	return cached
}

func (s *Service) store(ctx context.Context, key string, result *entity.Summary) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Set(ctx, key, result); err != nil {
		slog.WarnContext(ctx, "result cache store failed", slog.Any("error", err))
	}
}

// record saves result on a context detached from the request.
func (s *Service) record(ctx context.Context, result *entity.Summary) {
	if s.History == nil {
		return
	}
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.History.Save(saveCtx, result); err != nil {
		slog.WarnContext(ctx, "summary history save failed", slog.Any("error", err))
	}
}
