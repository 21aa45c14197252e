package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"summarize-pro/internal/common/pagination"
	"summarize-pro/internal/domain/entity"
	"summarize-pro/internal/modelcache"
	"summarize-pro/internal/usecase/summary"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func sampleSummary() *entity.Summary {
	return &entity.Summary{
		ID:      7,
		Summary: "Go makes concurrent services simple.",
		Metadata: entity.Metadata{
			OriginalWordCount: 120,
			SummaryWordCount:  5,
			CompressionRatio:  0.04,
			ContentType:       entity.ClassText,
			SummaryStyle:      entity.StyleBrief,
			Chunks:            1,
		},
		Analysis: &entity.Analysis{
			Keywords:  []entity.Keyword{{Phrase: "go", Count: 4}, {Phrase: "concurrent services", Count: 2}},
			Topics:    []entity.Topic{{ID: 0, Count: 3, Name: "0_go_services_simple"}},
			Sentiment: entity.Sentiment{Label: "POSITIVE", Score: 0.91},
		},
		CreatedAt: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
	}
}

type fakeSummaries struct {
	mu     sync.Mutex
	reqs   []summary.Request
	urls   []string
	styles []entity.Style
	result *entity.Summary
	err    error
}

func (f *fakeSummaries) Summarize(_ context.Context, req summary.Request) (*entity.Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeSummaries) SummarizeURL(_ context.Context, url string, style entity.Style) (*entity.Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.urls = append(f.urls, url)
	f.styles = append(f.styles, style)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeSummaries) lastRequest(t *testing.T) summary.Request {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.reqs)
	return f.reqs[len(f.reqs)-1]
}

type fakeQA struct {
	asked     []entity.Question
	conversed []entity.Question
	answer    *entity.Answer
	err       error
}

func (f *fakeQA) Ask(_ context.Context, q entity.Question) (*entity.Answer, error) {
	f.asked = append(f.asked, q)
	return f.answer, f.err
}

func (f *fakeQA) Converse(_ context.Context, q entity.Question) (*entity.Answer, error) {
	f.conversed = append(f.conversed, q)
	return f.answer, f.err
}

type fakeModels struct {
	info    modelcache.Info
	cleared int
	// evicted overrides what Clear reports, as when a model loads between a
	// snapshot and the clear.
	evicted []string
}

func (f *fakeModels) Info() modelcache.Info { return f.info }

func (f *fakeModels) Clear(context.Context) []string {
	f.cleared++
	released := f.info.RecencyOrder
	if f.evicted != nil {
		released = f.evicted
	}
	f.info.ResidentKeys = []string{}
	f.info.RecencyOrder = []string{}
	f.info.Models = []modelcache.ResidentModel{}
	return released
}

type fakeResults struct {
	n   int
	err error
}

func (f *fakeResults) ClearCache(context.Context) (int, error) { return f.n, f.err }

type fakeHistory struct {
	params pagination.Params
	items  []*entity.Summary
	total  int64
	byID   map[int64]*entity.Summary
	err    error
}

func (f *fakeHistory) ListHistory(_ context.Context, p pagination.Params) (*summary.PaginatedResult, error) {
	f.params = p
	if f.err != nil {
		return nil, f.err
	}
	return &summary.PaginatedResult{Data: f.items, Pagination: pagination.NewMetadata(p, f.total)}, nil
}

func (f *fakeHistory) GetHistory(_ context.Context, id int64) (*entity.Summary, error) {
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.byID[id]
	if !ok {
		return nil, entity.ErrNotFound
	}
	return s, nil
}
