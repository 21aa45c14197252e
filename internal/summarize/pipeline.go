// Package summarize implements adaptive map-reduce summarization: length planning,
// overlapping chunking, per-chunk inference with a quality gate and one reduce pass.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"summarize-pro/internal/domain/entity"
	"summarize-pro/internal/inference"
	"summarize-pro/internal/modelcache"
	"summarize-pro/internal/observability/metrics"
	"summarize-pro/internal/observability/tracing"
)

// DefaultParallelism is the number of chunks mapped concurrently.
const DefaultParallelism = 2

// Retry outcomes recorded in summarization_quality_retries_total.
const (
	retryImproved = "improved"
	retryRejected = "rejected"
	retryFailed   = "error"
)

// Models hands out model handles by key. *modelcache.Cache implements it.
type Models interface {
	Acquire(ctx context.Context, key string) (inference.Handle, error)
}

// Request is one summarization request.
type Request struct {
	Class        entity.ContentClass
	Text         string
	Style        entity.Style
	CustomPrompt string
}

// Output is the final summary plus how it was produced.
type Output struct {
	Summary  string
	Plan     Plan
	Chunks   int
	ModelKey string
	// Retries is the number of quality gate retries issued.
	Retries int
}

// Pipeline summarizes text with the model configured for its content class.
type Pipeline struct {
	models      Models
	classes     map[entity.ContentClass]ClassConfig
	parallelism int
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithParallelism sets how many chunks are mapped at once. Values below 1 are ignored.
func WithParallelism(n int) Option {
	return func(p *Pipeline) {
		if n >= 1 {
			p.parallelism = n
		}
	}
}

// NewPipeline creates a pipeline over models.
func NewPipeline(models Models, classes map[entity.ContentClass]ClassConfig, opts ...Option) (*Pipeline, error) {
	if models == nil {
		return nil, fmt.Errorf("summarize: models are required")
	}
	if err := validateClasses(classes); err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}
	owned := make(map[entity.ContentClass]ClassConfig, len(classes))
	for k, v := range classes {
		owned[k] = v
	}
	p := &Pipeline{models: models, classes: owned, parallelism: DefaultParallelism}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Class returns the configuration of class.
func (p *Pipeline) Class(class entity.ContentClass) (ClassConfig, bool) {
	cfg, ok := p.classes[class]
	return cfg, ok
}

// Summarize returns the summary text for text.
func (p *Pipeline) Summarize(ctx context.Context, class entity.ContentClass, text string, style entity.Style, customPrompt string) (string, error) {
	out, err := p.Run(ctx, Request{Class: class, Text: text, Style: style, CustomPrompt: customPrompt})
	if err != nil {
		return "", err
	}
	return out.Summary, nil
}

// Run executes plan, chunk, map and (for more than one chunk) reduce.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Output, error) {
	start := time.Now()
	out, err := p.run(ctx, req)
	metrics.RecordSummary(string(req.Class), err == nil, time.Since(start))
	return out, err
}

func (p *Pipeline) run(ctx context.Context, req Request) (*Output, error) {
	cfg, ok := p.classes[req.Class]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownContentClass, req.Class)
	}
	words := len(strings.Fields(req.Text))
	if words == 0 {
		return nil, ErrEmptyInput
	}

	prompt := strings.TrimSpace(req.CustomPrompt)
	key, instruction := cfg.modelKey(prompt)
	if !instruction {
		prompt = ""
	}

	// plan
	_, planSpan := tracing.GetTracer().Start(ctx, "summarize.plan")
	plan := PlanLength(words, req.Style)
	chunks := Chunk(req.Text, cfg.Window, cfg.Overlap)
	planSpan.SetAttributes(
		attribute.Int("summarize.source_words", words),
		attribute.Int("summarize.max_words", plan.Bounds.MaxWords),
		attribute.Int("summarize.min_words", plan.Bounds.MinWords),
		attribute.Int("summarize.chunks", len(chunks)),
	)
	planSpan.End()

	slog.InfoContext(ctx, "summarization planned",
		slog.String("content_class", string(req.Class)),
		slog.String("model_key", key),
		slog.Int("source_words", words),
		slog.Int("min_words", plan.Bounds.MinWords),
		slog.Int("max_words", plan.Bounds.MaxWords),
		slog.Int("chunks", len(chunks)))
	metrics.RecordChunks(len(chunks))

	job := &job{pipeline: p, key: key, plan: plan, prompt: prompt}
	out := &Output{Plan: plan, Chunks: len(chunks), ModelKey: key}

	if len(chunks) == 1 {
		summary, err := job.summarize(ctx, "single", -1, chunks[0])
		if err != nil {
			return nil, err
		}
		out.Summary = summary
		out.Retries = int(job.retries.Load())
		return out, nil
	}

	partials, err := job.mapChunks(ctx, chunks)
	if err != nil {
		return nil, err
	}

	reduceCtx, reduceSpan := tracing.GetTracer().Start(ctx, "summarize.reduce")
	summary, err := job.summarize(reduceCtx, "reduce", -1, strings.Join(partials, " "))
	reduceSpan.End()
	if err != nil {
		return nil, err
	}

	out.Summary = summary
	out.Retries = int(job.retries.Load())
	return out, nil
}

// job carries the per-request state shared by map and reduce calls.
type job struct {
	pipeline *Pipeline
	key      string
	plan     Plan
	prompt   string
	retries  atomic.Int32
}

// mapChunks summarizes every chunk, keeping chunk order in the result.
func (j *job) mapChunks(ctx context.Context, chunks []string) ([]string, error) {
	ctx, span := tracing.GetTracer().Start(ctx, "summarize.map")
	defer span.End()
	span.SetAttributes(attribute.Int("summarize.chunks", len(chunks)))

	partials := make([]string, len(chunks))
	sem := make(chan struct{}, j.pipeline.parallelism)
	eg, egCtx := errgroup.WithContext(ctx)

	for i, chunk := range chunks {
		eg.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()

			summary, err := j.summarize(egCtx, "map", i, chunk)
			if err != nil {
				return err
			}
			partials[i] = summary
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return partials, nil
}

// summarize runs one model call on input, then the quality gate with at most one
// stricter retry. A retry that fails or is rejected keeps the first candidate.
func (j *job) summarize(ctx context.Context, step string, chunk int, input string) (string, error) {
	params := inference.DefaultParams(j.plan.MaxTokens, j.plan.MinTokens)
	params.Prompt = j.prompt

	raw, err := j.call(ctx, input, params)
	if err != nil {
		return "", j.wrap(step, chunk, err)
	}
	candidate := cleanOutput(raw)

	verdict := Evaluate(candidate)
	if verdict.Acceptable {
		return candidate, nil
	}

	slog.WarnContext(ctx, "summary rejected by quality gate, retrying with stricter params",
		slog.String("step", step),
		slog.Int("chunk", chunk),
		slog.Int("words", verdict.Words),
		slog.Float64("unique_ratio", verdict.UniqueRatio),
		slog.Int("max_trigram_repeats", verdict.MaxRepeats))
	j.retries.Add(1)

	raw, err = j.call(ctx, input, params.Strict())
	if err != nil {
		if isAcquireError(err) {
			return "", err
		}
		slog.WarnContext(ctx, "quality retry failed, keeping original candidate",
			slog.String("step", step),
			slog.Int("chunk", chunk),
			slog.Any("error", err))
		metrics.RecordQualityRetry(retryFailed)
		return candidate, nil
	}

	retried := cleanOutput(raw)
	if IsAcceptable(retried) {
		metrics.RecordQualityRetry(retryImproved)
		return retried, nil
	}
	slog.WarnContext(ctx, "quality retry also rejected, keeping original candidate",
		slog.String("step", step),
		slog.Int("chunk", chunk))
	metrics.RecordQualityRetry(retryRejected)
	return candidate, nil
}

// call acquires the handle and runs it. A handle closed by a concurrent eviction
// between acquisition and use is acquired again once.
func (j *job) call(ctx context.Context, input string, params inference.Params) (string, error) {
	h, err := j.pipeline.models.Acquire(ctx, j.key)
	if err != nil {
		return "", err
	}
	out, err := h.Run(ctx, input, params)
	if errors.Is(err, inference.ErrHandleClosed) {
		if h, err = j.pipeline.models.Acquire(ctx, j.key); err != nil {
			return "", err
		}
		out, err = h.Run(ctx, input, params)
	}
	return out, err
}

// wrap leaves model cache failures untouched and wraps everything else.
func (j *job) wrap(step string, chunk int, err error) error {
	if isAcquireError(err) {
		return err
	}
	return &InferenceError{Step: step, Chunk: chunk, ModelKey: j.key, Err: err}
}

func isAcquireError(err error) bool {
	var loadErr *modelcache.LoadError
	return errors.As(err, &loadErr) || errors.Is(err, modelcache.ErrUnknownModelKey)
}

// cleanOutput trims the output and removes the spaces decoders leave before
// periods and commas.
func cleanOutput(s string) string {
	s = strings.TrimSpace(s)
	return strings.NewReplacer(" . ", ". ", " , ", ", ").Replace(s)
}
