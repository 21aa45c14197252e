// Package inference defines the model handle abstraction used by the model cache and the
// summarization pipeline, and the backends that materialise handles: hosted chat models
// (OpenAI, Claude, OpenAI Responses), a remote gRPC model server and a local extractive
// model that needs no network access.
package inference

import (
	"context"
	"errors"
)

// TaskKind names the operation a loaded model performs.
type TaskKind string

const (
	TaskSummarization     TaskKind = "summarization"
	TaskText2Text         TaskKind = "text2text-generation"
	TaskQuestionAnswering TaskKind = "question-answering"
	TaskSentiment         TaskKind = "sentiment-analysis"
)

// Valid reports whether t is a known task.
func (t TaskKind) Valid() bool {
	switch t {
	case TaskSummarization, TaskText2Text, TaskQuestionAnswering, TaskSentiment:
		return true
	}
	return false
}

// Generative reports whether the task produces free text bounded by MaxLength/MinLength.
func (t TaskKind) Generative() bool {
	return t == TaskSummarization || t == TaskText2Text
}

var (
	// ErrUnknownBackend is returned for identifiers whose scheme has no registered backend.
	ErrUnknownBackend = errors.New("unknown inference backend")
	// ErrBackendNotConfigured is returned when a backend is missing credentials or an address.
	ErrBackendNotConfigured = errors.New("inference backend not configured")
	// ErrUnsupportedTask is returned when a backend cannot serve the requested task.
	ErrUnsupportedTask = errors.New("task not supported by backend")
	// ErrHandleClosed is returned by Run after Close.
	ErrHandleClosed = errors.New("inference handle closed")
	// ErrEmptyOutput is returned when a backend answers with no text.
	ErrEmptyOutput = errors.New("inference backend returned empty output")
)

// Params are the decoding parameters of a single Run call. Lengths are in subword tokens.
type Params struct {
	MaxLength         int
	MinLength         int
	Deterministic     bool
	BeamWidth         int
	LengthPenalty     float64
	EarlyStopping     bool
	NoRepeatNgram     int
	RepetitionPenalty float64
	Truncate          bool

	// Prompt is the instruction for text2text models and the question for
	// question-answering models. Empty for plain summarization.
	Prompt string
}

// DefaultParams returns deterministic beam search decoding with 3-gram blocking.
func DefaultParams(maxTokens, minTokens int) Params {
	return Params{
		MaxLength:         maxTokens,
		MinLength:         minTokens,
		Deterministic:     true,
		BeamWidth:         6,
		LengthPenalty:     2.0,
		EarlyStopping:     true,
		NoRepeatNgram:     3,
		RepetitionPenalty: 1.5,
		Truncate:          true,
	}
}

// Strict returns a copy with stronger anti-repetition settings, used when a first
// candidate came back degenerate.
func (p Params) Strict() Params {
	p.NoRepeatNgram = 4
	p.RepetitionPenalty = 2.0
	return p
}

// Handle is one loaded model instance.
type Handle interface {
	// Run executes the model's task on input.
	Run(ctx context.Context, input string, p Params) (string, error)
	// Close releases the resources held by the model. Safe to call more than once.
	Close() error
}

// Reentrant is implemented by handles that declare whether concurrent Run calls are
// allowed. Handles that do not implement it are treated as reentrant.
type Reentrant interface {
	Reentrant() bool
}

// Loader materialises a Handle for a model identifier.
type Loader interface {
	Load(ctx context.Context, identifier string, task TaskKind) (Handle, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, identifier string, task TaskKind) (Handle, error)

// Load implements Loader.
func (f LoaderFunc) Load(ctx context.Context, identifier string, task TaskKind) (Handle, error) {
	return f(ctx, identifier, task)
}
