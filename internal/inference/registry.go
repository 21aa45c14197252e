package inference

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Backend opens model handles for one inference provider.
type Backend interface {
	// Name is the identifier scheme served by the backend ("openai", "grpc", ...).
	Name() string
	// Open loads model for task. model is the identifier with the scheme removed.
	Open(ctx context.Context, model string, task TaskKind) (Handle, error)
}

// Registry is a Loader that dispatches identifiers to backends by scheme.
//
// "openai:gpt-4o-mini" goes to the openai backend with model "gpt-4o-mini".
// Identifiers without a scheme ("facebook/bart-large-cnn") go to the default backend.
type Registry struct {
	backends      map[string]Backend
	defaultScheme string
	metrics       CallMetricsRecorder
}

// NewRegistry creates a Registry. defaultScheme must name one of backends.
func NewRegistry(defaultScheme string, backends ...Backend) (*Registry, error) {
	r := &Registry{
		backends:      make(map[string]Backend, len(backends)),
		defaultScheme: defaultScheme,
		metrics:       NewPrometheusCallMetrics(),
	}
	for _, b := range backends {
		r.backends[b.Name()] = b
	}
	if _, ok := r.backends[defaultScheme]; !ok {
		return nil, fmt.Errorf("%w: default backend %q is not registered", ErrUnknownBackend, defaultScheme)
	}
	return r, nil
}

// WithMetrics replaces the call metrics recorder. Intended for tests.
func (r *Registry) WithMetrics(m CallMetricsRecorder) *Registry {
	r.metrics = m
	return r
}

// Backends returns the registered scheme names.
func (r *Registry) Backends() []string {
	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	return names
}

// Load implements Loader.
func (r *Registry) Load(ctx context.Context, identifier string, task TaskKind) (Handle, error) {
	if !task.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedTask, task)
	}

	scheme, model := SplitIdentifier(identifier)
	if scheme == "" {
		scheme = r.defaultScheme
	}
	backend, ok := r.backends[scheme]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, scheme)
	}
	if model == "" {
		return nil, fmt.Errorf("empty model name in identifier %q", identifier)
	}

	h, err := backend.Open(ctx, model, task)
	if err != nil {
		return nil, err
	}

	h = &instrumented{Handle: h, backend: scheme, task: task, metrics: r.metrics}
	if re, ok := h.(*instrumented).Handle.(Reentrant); ok && !re.Reentrant() {
		h = Serialize(h)
	}
	return h, nil
}

// SplitIdentifier splits "scheme:model" into its parts. A missing scheme yields "".
func SplitIdentifier(identifier string) (scheme, model string) {
	identifier = strings.TrimSpace(identifier)
	i := strings.Index(identifier, ":")
	if i <= 0 || strings.Contains(identifier[:i], "/") {
		return "", identifier
	}
	return identifier[:i], identifier[i+1:]
}

// Serialize wraps h so that at most one Run executes at a time. Used for handles
// bound to a single accelerator.
func Serialize(h Handle) Handle {
	if _, ok := h.(*serialHandle); ok {
		return h
	}
	return &serialHandle{inner: h}
}

type serialHandle struct {
	mu    sync.Mutex
	inner Handle
}

func (s *serialHandle) Run(ctx context.Context, input string, p Params) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Run(ctx, input, p)
}

func (s *serialHandle) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Close()
}

func (s *serialHandle) Reentrant() bool { return false }

// instrumented records call duration and failures per backend. It also makes Close
// idempotent and rejects Run after Close.
type instrumented struct {
	Handle
	backend string
	task    TaskKind
	metrics CallMetricsRecorder
	closed  atomic.Bool
}

func (h *instrumented) Run(ctx context.Context, input string, p Params) (string, error) {
	if h.closed.Load() {
		return "", ErrHandleClosed
	}
	start := time.Now()
	out, err := h.Handle.Run(ctx, input, p)
	duration := time.Since(start)

	h.metrics.RecordCall(h.backend, string(h.task), duration, err)
	if err != nil {
		slog.WarnContext(ctx, "inference call failed",
			slog.String("backend", h.backend),
			slog.String("task", string(h.task)),
			slog.Duration("duration", duration),
			slog.Any("error", err))
	}
	return out, err
}

func (h *instrumented) Close() error {
	if !h.closed.CompareAndSwap(false, true) {
		return nil
	}
	return h.Handle.Close()
}
