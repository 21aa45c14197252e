// Package logging builds the process logger. Records logged with a context carry
// the request and trace identifiers found in it, so handlers and services only
// need slog.InfoContext and friends.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"summarize-pro/internal/handler/http/requestid"
	"summarize-pro/internal/observability/tracing"
)

// Options selects the handler. Zero values read LOG_LEVEL and LOG_FORMAT.
type Options struct {
	// Level is debug, info, warn or error. Default info.
	Level string
	// Format is json or text. Default json.
	Format string
	// Writer defaults to os.Stdout.
	Writer io.Writer
}

// New returns a logger configured by opts.
func New(opts Options) *slog.Logger {
	if opts.Level == "" {
		opts.Level = os.Getenv("LOG_LEVEL")
	}
	if opts.Format == "" {
		opts.Format = os.Getenv("LOG_FORMAT")
	}
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}

	level := ParseLevel(opts.Level)
	ho := &slog.HandlerOptions{
		Level: level,
		// Source locations only in verbose output.
		AddSource: level <= slog.LevelDebug,
	}

	var h slog.Handler
	if strings.EqualFold(opts.Format, "text") {
		h = slog.NewTextHandler(opts.Writer, ho)
	} else {
		h = slog.NewJSONHandler(opts.Writer, ho)
	}
	return slog.New(NewContextHandler(h))
}

// NewLogger returns the JSON logger configured from the environment.
func NewLogger() *slog.Logger {
	return New(Options{})
}

// ParseLevel maps a level name to slog.Level. Unknown names yield info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ContextHandler adds request_id and trace_id from the record's context unless the
// record already carries them.
type ContextHandler struct {
	slog.Handler
}

// NewContextHandler wraps h.
func NewContextHandler(h slog.Handler) *ContextHandler {
	return &ContextHandler{Handler: h}
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	var hasRequestID, hasTraceID bool
	r.Attrs(func(a slog.Attr) bool {
		switch a.Key {
		case "request_id":
			hasRequestID = true
		case "trace_id":
			hasTraceID = true
		}
		return true
	})

	if id := requestid.FromContext(ctx); id != "" && !hasRequestID {
		r.AddAttrs(slog.String("request_id", id))
	}
	if id := tracing.TraceID(ctx); id != "" && !hasTraceID {
		r.AddAttrs(slog.String("trace_id", id))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{Handler: h.Handler.WithGroup(name)}
}

// FromContext returns the logger stored by WithLogger, or slog.Default.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerContextKey{}).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey{}, logger)
}

type loggerContextKey struct{}
