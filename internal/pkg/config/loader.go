// Package config loads operational settings from the environment with a fail-open
// policy: a malformed or out of range value is reported and replaced by its
// default instead of stopping the process.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Result is one loaded setting.
type Result[T any] struct {
	Value           T
	Warning         string
	FallbackApplied bool
}

func load[T any](key string, def T, parse func(string) (T, error), validate func(T) error) Result[T] {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return Result[T]{Value: def}
	}

	v, err := parse(raw)
	if err == nil && validate != nil {
		err = validate(v)
	}
	if err != nil {
		return Result[T]{
			Value:           def,
			Warning:         fmt.Sprintf("invalid %s=%q: %v, falling back to default %v", key, raw, err, def),
			FallbackApplied: true,
		}
	}
	return Result[T]{Value: v}
}

// String reads key as a string.
func String(key, def string, validate func(string) error) Result[string] {
	return load(key, def, func(s string) (string, error) { return s, nil }, validate)
}

// Int reads key as a base-10 integer.
func Int(key string, def int, validate func(int) error) Result[int] {
	return load(key, def, func(s string) (int, error) {
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("not an integer")
		}
		return n, nil
	}, validate)
}

// Duration reads key with time.ParseDuration.
func Duration(key string, def time.Duration, validate func(time.Duration) error) Result[time.Duration] {
	return load(key, def, time.ParseDuration, validate)
}

// Bool reads key with strconv.ParseBool.
func Bool(key string, def bool) Result[bool] {
	return load(key, def, strconv.ParseBool, nil)
}

// Loader applies results for one component, logging each fallback and recording
// it in the component's ConfigMetrics.
type Loader struct {
	logger   *slog.Logger
	metrics  *ConfigMetrics
	fallback bool
}

// NewLoader returns a Loader. metrics may be nil.
func NewLoader(logger *slog.Logger, metrics *ConfigMetrics) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger, metrics: metrics}
}

// Apply returns r.Value and reports the fallback, if any, under field.
func Apply[T any](l *Loader, field string, r Result[T]) T {
	if r.FallbackApplied {
		l.fallback = true
		l.logger.Warn("configuration fallback applied",
			slog.String("field", field),
			slog.String("warning", r.Warning))
		if l.metrics != nil {
			l.metrics.RecordValidationError(field)
			l.metrics.RecordFallback(field)
		}
	}
	return r.Value
}

// Finish records the load time and whether any fallback is in effect.
func (l *Loader) Finish() (fallbackApplied bool) {
	if l.metrics != nil {
		l.metrics.SetFallbackActive(l.fallback)
		l.metrics.RecordLoadTimestamp()
	}
	return l.fallback
}
