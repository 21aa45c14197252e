package summarize

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput is returned for input without any words.
	ErrEmptyInput = errors.New("input text is empty")
	// ErrUnknownContentClass is returned for classes without a configuration.
	ErrUnknownContentClass = errors.New("unknown content class")
)

// InferenceError reports a failed model call. The whole request fails; a failed
// chunk is never replaced by empty text.
type InferenceError struct {
	Step     string // "map", "reduce" or "single"
	Chunk    int    // chunk index for the map step, -1 otherwise
	ModelKey string
	Err      error
}

func (e *InferenceError) Error() string {
	if e.Chunk >= 0 {
		return fmt.Sprintf("summarize %s chunk %d with %s: %v", e.Step, e.Chunk, e.ModelKey, e.Err)
	}
	return fmt.Sprintf("summarize %s with %s: %v", e.Step, e.ModelKey, e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }
