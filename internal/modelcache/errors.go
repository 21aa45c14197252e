package modelcache

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownModelKey is returned by Acquire for keys without a LoadSpec.
	ErrUnknownModelKey = errors.New("unknown model key")
)

// Attempt is one failed load of a single identifier.
type Attempt struct {
	Identifier string
	Err        error
}

// LoadError reports that the primary identifier and every fallback failed to load.
type LoadError struct {
	Key      string
	Attempts []Attempt
}

func (e *LoadError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "load model %q: all %d identifiers failed", e.Key, len(e.Attempts))
	for _, a := range e.Attempts {
		fmt.Fprintf(&sb, "; %s: %v", a.Identifier, a.Err)
	}
	return sb.String()
}

// Unwrap exposes every attempt's cause to errors.Is and errors.As.
func (e *LoadError) Unwrap() []error {
	errs := make([]error, len(e.Attempts))
	for i, a := range e.Attempts {
		errs[i] = a.Err
	}
	return errs
}

// Identifiers returns the attempted identifiers in order.
func (e *LoadError) Identifiers() []string {
	ids := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		ids[i] = a.Identifier
	}
	return ids
}
