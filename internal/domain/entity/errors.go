package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by lookups of stored summaries.
	ErrNotFound = errors.New("summary not found")

	// ErrInvalidRequest matches every *ValidationError under errors.Is.
	ErrInvalidRequest = errors.New("invalid request")
)

// ValidationError rejects a request field. Message is safe to show to clients.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is reports ErrInvalidRequest so callers can test for any validation failure.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidRequest
}
