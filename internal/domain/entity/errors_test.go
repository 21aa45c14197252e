package entity

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Field: "summary_style", Message: "unknown style"}
	assert.Equal(t, "summary_style: unknown style", err.Error())

	assert.Equal(t, "body is empty", (&ValidationError{Message: "body is empty"}).Error())
}

func TestValidationError_InErrorChain(t *testing.T) {
	wrapped := fmt.Errorf("summarize request: %w", &ValidationError{Field: "text", Message: "text is required"})

	var validationErr *ValidationError
	assert.True(t, errors.As(wrapped, &validationErr))
	assert.Equal(t, "text", validationErr.Field)

	assert.ErrorIs(t, wrapped, ErrInvalidRequest)
	assert.NotErrorIs(t, wrapped, ErrNotFound)
	assert.NotErrorIs(t, errors.New("text is required"), ErrInvalidRequest)
}
