package summarize

import (
	"fmt"

	"summarize-pro/internal/domain/entity"
)

// ClassConfig binds a content class to a model key and chunk window.
type ClassConfig struct {
	// ModelKey is the model cache key used for the class.
	ModelKey string
	// InstructionModelKey is used instead of ModelKey when a custom prompt is
	// supplied. Empty means custom prompts are ignored for the class.
	InstructionModelKey string
	// Window and Overlap are in words.
	Window  int
	Overlap int
}

// Validate checks the window geometry.
func (c ClassConfig) Validate() error {
	if c.ModelKey == "" {
		return fmt.Errorf("model key is required")
	}
	if c.Window < MinChunkWords {
		return fmt.Errorf("window must be at least %d words, got %d", MinChunkWords, c.Window)
	}
	if c.Overlap < 0 || c.Overlap >= c.Window {
		return fmt.Errorf("overlap must be in [0, window), got %d", c.Overlap)
	}
	return nil
}

// modelKey picks the key for a request.
func (c ClassConfig) modelKey(customPrompt string) (key string, instruction bool) {
	if customPrompt != "" && c.InstructionModelKey != "" {
		return c.InstructionModelKey, true
	}
	return c.ModelKey, false
}

func validateClasses(classes map[entity.ContentClass]ClassConfig) error {
	if len(classes) == 0 {
		return fmt.Errorf("no content classes configured")
	}
	for class, cfg := range classes {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("content class %q: %w", class, err)
		}
	}
	return nil
}
