package modelcache

import (
	"fmt"
	"strings"

	"summarize-pro/internal/inference"
)

// LoadSpec describes how to materialise the handle for a model key: the primary
// identifier is tried first, then each fallback in order.
type LoadSpec struct {
	Task      inference.TaskKind
	Primary   string
	Fallbacks []string
}

// Identifiers returns the primary followed by the fallbacks, skipping blanks and
// duplicates.
func (s LoadSpec) Identifiers() []string {
	ids := make([]string, 0, 1+len(s.Fallbacks))
	seen := make(map[string]struct{}, cap(ids))
	for _, id := range append([]string{s.Primary}, s.Fallbacks...) {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// Validate checks that the spec can be loaded at all.
func (s LoadSpec) Validate() error {
	if !s.Task.Valid() {
		return fmt.Errorf("invalid task %q", s.Task)
	}
	if len(s.Identifiers()) == 0 {
		return fmt.Errorf("no model identifiers")
	}
	return nil
}
