package pathutil

import (
	"regexp"
	"strings"
)

// PathPattern maps a dynamic route to its metrics label.
type PathPattern struct {
	Pattern  *regexp.Regexp
	Template string
}

var pathPatterns = []*PathPattern{
	{Pattern: regexp.MustCompile(`^/api/v1/summaries/[^/]+$`), Template: "/api/v1/summaries/:id"},
}

// NormalizePath turns request paths carrying IDs into route templates so that
// metrics labels stay bounded. Query strings and a trailing slash are ignored.
//
//	NormalizePath("/api/v1/summaries/42")      // "/api/v1/summaries/:id"
//	NormalizePath("/api/v1/summarize/text")    // unchanged
//	NormalizePath("/health/models?verbose=1")  // "/health/models"
func NormalizePath(path string) string {
	if idx := strings.IndexByte(path, '?'); idx != -1 {
		path = path[:idx]
	}
	if len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}

	for _, p := range pathPatterns {
		if p.Pattern.MatchString(path) {
			return p.Template
		}
	}
	return path
}
