// Package summary implements the summarization use cases: validation, result caching,
// the summarization pipeline, analysis and history.
package summary

import "errors"

var (
	// ErrFetcherUnavailable is returned by SummarizeURL when no fetcher is configured.
	ErrFetcherUnavailable = errors.New("url fetching is not configured")

	// ErrInsufficientContent indicates that the input has too few words to summarize.
	ErrInsufficientContent = errors.New("insufficient content to summarize")
)
