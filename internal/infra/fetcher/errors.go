package fetcher

import "errors"

var (
	// ErrInvalidURL is returned for URLs that are malformed or not allowed.
	ErrInvalidURL = errors.New("invalid url")
	// ErrTimeout is returned when the request exceeds Config.Timeout.
	ErrTimeout = errors.New("url fetch timed out")
	// ErrBodyTooLarge is returned when the response exceeds Config.MaxBodySize.
	ErrBodyTooLarge = errors.New("response body too large")
	// ErrTooManyRedirects is returned when the redirect limit is reached.
	ErrTooManyRedirects = errors.New("too many redirects")
	// ErrHTTPStatus is returned for non-200 responses.
	ErrHTTPStatus = errors.New("unexpected http status")
	// ErrUnreachable wraps transport failures such as DNS errors and refused connections.
	ErrUnreachable = errors.New("url unreachable")
	// ErrNoContent is returned when no readable text could be extracted.
	ErrNoContent = errors.New("no readable content")
)
