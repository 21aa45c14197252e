package pathutil

import (
	"errors"
	"strconv"
)

// ErrInvalidID is returned for a path ID that is not a positive integer.
var ErrInvalidID = errors.New("invalid id")

// ParseID parses a path segment such as r.PathValue("id").
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}
