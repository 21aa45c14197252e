package summarize

import (
	"math"
	"strings"
)

// WordsPerMinute is the reading speed used by ReadingTime.
const WordsPerMinute = 200

// CompressionRatio is the share of words removed, as a percentage rounded to two
// decimals. Empty input yields 0.
func CompressionRatio(original, summary string) float64 {
	o := len(strings.Fields(original))
	if o == 0 {
		return 0
	}
	s := len(strings.Fields(summary))
	ratio := float64(o-s) / float64(o) * 100
	return math.RoundToEven(ratio*100) / 100
}

// ReadingTime estimates minutes needed to read text, never less than one.
func ReadingTime(text string) int {
	words := len(strings.Fields(text))
	return max(1, int(math.RoundToEven(float64(words)/WordsPerMinute)))
}
