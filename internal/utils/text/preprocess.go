package text

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// MinValidWords is the smallest input that is worth summarizing.
const MinValidWords = 10

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	// letters, digits, underscore, whitespace and basic punctuation survive
	specialCharRe = regexp.MustCompile(`[^\p{L}\p{N}_\s.,!?;:\-'"()]`)
)

// Preprocessed is normalised input plus its basic metrics.
type Preprocessed struct {
	Text      string
	WordCount int
	CharCount int
	Valid     bool
}

// Preprocess normalises to NFC, collapses whitespace and strips characters other
// than letters, digits and basic punctuation.
func Preprocess(s string) Preprocessed {
	cleaned := whitespaceRe.ReplaceAllString(strings.TrimSpace(norm.NFC.String(s)), " ")
	cleaned = specialCharRe.ReplaceAllString(cleaned, "")

	words := CountWords(cleaned)
	return Preprocessed{
		Text:      cleaned,
		WordCount: words,
		CharCount: CountRunes(cleaned),
		Valid:     words >= MinValidWords,
	}
}
