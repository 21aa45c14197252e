package summarize

import (
	"strings"

	"summarize-pro/internal/utils/text"
)

const (
	minAcceptableWords = 5
	minUniqueRatio     = 0.5
	maxTrigramRepeats  = 3
	trigramSize        = 3
)

// Verdict explains a quality gate decision.
type Verdict struct {
	Acceptable  bool
	Words       int
	UniqueRatio float64
	MaxRepeats  int
}

// Evaluate judges a candidate summary. Words are compared case-insensitively. A
// candidate is rejected when it has fewer than 5 words, when fewer than half of its
// words are distinct, or when any three-word phrase occurs 3 or more times.
func Evaluate(candidate string) Verdict {
	words := strings.Fields(text.Lower(candidate))
	v := Verdict{Words: len(words)}
	if len(words) < minAcceptableWords {
		return v
	}

	unique := make(map[string]struct{}, len(words))
	for _, w := range words {
		unique[w] = struct{}{}
	}
	v.UniqueRatio = float64(len(unique)) / float64(len(words))
	if v.UniqueRatio < minUniqueRatio {
		return v
	}

	counts := make(map[string]int)
	for i := 0; i+trigramSize <= len(words); i++ {
		g := strings.Join(words[i:i+trigramSize], " ")
		counts[g]++
		v.MaxRepeats = max(v.MaxRepeats, counts[g])
	}
	v.Acceptable = v.MaxRepeats < maxTrigramRepeats
	return v
}

// IsAcceptable reports whether candidate passes the quality gate.
func IsAcceptable(candidate string) bool {
	return Evaluate(candidate).Acceptable
}
