package text

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	lower = cases.Lower(language.Und)

	// a sentence ends at . ! or ? followed by whitespace or end of input
	sentenceRe = regexp.MustCompile(`[^.!?]+(?:[.!?]+|$)`)
)

// Lower lowercases s with Unicode-aware case folding rules.
func Lower(s string) string {
	return lower.String(s)
}

// Tokens splits s into lowercase letter/digit runs, dropping punctuation.
func Tokens(s string) []string {
	return strings.FieldsFunc(Lower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '\''
	})
}

// ContentTokens is Tokens without stopwords and tokens shorter than minLen runes.
func ContentTokens(s string, minLen int) []string {
	all := Tokens(s)
	out := all[:0]
	for _, t := range all {
		t = strings.Trim(t, "'")
		if len([]rune(t)) < minLen || IsStopword(t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Sentences splits s into trimmed, non-empty sentences.
func Sentences(s string) []string {
	matches := sentenceRe.FindAllString(s, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if m = strings.TrimSpace(m); m != "" {
			out = append(out, m)
		}
	}
	return out
}
