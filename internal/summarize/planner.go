package summarize

import (
	"summarize-pro/internal/domain/entity"
	"summarize-pro/internal/inference"
)

// MinSummaryWords is the smallest summary length ever requested from a model.
const MinSummaryWords = 10

// minTokens is the floor applied when converting words to tokens.
const minTokens = 8

// LengthBounds is a target summary length in words. MinWords < MaxWords and both
// are at least MinSummaryWords.
type LengthBounds struct {
	MaxWords int
	MinWords int
}

// AdaptiveBounds targets 20-35% of the input, capped by CapByInput.
func AdaptiveBounds(wordCount int) LengthBounds {
	maxWords := max(30, int(float64(wordCount)*0.35))
	minWords := max(20, int(float64(wordCount)*0.20))
	return CapByInput(wordCount, maxWords, minWords)
}

// CapByInput clamps the bounds to at most 40% and roughly 18% of the input.
func CapByInput(wordCount, maxWords, minWords int) LengthBounds {
	maxCap := max(20, int(float64(wordCount)*0.40))
	minCap := max(10, int(float64(wordCount)*0.18))

	maxWords = min(maxWords, maxCap)
	minWords = min(minWords, maxWords-5, minCap)
	minWords = max(MinSummaryWords, minWords)
	return LengthBounds{MaxWords: maxWords, MinWords: minWords}
}

type styleMultiplier struct {
	max, min float64
}

var styleMultipliers = map[entity.Style]styleMultiplier{
	entity.StyleBrief:         {max: 0.8, min: 0.6},
	entity.StyleDetailed:      {max: 1.0, min: 0.9},
	entity.StyleComprehensive: {max: 1.2, min: 1.0},
}

// ApplyStyle scales the bounds by the style multiplier. Unknown styles use the
// detailed multiplier.
func ApplyStyle(b LengthBounds, style entity.Style) LengthBounds {
	m, ok := styleMultipliers[style]
	if !ok {
		m = styleMultipliers[entity.StyleDetailed]
	}
	maxWords := int(float64(b.MaxWords) * m.max)
	minWords := max(MinSummaryWords, int(float64(b.MinWords)*m.min))
	if minWords >= maxWords {
		minWords = max(maxWords-5, MinSummaryWords)
	}
	return LengthBounds{MaxWords: maxWords, MinWords: minWords}
}

// WordsToTokens converts a word count to an approximate subword token count.
func WordsToTokens(words int) int {
	return max(minTokens, int(float64(words)*inference.TokensPerWord))
}

// Plan is the length plan for one request.
type Plan struct {
	SourceWords int
	Bounds      LengthBounds
	MaxTokens   int
	MinTokens   int
}

// PlanLength computes the bounds for an input of wordCount words in style.
func PlanLength(wordCount int, style entity.Style) Plan {
	b := ApplyStyle(AdaptiveBounds(wordCount), style)
	return Plan{
		SourceWords: wordCount,
		Bounds:      b,
		MaxTokens:   WordsToTokens(b.MaxWords),
		MinTokens:   WordsToTokens(b.MinWords),
	}
}
