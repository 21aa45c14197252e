package summarize

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"summarize-pro/internal/domain/entity"
)

/* ───────── Adaptive bounds ───────── */

func TestAdaptiveBounds(t *testing.T) {
	tests := []struct {
		wordCount int
		want      LengthBounds
	}{
		{wordCount: 0, want: LengthBounds{MaxWords: 20, MinWords: 10}},
		{wordCount: 40, want: LengthBounds{MaxWords: 20, MinWords: 10}},
		{wordCount: 100, want: LengthBounds{MaxWords: 35, MinWords: 18}},
		{wordCount: 1000, want: LengthBounds{MaxWords: 350, MinWords: 180}},
		{wordCount: 5000, want: LengthBounds{MaxWords: 1750, MinWords: 900}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("words=%d", tt.wordCount), func(t *testing.T) {
			assert.Equal(t, tt.want, AdaptiveBounds(tt.wordCount))
		})
	}
}

func TestAdaptiveBounds_Invariants(t *testing.T) {
	for wc := 0; wc <= 20000; wc++ {
		b := AdaptiveBounds(wc)
		require.Less(t, b.MinWords, b.MaxWords, "words=%d", wc)
		require.GreaterOrEqual(t, b.MinWords, MinSummaryWords, "words=%d", wc)
		if wc >= 50 {
			require.LessOrEqual(t, float64(b.MaxWords), 0.40*float64(wc), "words=%d", wc)
		}
	}
}

func TestCapByInput(t *testing.T) {
	// min is pulled below max-5 and floored at 10
	assert.Equal(t, LengthBounds{MaxWords: 20, MinWords: 10}, CapByInput(10, 500, 400))
	// already inside the caps
	assert.Equal(t, LengthBounds{MaxWords: 100, MinWords: 50}, CapByInput(1000, 100, 50))
}

/* ───────── Styles ───────── */

func TestApplyStyle(t *testing.T) {
	base := LengthBounds{MaxWords: 350, MinWords: 180}

	tests := []struct {
		style entity.Style
		want  LengthBounds
	}{
		{style: entity.StyleBrief, want: LengthBounds{MaxWords: 280, MinWords: 108}},
		{style: entity.StyleDetailed, want: LengthBounds{MaxWords: 350, MinWords: 162}},
		{style: entity.StyleComprehensive, want: LengthBounds{MaxWords: 420, MinWords: 180}},
		{style: entity.Style("unknown"), want: LengthBounds{MaxWords: 350, MinWords: 162}},
	}

	for _, tt := range tests {
		t.Run(string(tt.style), func(t *testing.T) {
			assert.Equal(t, tt.want, ApplyStyle(base, tt.style))
		})
	}
}

func TestApplyStyle_ForcesMinBelowMax(t *testing.T) {
	got := ApplyStyle(LengthBounds{MaxWords: 20, MinWords: 19}, entity.StyleComprehensive)
	assert.Equal(t, LengthBounds{MaxWords: 24, MinWords: 19}, got)

	got = ApplyStyle(LengthBounds{MaxWords: 14, MinWords: 13}, entity.StyleBrief)
	assert.Equal(t, LengthBounds{MaxWords: 11, MinWords: 10}, got)
}

func TestPlanLength_AllStylesKeepInvariants(t *testing.T) {
	styles := []entity.Style{entity.StyleBrief, entity.StyleDetailed, entity.StyleComprehensive, "other"}
	for _, style := range styles {
		for wc := 0; wc <= 6000; wc += 7 {
			p := PlanLength(wc, style)
			require.Less(t, p.Bounds.MinWords, p.Bounds.MaxWords, "style=%s words=%d", style, wc)
			require.GreaterOrEqual(t, p.Bounds.MinWords, MinSummaryWords, "style=%s words=%d", style, wc)
			require.Less(t, p.MinTokens, p.MaxTokens)
		}
	}
}

/* ───────── Token conversion ───────── */

func TestWordsToTokens(t *testing.T) {
	assert.Equal(t, 8, WordsToTokens(0))
	assert.Equal(t, 8, WordsToTokens(6))
	assert.Equal(t, 13, WordsToTokens(10))
	assert.Equal(t, 21, WordsToTokens(16))
	assert.Equal(t, 465, WordsToTokens(350))
}

func TestPlanLength_ShortBriefInput(t *testing.T) {
	p := PlanLength(40, entity.StyleBrief)
	assert.Equal(t, LengthBounds{MaxWords: 16, MinWords: 10}, p.Bounds)
	assert.Equal(t, 21, p.MaxTokens)
	assert.Equal(t, 13, p.MinTokens)
}
