package entity

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/* ───────── Content classes ───────── */

func TestParseContentClass(t *testing.T) {
	tests := []struct {
		input   string
		want    ContentClass
		wantErr bool
	}{
		{input: "text", want: ClassText},
		{input: " Document ", want: ClassDocument},
		{input: "url", want: ClassURL},
		{input: "youtube", want: ClassTranscript},
		{input: "transcript", want: ClassTranscript},
		{input: "multilingual", want: ClassMultilingual},
		{input: "audio", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseContentClass(tt.input)
			if tt.wantErr {
				var validationErr *ValidationError
				require.True(t, errors.As(err, &validationErr))
				assert.Equal(t, "content_type", validationErr.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

/* ───────── Styles ───────── */

func TestParseStyle(t *testing.T) {
	got, err := ParseStyle("")
	require.NoError(t, err)
	assert.Equal(t, StyleDetailed, got)

	got, err = ParseStyle("BRIEF")
	require.NoError(t, err)
	assert.Equal(t, StyleBrief, got)

	_, err = ParseStyle("poetic")
	assert.Error(t, err)
}

/* ───────── Text validation ───────── */

func TestValidateText(t *testing.T) {
	tenWords := "one two three four five six seven eight nine ten"

	tests := []struct {
		name     string
		text     string
		maxChars int
		wantErr  string
	}{
		{name: "valid", text: tenWords, maxChars: 100},
		{name: "empty", text: "   ", wantErr: "text is required"},
		{name: "too few words", text: "just nine words here to be short of ten", wantErr: "at least 10 words"},
		{name: "too long", text: tenWords, maxChars: 20, wantErr: "exceeds maximum length"},
		{name: "limit disabled", text: strings.Repeat(tenWords+" ", 100), maxChars: 0},
		{name: "limit counts runes", text: strings.Repeat("é ", 10), maxChars: 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateText("text", tt.text, tt.maxChars)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

/* ───────── Questions ───────── */

func TestQuestion_Validate(t *testing.T) {
	assert.NoError(t, (&Question{Question: "Why?", Context: "Because."}).Validate())
	assert.Error(t, (&Question{Context: "Because."}).Validate())
	assert.Error(t, (&Question{Question: "Why?"}).Validate())
}

func TestQuestion_IsEnglish(t *testing.T) {
	assert.True(t, (&Question{}).IsEnglish())
	assert.True(t, (&Question{Language: "EN"}).IsEnglish())
	assert.True(t, (&Question{Language: "en-GB"}).IsEnglish())
	assert.False(t, (&Question{Language: "fr"}).IsEnglish())
}
