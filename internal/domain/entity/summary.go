package entity

import (
	"strings"
	"time"
)

// MinSummarizableWords is the smallest input accepted for summarization.
const MinSummarizableWords = 10

// Metadata describes a produced summary.
type Metadata struct {
	OriginalWordCount  int          `json:"original_word_count"`
	SummaryWordCount   int          `json:"summary_word_count"`
	CompressionRatio   float64      `json:"compression_ratio"`
	ReadingTimeMinutes int          `json:"reading_time_minutes"`
	ContentType        ContentClass `json:"content_type"`
	SummaryStyle       Style        `json:"summary_style"`
	CustomPromptUsed   bool         `json:"custom_prompt_used"`
	Chunks             int          `json:"chunks"`
	SourceURL          string       `json:"source_url,omitempty"`
	SourceTitle        string       `json:"source_title,omitempty"`
	FilesProcessed     []string     `json:"files_processed,omitempty"`
	Cached             bool         `json:"cached"`
}

// Keyword is an extracted key phrase with its frequency.
type Keyword struct {
	Phrase string `json:"phrase"`
	Count  int    `json:"count"`
}

// Topic groups sentences around a dominant keyword.
type Topic struct {
	ID    int    `json:"topic_id"`
	Count int    `json:"count"`
	Name  string `json:"name"`
}

// Sentiment is a polarity label with a confidence between 0 and 1.
type Sentiment struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Analysis is the auxiliary analysis attached to a summary.
type Analysis struct {
	Keywords  []Keyword `json:"keywords"`
	Topics    []Topic   `json:"topics"`
	Sentiment Sentiment `json:"sentiment"`
}

// Summary is a completed summarization. ID and CreatedAt are set once it is stored.
type Summary struct {
	ID        int64     `json:"id,omitempty"`
	Summary   string    `json:"summary"`
	Metadata  Metadata  `json:"metadata"`
	Analysis  *Analysis `json:"analysis,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// ValidateText checks that text has enough words and does not exceed maxChars
// characters. maxChars <= 0 disables the length check.
func ValidateText(field, text string, maxChars int) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return &ValidationError{Field: field, Message: "text is required"}
	}
	if maxChars > 0 && len([]rune(trimmed)) > maxChars {
		return &ValidationError{Field: field, Message: "text exceeds maximum length"}
	}
	if len(strings.Fields(trimmed)) < MinSummarizableWords {
		return &ValidationError{Field: field, Message: "text must contain at least 10 words"}
	}
	return nil
}
