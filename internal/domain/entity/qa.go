package entity

import "strings"

// ConversationTurn is one earlier question and its answer.
type ConversationTurn struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Question is a question about a context passage.
type Question struct {
	Question string             `json:"question"`
	Context  string             `json:"context"`
	Language string             `json:"language"`
	History  []ConversationTurn `json:"conversation_history,omitempty"`
}

// Validate checks the required fields. An empty language means English.
func (q *Question) Validate() error {
	if strings.TrimSpace(q.Question) == "" {
		return &ValidationError{Field: "question", Message: "question is required"}
	}
	if strings.TrimSpace(q.Context) == "" {
		return &ValidationError{Field: "context", Message: "context is required"}
	}
	return nil
}

// IsEnglish reports whether the question targets the English QA model.
func (q *Question) IsEnglish() bool {
	lang := strings.ToLower(strings.TrimSpace(q.Language))
	return lang == "" || lang == "en" || strings.HasPrefix(lang, "en-")
}

// Answer is an extracted answer span.
type Answer struct {
	Answer         string         `json:"answer"`
	Confidence     float64        `json:"confidence"`
	Start          int            `json:"start"`
	End            int            `json:"end"`
	SupportingText string         `json:"supporting_text"`
	Metadata       AnswerMetadata `json:"metadata"`
}

// AnswerMetadata reports input sizes and the model key used.
type AnswerMetadata struct {
	ContextWordCount  int    `json:"context_word_count"`
	QuestionWordCount int    `json:"question_word_count"`
	AnswerWordCount   int    `json:"answer_word_count"`
	Language          string `json:"language"`
	Model             string `json:"model"`
	// ConversationTurns is set for conversational questions only.
	ConversationTurns int `json:"conversation_turns,omitempty"`
}
