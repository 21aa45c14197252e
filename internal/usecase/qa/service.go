// Package qa answers questions about a context passage with an extractive
// question answering model.
package qa

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"unicode/utf8"

	"summarize-pro/internal/domain/entity"
	"summarize-pro/internal/inference"
	"summarize-pro/internal/utils/text"
)

const (
	// MaxContextChars bounds the context passed to the model.
	MaxContextChars = 2000
	// SupportingChars is taken on each side of the answer for the supporting text.
	SupportingChars = 100
	// HistoryTurns is the number of earlier turns included in a conversation.
	HistoryTurns = 3
)

// Models hands out model handles by key. *modelcache.Cache implements it.
type Models interface {
	Acquire(ctx context.Context, key string) (inference.Handle, error)
}

// Service routes English questions to EnglishKey and everything else to
// MultilingualKey.
type Service struct {
	Models          Models
	EnglishKey      string
	MultilingualKey string
}

// NewService returns a question answering service.
func NewService(models Models, englishKey, multilingualKey string) *Service {
	return &Service{Models: models, EnglishKey: englishKey, MultilingualKey: multilingualKey}
}

// Ask answers q.Question from the first MaxContextChars characters of q.Context.
// q.History is ignored.
func (svc *Service) Ask(ctx context.Context, q entity.Question) (*entity.Answer, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return svc.answer(ctx, q, text.TruncateRunes(q.Context, MaxContextChars))
}

// Converse answers like Ask with the last HistoryTurns turns of q.History placed
// before the context, so follow-up questions can refer to earlier answers.
func (svc *Service) Converse(ctx context.Context, q entity.Question) (*entity.Answer, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	passage := buildConversationContext(q.History, text.TruncateRunes(q.Context, MaxContextChars))
	ans, err := svc.answer(ctx, q, passage)
	if err != nil {
		return nil, err
	}
	ans.Metadata.ConversationTurns = len(q.History)
	return ans, nil
}

func (svc *Service) answer(ctx context.Context, q entity.Question, passage string) (*entity.Answer, error) {
	key := svc.MultilingualKey
	if q.IsEnglish() {
		key = svc.EnglishKey
	}

	handle, err := svc.Models.Acquire(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("acquire %s: %w", key, err)
	}
	out, err := handle.Run(ctx, passage, inference.Params{
		Deterministic: true,
		Truncate:      true,
		Prompt:        strings.TrimSpace(q.Question),
	})
	if err != nil {
		return nil, fmt.Errorf("answer question with %s: %w", key, err)
	}

	span, score, scored := inference.ParseAnswer(out)
	if !scored {
		slog.DebugContext(ctx, "question answering backend returned no score", slog.String("model_key", key))
	}
	start, end, found := locate(passage, span)
	supporting := ""
	if found {
		supporting = surrounding(passage, start, end, SupportingChars)
	}

	language := strings.TrimSpace(q.Language)
	if language == "" {
		language = "en"
	}
	return &entity.Answer{
		Answer:         span,
		Confidence:     math.Round(score*10000) / 10000,
		Start:          start,
		End:            end,
		SupportingText: supporting,
		Metadata: entity.AnswerMetadata{
			ContextWordCount:  text.CountWords(q.Context),
			QuestionWordCount: text.CountWords(q.Question),
			AnswerWordCount:   text.CountWords(span),
			Language:          language,
			Model:             key,
		},
	}, nil
}

// buildConversationContext prefixes passage with the most recent complete turns.
func buildConversationContext(history []entity.ConversationTurn, passage string) string {
	if len(history) == 0 {
		return passage
	}
	recent := history[max(0, len(history)-HistoryTurns):]

	var sb strings.Builder
	sb.WriteString("\n\nPrevious conversation:\n")
	for _, turn := range recent {
		if strings.TrimSpace(turn.Question) == "" || strings.TrimSpace(turn.Answer) == "" {
			continue
		}
		fmt.Fprintf(&sb, "Q: %s\nA: %s\n", turn.Question, turn.Answer)
	}
	sb.WriteString("\n\nCurrent context:\n")
	sb.WriteString(passage)
	return sb.String()
}

// locate returns the character offsets of span in passage, falling back to a
// case-insensitive match.
func locate(passage, span string) (start, end int, found bool) {
	if span == "" {
		return 0, 0, false
	}
	i := strings.Index(passage, span)
	if i < 0 {
		i = indexFold(passage, span)
	}
	if i < 0 {
		return 0, 0, false
	}
	start = utf8.RuneCountInString(passage[:i])
	return start, start + utf8.RuneCountInString(span), true
}

// indexFold is a case-insensitive strings.Index returning a byte offset into s.
func indexFold(s, substr string) int {
	n := len(substr)
	for i := 0; i+n <= len(s); i++ {
		if !utf8.RuneStart(s[i]) {
			continue
		}
		if strings.EqualFold(s[i:i+n], substr) {
			return i
		}
	}
	return -1
}

// surrounding returns passage[start-width : end+width] in characters, clamped.
func surrounding(passage string, start, end, width int) string {
	r := []rune(passage)
	lo := max(0, start-width)
	hi := min(len(r), end+width)
	return string(r[lo:hi])
}
