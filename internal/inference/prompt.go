package inference

import (
	"fmt"
	"strconv"
	"strings"

	"summarize-pro/internal/utils/text"
)

// TokensPerWord approximates English subword density.
const TokensPerWord = 1.33

// TokensToWords converts a token budget back to words.
func TokensToWords(tokens int) int {
	return int(float64(tokens) / TokensPerWord)
}

// chatPrompt is the system + user message pair sent to chat style backends.
type chatPrompt struct {
	System string
	User   string
}

// buildPrompt turns a task, its input and decoding parameters into chat messages.
// maxInputChars bounds the input when p.Truncate is set.
func buildPrompt(task TaskKind, input string, p Params, maxInputChars int) chatPrompt {
	if p.Truncate && maxInputChars > 0 {
		input = text.TruncateRunes(input, maxInputChars)
	}

	switch task {
	case TaskQuestionAnswering:
		return chatPrompt{
			System: "Answer the question using only the context. Reply with the shortest span " +
				"copied verbatim from the context, without any explanation.",
			User: fmt.Sprintf("Context:\n%s\n\nQuestion: %s", input, p.Prompt),
		}
	case TaskSentiment:
		return chatPrompt{
			System: "Classify the sentiment of the text. Reply with one label (POSITIVE, NEGATIVE " +
				"or NEUTRAL) followed by a confidence between 0 and 1, for example: POSITIVE 0.93",
			User: input,
		}
	}

	var sb strings.Builder
	sb.WriteString("You are a summarization model. Write a faithful summary of the text in plain prose ")
	sb.WriteString("in the language of the text. Do not add facts that are not in the text.")
	if p.MaxLength > 0 {
		minWords, maxWords := TokensToWords(p.MinLength), TokensToWords(p.MaxLength)
		if minWords > 0 && minWords < maxWords {
			fmt.Fprintf(&sb, " Use between %d and %d words.", minWords, maxWords)
		} else {
			fmt.Fprintf(&sb, " Use at most %d words.", maxWords)
		}
	}
	switch {
	case p.NoRepeatNgram >= 4:
		sb.WriteString(" Never repeat a phrase. Every sentence must add new information.")
	case p.NoRepeatNgram > 0:
		sb.WriteString(" Avoid repeating phrases.")
	}

	user := input
	if task == TaskText2Text && strings.TrimSpace(p.Prompt) != "" {
		user = fmt.Sprintf("Instruction: %s\n\nText:\n%s", strings.TrimSpace(p.Prompt), input)
	}
	return chatPrompt{System: sb.String(), User: user}
}

// temperature maps Deterministic to a sampling temperature.
func temperature(p Params) float64 {
	if p.Deterministic {
		return 0
	}
	return 0.7
}

// frequencyPenalty maps a multiplicative repetition penalty (1.0 = none) onto the
// additive 0..2 range used by hosted chat APIs.
func frequencyPenalty(p Params) float64 {
	penalty := p.RepetitionPenalty - 1
	if penalty < 0 {
		return 0
	}
	if penalty > 2 {
		return 2
	}
	return penalty
}

// Sentiment labels.
const (
	SentimentPositive = "POSITIVE"
	SentimentNegative = "NEGATIVE"
	SentimentNeutral  = "NEUTRAL"
)

// ParseSentiment parses "LABEL score" as produced by sentiment-analysis handles.
// Common model label spellings (LABEL_2, pos, negative) are normalised.
func ParseSentiment(out string) (string, float64, error) {
	fields := strings.Fields(strings.NewReplacer(",", " ", ":", " ").Replace(out))
	if len(fields) == 0 {
		return "", 0, ErrEmptyOutput
	}

	label := normaliseLabel(fields[0])
	if label == "" {
		return "", 0, fmt.Errorf("unrecognised sentiment label %q", fields[0])
	}

	score := 1.0
	if len(fields) > 1 {
		parsed, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return "", 0, fmt.Errorf("parse sentiment score %q: %w", fields[1], err)
		}
		score = parsed
	}
	if score < 0 || score > 1 {
		return "", 0, fmt.Errorf("sentiment score %v out of range", score)
	}
	return label, score, nil
}

func normaliseLabel(s string) string {
	switch strings.ToUpper(strings.Trim(s, ".\"'")) {
	case "POSITIVE", "POS", "LABEL_2":
		return SentimentPositive
	case "NEGATIVE", "NEG", "LABEL_0":
		return SentimentNegative
	case "NEUTRAL", "NEU", "LABEL_1":
		return SentimentNeutral
	}
	return ""
}

// FormatSentiment is the inverse of ParseSentiment.
func FormatSentiment(label string, score float64) string {
	return fmt.Sprintf("%s %.3f", label, score)
}

// FormatAnswer encodes a question answering result as "score<TAB>answer".
func FormatAnswer(answer string, score float64) string {
	return fmt.Sprintf("%.4f\t%s", score, answer)
}

// ParseAnswer decodes FormatAnswer output. Backends that cannot score their answer
// return the bare span; hasScore is false in that case.
func ParseAnswer(out string) (answer string, score float64, hasScore bool) {
	out = strings.TrimSpace(out)
	if head, tail, ok := strings.Cut(out, "\t"); ok {
		if parsed, err := strconv.ParseFloat(head, 64); err == nil {
			return strings.TrimSpace(tail), parsed, true
		}
	}
	return out, 0, false
}
