package inference

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"summarize-pro/internal/utils/text"
)

// defaultLocalWordBudget applies when Params carry no length budget.
const defaultLocalWordBudget = 60

// LocalBackend runs small extractive models in process. It needs no credentials and
// is the default backend, which makes the service usable without any hosted model.
//
// Model names are accepted as-is; every name maps to the same extractive scorer.
type LocalBackend struct{}

// NewLocalBackend creates the backend.
func NewLocalBackend() *LocalBackend { return &LocalBackend{} }

// Name implements Backend.
func (b *LocalBackend) Name() string { return "local" }

// Open implements Backend.
func (b *LocalBackend) Open(_ context.Context, model string, task TaskKind) (Handle, error) {
	switch task {
	case TaskSummarization, TaskText2Text:
		return &extractiveHandle{model: model}, nil
	case TaskQuestionAnswering:
		return &overlapQAHandle{}, nil
	case TaskSentiment:
		return &lexiconSentimentHandle{}, nil
	}
	return nil, fmt.Errorf("local %s: %w: %s", model, ErrUnsupportedTask, task)
}

/* ───────── Summarization ───────── */

type extractiveHandle struct {
	model string
}

type scoredSentence struct {
	index int
	text  string
	words int
	score float64
}

// Run selects the highest scoring sentences that fit the word budget and returns
// them in document order. Sentences repeating an n-gram already selected are skipped.
// When the selection is shorter than p.MinLength, the next best sentences are added.
func (h *extractiveHandle) Run(ctx context.Context, input string, p Params) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	sentences := text.Sentences(input)
	if len(sentences) == 0 {
		return "", ErrEmptyOutput
	}

	budget := defaultLocalWordBudget
	if p.MaxLength > 0 {
		budget = max(1, TokensToWords(p.MaxLength))
	}

	scored := scoreSentences(sentences, text.ContentTokens(p.Prompt, 3))
	ranked := make([]scoredSentence, len(scored))
	copy(ranked, scored)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	n := p.NoRepeatNgram
	seen := map[string]struct{}{}
	var picked []scoredSentence
	used := 0
	for _, s := range ranked {
		if used+s.words > budget && len(picked) > 0 {
			continue
		}
		grams := ngrams(text.Tokens(s.text), n)
		if repeats(grams, seen) {
			continue
		}
		for _, g := range grams {
			seen[g] = struct{}{}
		}
		picked = append(picked, s)
		used += s.words
		if used >= budget {
			break
		}
	}
	if len(picked) == 0 {
		return "", ErrEmptyOutput
	}
	picked = fillToMinimum(ranked, picked, used, min(TokensToWords(p.MinLength), budget))

	sort.Slice(picked, func(i, j int) bool { return picked[i].index < picked[j].index })
	parts := make([]string, len(picked))
	for i, s := range picked {
		parts[i] = s.text
	}
	out := strings.Join(parts, " ")
	if words := strings.Fields(out); len(words) > budget {
		out = strings.Join(words[:budget], " ")
	}
	return out, nil
}

func (h *extractiveHandle) Close() error { return nil }

// scoreSentences weights sentences by the mean document frequency of their content
// words. Sentences sharing words with focus (an instruction) get a bonus, and the
// opening sentence gets a small lead bonus.
func scoreSentences(sentences []string, focus []string) []scoredSentence {
	freq := map[string]int{}
	tokens := make([][]string, len(sentences))
	for i, s := range sentences {
		tokens[i] = text.ContentTokens(s, 3)
		for _, t := range tokens[i] {
			freq[t]++
		}
	}
	focusSet := map[string]struct{}{}
	for _, f := range focus {
		focusSet[f] = struct{}{}
	}

	out := make([]scoredSentence, len(sentences))
	for i, s := range sentences {
		var sum float64
		var hits int
		for _, t := range tokens[i] {
			sum += float64(freq[t])
			if _, ok := focusSet[t]; ok {
				hits++
			}
		}
		score := 0.0
		if len(tokens[i]) > 0 {
			score = sum / float64(len(tokens[i]))
		}
		score *= 1 + float64(hits)
		if i == 0 {
			score *= 1.2
		}
		out[i] = scoredSentence{index: i, text: s, words: text.CountWords(s), score: score}
	}
	return out
}

// fillToMinimum appends the best unpicked sentences until minWords is reached.
// The overflow is cut by the final budget truncation.
func fillToMinimum(ranked, picked []scoredSentence, used, minWords int) []scoredSentence {
	if used >= minWords {
		return picked
	}
	taken := make(map[int]struct{}, len(picked))
	for _, s := range picked {
		taken[s.index] = struct{}{}
	}
	for _, s := range ranked {
		if used >= minWords {
			break
		}
		if _, ok := taken[s.index]; ok {
			continue
		}
		picked = append(picked, s)
		used += s.words
	}
	return picked
}

func ngrams(tokens []string, n int) []string {
	if n <= 0 || len(tokens) < n {
		return nil
	}
	out := make([]string, 0, len(tokens)-n+1)
	for i := 0; i+n <= len(tokens); i++ {
		out = append(out, strings.Join(tokens[i:i+n], " "))
	}
	return out
}

func repeats(grams []string, seen map[string]struct{}) bool {
	local := map[string]struct{}{}
	for _, g := range grams {
		if _, ok := seen[g]; ok {
			return true
		}
		if _, ok := local[g]; ok {
			return true
		}
		local[g] = struct{}{}
	}
	return false
}

/* ───────── Question answering ───────── */

type overlapQAHandle struct{}

// Run answers with the context sentence sharing the most content words with the
// question. The score is the fraction of question words found in that sentence.
func (h *overlapQAHandle) Run(ctx context.Context, input string, p Params) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	question := text.ContentTokens(lastQuestion(p.Prompt), 2)
	sentences := text.Sentences(input)
	if len(sentences) == 0 {
		return "", ErrEmptyOutput
	}
	if len(question) == 0 {
		return FormatAnswer(sentences[0], 0), nil
	}

	qset := map[string]struct{}{}
	for _, q := range question {
		qset[q] = struct{}{}
	}
	best, bestHits := 0, -1
	for i, s := range sentences {
		hits := 0
		seen := map[string]struct{}{}
		for _, t := range text.ContentTokens(s, 2) {
			if _, ok := qset[t]; ok {
				if _, dup := seen[t]; !dup {
					hits++
					seen[t] = struct{}{}
				}
			}
		}
		if hits > bestHits {
			best, bestHits = i, hits
		}
	}
	score := float64(bestHits) / float64(len(qset))
	return FormatAnswer(sentences[best], math.Min(score, 1)), nil
}

func (h *overlapQAHandle) Close() error { return nil }

// lastQuestion strips a conversation preamble, keeping the final question.
func lastQuestion(prompt string) string {
	if i := strings.LastIndex(prompt, "Current question:"); i >= 0 {
		return prompt[i+len("Current question:"):]
	}
	return prompt
}

/* ───────── Sentiment ───────── */

var (
	positiveWords = wordSet("good", "great", "excellent", "amazing", "love", "loved", "happy",
		"wonderful", "best", "positive", "fantastic", "success", "successful", "improve",
		"improved", "benefit", "win", "gain", "strong", "growth", "enjoy", "pleased", "impressive")
	negativeWords = wordSet("bad", "terrible", "awful", "worst", "hate", "hated", "sad", "poor",
		"negative", "fail", "failed", "failure", "loss", "lose", "weak", "decline", "problem",
		"problems", "crisis", "angry", "disappointing", "broken", "risk")
)

func wordSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

type lexiconSentimentHandle struct{}

func (h *lexiconSentimentHandle) Run(ctx context.Context, input string, _ Params) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var pos, neg int
	for _, t := range text.Tokens(input) {
		if _, ok := positiveWords[t]; ok {
			pos++
		}
		if _, ok := negativeWords[t]; ok {
			neg++
		}
	}
	if pos+neg == 0 || pos == neg {
		return FormatSentiment(SentimentNeutral, 0.5), nil
	}
	polarity := float64(pos-neg) / float64(pos+neg)
	score := 0.5 + math.Abs(polarity)/2
	if polarity > 0 {
		return FormatSentiment(SentimentPositive, score), nil
	}
	return FormatSentiment(SentimentNegative, score), nil
}

func (h *lexiconSentimentHandle) Close() error { return nil }
