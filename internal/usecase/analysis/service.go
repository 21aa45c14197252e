// Package analysis extracts keywords, topics and sentiment from summarized text.
// Every step degrades to an empty or neutral result instead of failing the request.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"summarize-pro/internal/domain/entity"
	"summarize-pro/internal/inference"
	"summarize-pro/internal/observability/metrics"
	"summarize-pro/internal/utils/text"
)

const (
	// SampleChars bounds the text used for keywords and topics.
	SampleChars = 5000
	// SentimentChars bounds the text sent to the sentiment model.
	SentimentChars = 512

	DefaultTopKeywords = 10
	DefaultMaxTopics   = 5

	// minTopicSentenceChars drops fragments too short to carry a topic.
	minTopicSentenceChars = 20
	minKeywordLen         = 3
)

// Models hands out model handles by key. *modelcache.Cache implements it.
type Models interface {
	Acquire(ctx context.Context, key string) (inference.Handle, error)
}

// Service runs the analysis steps.
type Service struct {
	Models       Models
	SentimentKey string
}

// NewService returns a Service that runs sentiment on the model registered as sentimentKey.
func NewService(models Models, sentimentKey string) *Service {
	return &Service{Models: models, SentimentKey: sentimentKey}
}

// Analyze runs keywords, topics and sentiment on s.
func (svc *Service) Analyze(ctx context.Context, s string) *entity.Analysis {
	return &entity.Analysis{
		Keywords:  Keywords(s, DefaultTopKeywords),
		Topics:    Topics(s, DefaultMaxTopics),
		Sentiment: svc.Sentiment(ctx, s),
	}
}

/* ───────── Sentiment ───────── */

// Sentiment classifies the first SentimentChars characters of s. Any failure yields
// NEUTRAL with score 0.5.
func (svc *Service) Sentiment(ctx context.Context, s string) entity.Sentiment {
	result, err := svc.sentiment(ctx, s)
	if err != nil {
		slog.WarnContext(ctx, "sentiment analysis failed, using neutral",
			slog.String("model_key", svc.SentimentKey),
			slog.Any("error", err))
		metrics.RecordAnalysisFallback("sentiment")
		return entity.Sentiment{Label: inference.SentimentNeutral, Score: 0.5}
	}
	return result
}

func (svc *Service) sentiment(ctx context.Context, s string) (entity.Sentiment, error) {
	if svc.Models == nil {
		return entity.Sentiment{}, fmt.Errorf("no models configured")
	}
	sample := strings.TrimSpace(text.TruncateRunes(s, SentimentChars))
	if sample == "" {
		return entity.Sentiment{}, fmt.Errorf("empty input")
	}

	handle, err := svc.Models.Acquire(ctx, svc.SentimentKey)
	if err != nil {
		return entity.Sentiment{}, fmt.Errorf("acquire %s: %w", svc.SentimentKey, err)
	}
	out, err := handle.Run(ctx, sample, inference.Params{Deterministic: true, Truncate: true})
	if err != nil {
		return entity.Sentiment{}, fmt.Errorf("run %s: %w", svc.SentimentKey, err)
	}
	label, score, err := inference.ParseSentiment(out)
	if err != nil {
		return entity.Sentiment{}, err
	}
	return entity.Sentiment{Label: label, Score: math.Round(score*1000) / 1000}, nil
}

/* ───────── Keywords ───────── */

type phraseCount struct {
	phrase string
	count  int
	first  int
}

// Keywords returns up to topK unigram and bigram phrases of the first SampleChars
// characters, most frequent first. Ties keep first appearance order.
// Stopwords and tokens shorter than three characters never form a phrase.
func Keywords(s string, topK int) []entity.Keyword {
	if topK <= 0 {
		return []entity.Keyword{}
	}
	counts := map[string]*phraseCount{}
	order := 0
	add := func(phrase string) {
		if pc, ok := counts[phrase]; ok {
			pc.count++
			return
		}
		counts[phrase] = &phraseCount{phrase: phrase, count: 1, first: order}
		order++
	}

	for _, sentence := range text.Sentences(text.TruncateRunes(s, SampleChars)) {
		var prev string
		for _, tok := range text.Tokens(sentence) {
			tok = strings.Trim(tok, "'")
			if !isKeywordToken(tok) {
				prev = ""
				continue
			}
			add(tok)
			if prev != "" {
				add(prev + " " + tok)
			}
			prev = tok
		}
	}

	ranked := make([]*phraseCount, 0, len(counts))
	for _, pc := range counts {
		ranked = append(ranked, pc)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].first < ranked[j].first
	})

	n := min(topK, len(ranked))
	out := make([]entity.Keyword, 0, n)
	for _, pc := range ranked[:n] {
		out = append(out, entity.Keyword{Phrase: pc.phrase, Count: pc.count})
	}
	return out
}

func isKeywordToken(tok string) bool {
	return len([]rune(tok)) >= minKeywordLen && !text.IsStopword(tok)
}

/* ───────── Topics ───────── */

type topicGroup struct {
	keyword string
	first   int
	words   map[string]int
	count   int
}

// Topics groups the sentences of the first SampleChars characters by their most
// frequent keyword and returns the maxTopics largest groups. Fewer than two usable
// sentences yield no topics.
func Topics(s string, maxTopics int) []entity.Topic {
	var sentences [][]string
	for _, sentence := range text.Sentences(text.TruncateRunes(s, SampleChars)) {
		if text.CountRunes(sentence) <= minTopicSentenceChars {
			continue
		}
		sentences = append(sentences, text.ContentTokens(sentence, minKeywordLen))
	}
	if len(sentences) < 2 || maxTopics <= 0 {
		return []entity.Topic{}
	}

	freq := map[string]int{}
	for _, toks := range sentences {
		for _, t := range toks {
			freq[t]++
		}
	}

	groups := map[string]*topicGroup{}
	for i, toks := range sentences {
		dominant := ""
		for _, t := range toks {
			if dominant == "" || freq[t] > freq[dominant] {
				dominant = t
			}
		}
		if dominant == "" {
			continue
		}
		g, ok := groups[dominant]
		if !ok {
			g = &topicGroup{keyword: dominant, first: i, words: map[string]int{}}
			groups[dominant] = g
		}
		g.count++
		for _, t := range toks {
			g.words[t]++
		}
	}

	ranked := make([]*topicGroup, 0, len(groups))
	for _, g := range groups {
		ranked = append(ranked, g)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].first < ranked[j].first
	})

	n := min(maxTopics, len(ranked))
	out := make([]entity.Topic, 0, n)
	for id, g := range ranked[:n] {
		out = append(out, entity.Topic{ID: id, Count: g.count, Name: topicName(id, g)})
	}
	return out
}

// topicName follows the "<id>_<word>_<word>_<word>" convention: the group keyword
// followed by the group's next most frequent words.
func topicName(id int, g *topicGroup) string {
	type wc struct {
		word  string
		count int
	}
	others := make([]wc, 0, len(g.words))
	for w, c := range g.words {
		if w != g.keyword {
			others = append(others, wc{w, c})
		}
	}
	sort.Slice(others, func(i, j int) bool {
		if others[i].count != others[j].count {
			return others[i].count > others[j].count
		}
		return others[i].word < others[j].word
	})

	parts := []string{fmt.Sprint(id), g.keyword}
	for _, o := range others[:min(2, len(others))] {
		parts = append(parts, o.word)
	}
	return strings.Join(parts, "_")
}
