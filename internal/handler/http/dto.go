package http

import (
	"time"

	"summarize-pro/internal/domain/entity"
)

type textRequest struct {
	Text         string `json:"text"`
	SummaryStyle string `json:"summary_style"`
	CustomPrompt string `json:"custom_prompt"`
}

type documentRequest struct {
	Text         string `json:"text"`
	Filename     string `json:"filename"`
	SummaryStyle string `json:"summary_style"`
	CustomPrompt string `json:"custom_prompt"`
}

type urlRequest struct {
	URL          string `json:"url"`
	SummaryStyle string `json:"summary_style"`
}

type transcriptRequest struct {
	Transcript   string `json:"transcript"`
	URL          string `json:"url"`
	Title        string `json:"title"`
	SummaryStyle string `json:"summary_style"`
	CustomPrompt string `json:"custom_prompt"`
}

type summaryResponse struct {
	ID        int64            `json:"id,omitempty"`
	Summary   string           `json:"summary"`
	Keywords  []string         `json:"keywords"`
	Topics    []entity.Topic   `json:"topics"`
	Sentiment entity.Sentiment `json:"sentiment"`
	Metadata  entity.Metadata  `json:"metadata"`
	CreatedAt *time.Time       `json:"created_at,omitempty"`
}

func toSummaryResponse(s *entity.Summary) summaryResponse {
	resp := summaryResponse{
		ID:        s.ID,
		Summary:   s.Summary,
		Keywords:  []string{},
		Topics:    []entity.Topic{},
		Sentiment: entity.Sentiment{Label: "NEUTRAL", Score: 0.5},
		Metadata:  s.Metadata,
	}
	if s.Analysis != nil {
		for _, k := range s.Analysis.Keywords {
			resp.Keywords = append(resp.Keywords, k.Phrase)
		}
		if s.Analysis.Topics != nil {
			resp.Topics = s.Analysis.Topics
		}
		resp.Sentiment = s.Analysis.Sentiment
	}
	if !s.CreatedAt.IsZero() {
		created := s.CreatedAt.UTC()
		resp.CreatedAt = &created
	}
	return resp
}

type answerResponse struct {
	Answer         string                `json:"answer"`
	Confidence     float64               `json:"confidence"`
	StartPosition  int                   `json:"start_position"`
	EndPosition    int                   `json:"end_position"`
	SupportingText string                `json:"supporting_text"`
	Metadata       entity.AnswerMetadata `json:"metadata"`
}

func toAnswerResponse(a *entity.Answer) answerResponse {
	return answerResponse{
		Answer:         a.Answer,
		Confidence:     a.Confidence,
		StartPosition:  a.Start,
		EndPosition:    a.End,
		SupportingText: a.SupportingText,
		Metadata:       a.Metadata,
	}
}
