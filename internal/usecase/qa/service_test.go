package qa_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"summarize-pro/internal/domain/entity"
	"summarize-pro/internal/inference"
	"summarize-pro/internal/modelcache"
	"summarize-pro/internal/usecase/qa"
)

/* ───────── fakes ───────── */

type call struct {
	input  string
	params inference.Params
}

type stubHandle struct {
	out   string
	err   error
	calls []call
}

func (h *stubHandle) Run(_ context.Context, input string, p inference.Params) (string, error) {
	h.calls = append(h.calls, call{input: input, params: p})
	return h.out, h.err
}

func (h *stubHandle) Close() error { return nil }

type stubModels struct {
	handle *stubHandle
	err    error
	keys   []string
}

func (m *stubModels) Acquire(_ context.Context, key string) (inference.Handle, error) {
	m.keys = append(m.keys, key)
	if m.err != nil {
		return nil, m.err
	}
	return m.handle, nil
}

func newService(h *stubHandle) (*qa.Service, *stubModels) {
	models := &stubModels{handle: h}
	return qa.NewService(models, "qa", "multilingual-qa"), models
}

/* ───────── Ask ───────── */

func TestService_Ask(t *testing.T) {
	h := &stubHandle{out: inference.FormatAnswer("in 1889", 0.912345)}
	svc, models := newService(h)
	passage := "The Eiffel Tower was completed in 1889 for the World's Fair."

	got, err := svc.Ask(context.Background(), entity.Question{
		Question: " When was the tower completed? ",
		Context:  passage,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"qa"}, models.keys)
	require.Len(t, h.calls, 1)
	assert.Equal(t, passage, h.calls[0].input)
	assert.Equal(t, "When was the tower completed?", h.calls[0].params.Prompt)

	assert.Equal(t, "in 1889", got.Answer)
	assert.Equal(t, 0.9123, got.Confidence)
	assert.Equal(t, 31, got.Start)
	assert.Equal(t, 38, got.End)
	assert.Equal(t, passage, got.SupportingText)
	assert.Equal(t, entity.AnswerMetadata{
		ContextWordCount:  11,
		QuestionWordCount: 5,
		AnswerWordCount:   2,
		Language:          "en",
		Model:             "qa",
	}, got.Metadata)
}

func TestService_Ask_RoutesByLanguage(t *testing.T) {
	tests := []struct {
		language string
		wantKey  string
	}{
		{language: "", wantKey: "qa"},
		{language: "en", wantKey: "qa"},
		{language: "en-GB", wantKey: "qa"},
		{language: "de", wantKey: "multilingual-qa"},
		{language: "multilingual", wantKey: "multilingual-qa"},
	}

	for _, tt := range tests {
		t.Run(tt.language, func(t *testing.T) {
			svc, models := newService(&stubHandle{out: "Berlin"})
			got, err := svc.Ask(context.Background(), entity.Question{
				Question: "Capital?", Context: "Die Hauptstadt ist Berlin.", Language: tt.language,
			})
			require.NoError(t, err)
			assert.Equal(t, []string{tt.wantKey}, models.keys)
			assert.Equal(t, tt.wantKey, got.Metadata.Model)
		})
	}
}

func TestService_Ask_TruncatesContext(t *testing.T) {
	h := &stubHandle{out: "x"}
	svc, _ := newService(h)

	_, err := svc.Ask(context.Background(), entity.Question{
		Question: "What?", Context: strings.Repeat("ü", qa.MaxContextChars+50),
	})
	require.NoError(t, err)
	assert.Equal(t, qa.MaxContextChars, len([]rune(h.calls[0].input)))
}

func TestService_Ask_SupportingTextWindow(t *testing.T) {
	passage := strings.Repeat("a", 150) + "NEEDLE" + strings.Repeat("b", 150)
	svc, _ := newService(&stubHandle{out: "needle"})

	got, err := svc.Ask(context.Background(), entity.Question{Question: "Where?", Context: passage})
	require.NoError(t, err)

	assert.Equal(t, "needle", got.Answer)
	assert.Equal(t, 150, got.Start)
	assert.Equal(t, 156, got.End)
	assert.Equal(t, strings.Repeat("a", 100)+"NEEDLE"+strings.Repeat("b", 100), got.SupportingText)
}

func TestService_Ask_AnswerNotInContext(t *testing.T) {
	svc, _ := newService(&stubHandle{out: "somewhere else"})

	got, err := svc.Ask(context.Background(), entity.Question{Question: "Where?", Context: "Nothing here."})
	require.NoError(t, err)
	assert.Equal(t, 0, got.Start)
	assert.Equal(t, 0, got.End)
	assert.Empty(t, got.SupportingText)
	assert.Zero(t, got.Confidence)
}

func TestService_Ask_Errors(t *testing.T) {
	loadErr := &modelcache.LoadError{Key: "qa"}
	runErr := errors.New("backend down")

	tests := []struct {
		name   string
		q      entity.Question
		models *stubModels
		check  func(t *testing.T, err error)
	}{
		{
			name:   "empty question",
			q:      entity.Question{Context: "ctx"},
			models: &stubModels{},
			check: func(t *testing.T, err error) {
				var ve *entity.ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, "question", ve.Field)
			},
		},
		{
			name:   "empty context",
			q:      entity.Question{Question: "Why?", Context: "  "},
			models: &stubModels{},
			check: func(t *testing.T, err error) {
				var ve *entity.ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, "context", ve.Field)
			},
		},
		{
			name:   "load failure",
			q:      entity.Question{Question: "Why?", Context: "Because."},
			models: &stubModels{err: loadErr},
			check: func(t *testing.T, err error) {
				var le *modelcache.LoadError
				assert.ErrorAs(t, err, &le)
			},
		},
		{
			name:   "run failure",
			q:      entity.Question{Question: "Why?", Context: "Because."},
			models: &stubModels{handle: &stubHandle{err: runErr}},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, runErr)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := qa.NewService(tt.models, "qa", "multilingual-qa").Ask(context.Background(), tt.q)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

/* ───────── Converse ───────── */

func TestService_Converse(t *testing.T) {
	h := &stubHandle{out: inference.FormatAnswer("Paris", 0.8)}
	svc, _ := newService(h)

	got, err := svc.Converse(context.Background(), entity.Question{
		Question: "And its capital?",
		Context:  "France's capital is Paris.",
		History: []entity.ConversationTurn{
			{Question: "q1", Answer: "a1"},
			{Question: "q2", Answer: "a2"},
			{Question: "q3", Answer: ""},
			{Question: "q4", Answer: "a4"},
		},
	})
	require.NoError(t, err)

	want := "\n\nPrevious conversation:\nQ: q2\nA: a2\nQ: q4\nA: a4\n\n\nCurrent context:\nFrance's capital is Paris."
	assert.Equal(t, want, h.calls[0].input)
	assert.Equal(t, "Paris", got.Answer)
	assert.Equal(t, 4, got.Metadata.ConversationTurns)
	assert.Equal(t, 4, got.Metadata.ContextWordCount)
	assert.Equal(t, strings.Index(want, "Paris"), got.Start)
}

func TestService_Converse_WithoutHistory(t *testing.T) {
	h := &stubHandle{out: "Paris"}
	svc, _ := newService(h)

	got, err := svc.Converse(context.Background(), entity.Question{
		Question: "Capital?", Context: "France's capital is Paris.",
	})
	require.NoError(t, err)
	assert.Equal(t, "France's capital is Paris.", h.calls[0].input)
	assert.Zero(t, got.Metadata.ConversationTurns)
}
