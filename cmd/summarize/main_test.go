package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"summarize-pro/internal/domain/entity"
	"summarize-pro/internal/summarize"
	"summarize-pro/internal/usecase/summary"
)

type fakeSummarizer struct {
	req    summary.Request
	url    string
	result *entity.Summary
	err    error
}

func (f *fakeSummarizer) Summarize(_ context.Context, req summary.Request) (*entity.Summary, error) {
	f.req = req
	return f.result, f.err
}

func (f *fakeSummarizer) SummarizeURL(_ context.Context, url string, _ entity.Style) (*entity.Summary, error) {
	f.url = url
	return f.result, f.err
}

func sample() *entity.Summary {
	return &entity.Summary{
		Summary: "Go makes concurrent services simple.",
		Metadata: entity.Metadata{
			OriginalWordCount:  200,
			SummaryWordCount:   5,
			CompressionRatio:   97.5,
			ReadingTimeMinutes: 1,
			ContentType:        entity.ClassText,
			SummaryStyle:       entity.StyleBrief,
			Chunks:             2,
		},
		Analysis: &entity.Analysis{
			Keywords:  []entity.Keyword{{Phrase: "go", Count: 6}, {Phrase: "services", Count: 3}},
			Sentiment: entity.Sentiment{Label: "POSITIVE", Score: 0.91},
		},
	}
}

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"-class", "Transcript", "-style", "brief", "-output", "json", "talk.txt"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, entity.ClassTranscript, opts.class)
	assert.Equal(t, entity.StyleBrief, opts.style)
	assert.Equal(t, "json", opts.output)
	assert.Equal(t, "talk.txt", opts.file)

	opts, err = parseFlags(nil, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, entity.ClassText, opts.class)
	assert.Equal(t, entity.DefaultStyle, opts.style)
	assert.Equal(t, 5*time.Minute, opts.timeout)
}

func TestParseFlags_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown class", []string{"-class", "poem"}},
		{"url class", []string{"-class", "url"}},
		{"bad style", []string{"-style", "epic"}},
		{"bad output", []string{"-output", "yaml"}},
		{"two files", []string{"a.txt", "b.txt"}},
		{"url and file", []string{"-url", "https://example.com", "a.txt"}},
		{"unknown flag", []string{"-verbose"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseFlags(tt.args, io.Discard)
			assert.Error(t, err)
		})
	}
}

func TestRun_StdinText(t *testing.T) {
	svc := &fakeSummarizer{result: sample()}
	opts := options{class: entity.ClassText, style: entity.StyleBrief, prompt: "focus on Go", output: "text", timeout: time.Second}
	var out bytes.Buffer

	require.NoError(t, run(context.Background(), svc, opts, strings.NewReader("long input text"), &out))

	assert.Equal(t, "long input text", svc.req.Text)
	assert.Equal(t, "focus on Go", svc.req.CustomPrompt)
	assert.Nil(t, svc.req.FilesProcessed)
	assert.Contains(t, out.String(), "Go makes concurrent services simple.")
	assert.Contains(t, out.String(), "Words: 200 -> 5 (97.5% shorter), 2 chunk(s)")
	assert.Contains(t, out.String(), "Keywords: go, services")
	assert.Contains(t, out.String(), "Sentiment: POSITIVE (0.91)")
}

func TestRun_FileJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.md")
	require.NoError(t, os.WriteFile(path, []byte("# Notes\nsome text"), 0o600))

	svc := &fakeSummarizer{result: sample()}
	opts := options{class: entity.ClassDocument, style: entity.StyleDetailed, file: path, output: "json", timeout: time.Second}
	var out bytes.Buffer

	require.NoError(t, run(context.Background(), svc, opts, strings.NewReader(""), &out))

	assert.Equal(t, "# Notes\nsome text", svc.req.Text)
	assert.Equal(t, []string{path}, svc.req.FilesProcessed)

	var decoded entity.Summary
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, "Go makes concurrent services simple.", decoded.Summary)
	assert.Equal(t, 2, decoded.Metadata.Chunks)
}

func TestRun_URL(t *testing.T) {
	result := sample()
	result.Metadata.SourceTitle = "Go at scale"
	result.Metadata.SourceURL = "https://example.com/go"
	svc := &fakeSummarizer{result: result}
	opts := options{url: "https://example.com/go", style: entity.StyleBrief, output: "text", timeout: time.Second}
	var out bytes.Buffer

	require.NoError(t, run(context.Background(), svc, opts, nil, &out))
	assert.Equal(t, "https://example.com/go", svc.url)
	assert.Contains(t, out.String(), "Source: Go at scale (https://example.com/go)")
}

func TestRun_Errors(t *testing.T) {
	svc := &fakeSummarizer{err: summarize.ErrEmptyInput}
	opts := options{class: entity.ClassText, output: "text", timeout: time.Second}

	err := run(context.Background(), svc, opts, strings.NewReader(""), io.Discard)
	assert.True(t, errors.Is(err, summarize.ErrEmptyInput))

	opts.file = filepath.Join(t.TempDir(), "missing.txt")
	err = run(context.Background(), &fakeSummarizer{}, opts, nil, io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.txt")
}
