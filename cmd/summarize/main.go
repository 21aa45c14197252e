// Command summarize runs the summarization pipeline once, without the HTTP server.
//
//	summarize [-class text|document|transcript|multilingual] [-style brief] [-prompt "..."] [-output json] [file]
//	summarize -url https://example.com/post
//
// Text is read from file, or from stdin when no file is given.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"summarize-pro/internal/config"
	"summarize-pro/internal/domain/entity"
	"summarize-pro/internal/infra/fetcher"
	"summarize-pro/internal/observability/logging"
	"summarize-pro/internal/usecase/analysis"
	"summarize-pro/internal/usecase/summary"
)

// summarizer is implemented by *summary.Service.
type summarizer interface {
	Summarize(ctx context.Context, req summary.Request) (*entity.Summary, error)
	SummarizeURL(ctx context.Context, url string, style entity.Style) (*entity.Summary, error)
}

type options struct {
	class   entity.ContentClass
	style   entity.Style
	prompt  string
	url     string
	file    string
	output  string
	timeout time.Duration
}

func main() {
	logger := logging.New(logging.Options{Writer: os.Stderr})
	slog.SetDefault(logger)

	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	models, err := config.LoadModels()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load models: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = models.Close(context.Background()) }()

	svc := &summary.Service{
		Pipeline: models.Pipeline,
		Analyzer: analysis.NewService(models.Cache, config.KeySentiment),
	}
	if opts.url != "" {
		fcfg, err := fetcher.LoadConfigFromEnv()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid fetcher configuration: %v\n", err)
			os.Exit(1)
		}
		svc.Fetcher = fetcher.NewReadabilityFetcher(fcfg)
	}

	if err := run(context.Background(), svc, opts, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var (
		opts  options
		class string
		style string
	)
	fs := flag.NewFlagSet("summarize", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&class, "class", string(entity.ClassText), "content class: text, document, transcript or multilingual")
	fs.StringVar(&style, "style", string(entity.DefaultStyle), "summary style: brief, detailed or comprehensive")
	fs.StringVar(&opts.prompt, "prompt", "", "custom instruction for the instruction-tuned model")
	fs.StringVar(&opts.url, "url", "", "summarize the article at this URL instead of text")
	fs.StringVar(&opts.output, "output", "text", "output format: text or json")
	fs.DurationVar(&opts.timeout, "timeout", 5*time.Minute, "overall timeout")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	opts.class = entity.ContentClass(strings.ToLower(class))
	if !opts.class.IsValid() || opts.class == entity.ClassURL {
		return options{}, fmt.Errorf("invalid class %q", class)
	}
	parsed, err := entity.ParseStyle(style)
	if err != nil {
		return options{}, err
	}
	opts.style = parsed

	switch opts.output {
	case "text", "json":
	default:
		return options{}, fmt.Errorf("invalid output format %q (must be text or json)", opts.output)
	}
	if fs.NArg() > 1 {
		return options{}, errors.New("at most one input file may be given")
	}
	opts.file = fs.Arg(0)
	if opts.url != "" && opts.file != "" {
		return options{}, errors.New("-url and an input file are mutually exclusive")
	}
	return opts, nil
}

func run(ctx context.Context, svc summarizer, opts options, stdin io.Reader, stdout io.Writer) error {
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	var (
		result *entity.Summary
		err    error
	)
	if opts.url != "" {
		result, err = svc.SummarizeURL(ctx, opts.url, opts.style)
	} else {
		var text string
		text, err = readInput(opts.file, stdin)
		if err != nil {
			return err
		}
		req := summary.Request{Class: opts.class, Text: text, Style: opts.style, CustomPrompt: opts.prompt}
		if opts.file != "" {
			req.FilesProcessed = []string{opts.file}
		}
		result, err = svc.Summarize(ctx, req)
	}
	if err != nil {
		return err
	}

	if opts.output == "json" {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	return writeText(stdout, result)
}

func readInput(file string, stdin io.Reader) (string, error) {
	if file == "" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	// #nosec G304 -- the path is given by the user running the command
	b, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", file, err)
	}
	return string(b), nil
}

func writeText(w io.Writer, s *entity.Summary) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", s.Summary)
	fmt.Fprintf(&b, "Words: %d -> %d (%.1f%% shorter), %d chunk(s), ~%d min read\n",
		s.Metadata.OriginalWordCount, s.Metadata.SummaryWordCount,
		s.Metadata.CompressionRatio, s.Metadata.Chunks, s.Metadata.ReadingTimeMinutes)
	if s.Metadata.SourceTitle != "" {
		fmt.Fprintf(&b, "Source: %s (%s)\n", s.Metadata.SourceTitle, s.Metadata.SourceURL)
	}

	if a := s.Analysis; a != nil {
		if len(a.Keywords) > 0 {
			phrases := make([]string, len(a.Keywords))
			for i, k := range a.Keywords {
				phrases[i] = k.Phrase
			}
			fmt.Fprintf(&b, "Keywords: %s\n", strings.Join(phrases, ", "))
		}
		fmt.Fprintf(&b, "Sentiment: %s (%.2f)\n", a.Sentiment.Label, a.Sentiment.Score)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
