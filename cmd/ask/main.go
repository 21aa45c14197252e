// Command ask answers one question about a passage with the extractive QA models.
//
//	ask [-lang en] [-output json] -context notes.txt "What changed in the release?"
//
// The passage is read from stdin when -context is not given.
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
	"summarize-pro/internal/observability/logging"
	"summarize-pro/internal/usecase/qa"
)

// answerer is implemented by *qa.Service.
type answerer interface {
	Ask(ctx context.Context, q entity.Question) (*entity.Answer, error)
}

type options struct {
	question    string
	language    string
	contextFile string
	output      string
	timeout     time.Duration
}

func main() {
	slog.SetDefault(logging.New(logging.Options{Writer: os.Stderr}))

	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintln(os.Stderr, `Usage: ask [-lang en] [-output json] [-context file] "question"`)
		os.Exit(2)
	}

	models, err := config.LoadModels()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load models: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = models.Close(context.Background()) }()

	svc := qa.NewService(models.Cache, config.KeyQA, config.KeyMultilingualQA)
	if err := run(context.Background(), svc, opts, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("ask", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.language, "lang", "en", "language of the passage; anything but en uses the multilingual model")
	fs.StringVar(&opts.contextFile, "context", "", "file holding the passage (default stdin)")
	fs.StringVar(&opts.output, "output", "text", "output format: text or json")
	fs.DurationVar(&opts.timeout, "timeout", 2*time.Minute, "overall timeout")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	opts.question = strings.TrimSpace(strings.Join(fs.Args(), " "))
	if opts.question == "" {
		return options{}, errors.New("question is required")
	}
	if opts.output != "text" && opts.output != "json" {
		return options{}, fmt.Errorf("invalid output format %q (must be text or json)", opts.output)
	}
	return opts, nil
}

func run(ctx context.Context, svc answerer, opts options, stdin io.Reader, stdout io.Writer) error {
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	var (
		passage []byte
		err     error
	)
	if opts.contextFile != "" {
		// #nosec G304 -- the path is given by the user running the command
		passage, err = os.ReadFile(opts.contextFile)
	} else {
		passage, err = io.ReadAll(stdin)
	}
	if err != nil {
		return fmt.Errorf("read context: %w", err)
	}

	answer, err := svc.Ask(ctx, entity.Question{
		Question: opts.question,
		Context:  string(passage),
		Language: opts.language,
	})
	if err != nil {
		return err
	}

	if opts.output == "json" {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(answer)
	}
	_, err = fmt.Fprintf(stdout, "Q: %s\nA: %s\n\nConfidence: %.2f (model %s)\nContext: ...%s...\n",
		opts.question, answer.Answer, answer.Confidence, answer.Metadata.Model, answer.SupportingText)
	return err
}
