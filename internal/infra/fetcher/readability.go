// Package fetcher downloads web pages and extracts their article text for URL
// summarization.
package fetcher

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"

	"summarize-pro/internal/observability/metrics"
	"summarize-pro/internal/resilience/circuitbreaker"
	"summarize-pro/internal/resilience/retry"
)

// Article is the readable content of a web page.
type Article struct {
	URL      string
	Title    string
	Byline   string
	SiteName string
	Text     string
}

// ReadabilityFetcher extracts article text with the Readability algorithm and
// falls back to content selectors when Readability finds too little.
//
// Thread safety: ReadabilityFetcher is safe for concurrent use.
type ReadabilityFetcher struct {
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	config         Config
}

// NewReadabilityFetcher creates a fetcher. Every redirect target is validated the
// same way as the original URL.
func NewReadabilityFetcher(config Config) *ReadabilityFetcher {
	f := &ReadabilityFetcher{
		circuitBreaker: circuitbreaker.New(circuitbreaker.URLFetchConfig()),
		retryConfig:    retry.FetchConfig(),
		config:         config,
	}
	f.client = &http.Client{
		Timeout: config.Timeout + 5*time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        50,
			MaxIdleConnsPerHost: 5,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= f.config.MaxRedirects {
				return fmt.Errorf("%w: %d redirects", ErrTooManyRedirects, len(via))
			}
			if err := validateURL(req.URL.String(), f.config.DenyPrivateIPs); err != nil {
				return fmt.Errorf("redirect target validation failed: %w", err)
			}
			return nil
		},
	}
	return f
}

// Fetch downloads urlStr and returns its readable content.
func (f *ReadabilityFetcher) Fetch(ctx context.Context, urlStr string) (*Article, error) {
	if err := validateURL(urlStr, f.config.DenyPrivateIPs); err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() { metrics.ContentFetchDuration.Observe(time.Since(start).Seconds()) }()

	var article *Article
	err := retry.WithBackoff(ctx, f.retryConfig, func() error {
		result, err := f.circuitBreaker.Execute(func() (interface{}, error) {
			return f.doFetch(ctx, urlStr)
		})
		if err != nil {
			return err
		}
		article = result.(*Article)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return article, nil
}

func (f *ReadabilityFetcher) doFetch(ctx context.Context, urlStr string) (*Article, error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrInvalidURL, err)
	}
	req.Header.Set("User-Agent", f.config.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: request exceeded %v", ErrTimeout, f.config.Timeout)
		}
		var urlErr *url.Error
		if errors.As(err, &urlErr) && (errors.Is(urlErr.Err, ErrTooManyRedirects) || errors.Is(urlErr.Err, ErrInvalidURL)) {
			return nil, urlErr.Err
		}
		return nil, fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, &retry.HTTPError{
			StatusCode: resp.StatusCode,
			Message:    resp.Status,
			Err:        ErrHTTPStatus,
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(body)) > f.config.MaxBodySize {
		return nil, fmt.Errorf("%w: response exceeds %d bytes", ErrBodyTooLarge, f.config.MaxBodySize)
	}

	pageURL, _ := url.Parse(urlStr)
	if resp.Request != nil && resp.Request.URL != nil {
		pageURL = resp.Request.URL
	}

	article := &Article{URL: urlStr}
	parsed, rerr := readability.FromReader(bytes.NewReader(body), pageURL)
	if rerr == nil {
		article.Title = strings.TrimSpace(parsed.Title)
		article.Byline = strings.TrimSpace(parsed.Byline)
		article.SiteName = strings.TrimSpace(parsed.SiteName)
		article.Text = normalizeWhitespace(parsed.TextContent)
	} else {
		slog.DebugContext(ctx, "readability extraction failed, trying selectors",
			slog.String("url", urlStr),
			slog.Any("error", rerr))
	}

	if len(article.Text) < f.config.MinReadableChars {
		sel, err := extractWithSelectors(bytes.NewReader(body))
		if err == nil && len(sel.Text) > len(article.Text) {
			article.Text = sel.Text
			if article.Title == "" {
				article.Title = sel.Title
			}
		}
	}

	if article.Text == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoContent, urlStr)
	}
	return article, nil
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
