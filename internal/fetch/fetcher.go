// Package fetch retrieves pages over HTTP, either parsed into a queryable
// HTML document or as raw bytes, with a bounded retry policy.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sethvargo/go-retry"

	"github.com/heartmarshall/eecc-crawler/internal/config"
)

const maxBodySize = 64 << 20

// Fetcher performs HTTP GETs with a fixed timeout.
type Fetcher struct {
	client    *http.Client
	userAgent string
	policy    RetryPolicy
	log       *slog.Logger
}

// NewFetcher creates a Fetcher from the fetch configuration.
func NewFetcher(cfg config.FetchConfig, logger *slog.Logger) *Fetcher {
	log := logger.With("component", "fetch")
	return &Fetcher{
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: newLoggingTransport(http.DefaultTransport, log),
		},
		userAgent: cfg.UserAgent,
		policy: RetryPolicy{
			MaxAttempts: cfg.MaxAttempts,
			Backoff:     cfg.Backoff,
			MaxBackoff:  cfg.MaxBackoff,
		},
		log: log,
	}
}

// Document fetches url and parses the body as HTML.
func (f *Fetcher) Document(ctx context.Context, url string) (*goquery.Document, error) {
	body, err := f.get(ctx, url)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("fetch: parse %s: %w", url, err)
	}
	return doc, nil
}

// Raw fetches url and returns the response body unchanged.
func (f *Fetcher) Raw(ctx context.Context, url string) ([]byte, error) {
	return f.get(ctx, url)
}

// get runs attempt under the retry policy. On final failure the error is
// logged and returned unchanged.
func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	var (
		body    []byte
		attempt int
	)

	err := retry.Do(ctx, f.policy.backoff(), func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			f.log.WarnContext(ctx, "retrying fetch", slog.String("url", url), slog.Int("attempt", attempt))
		}

		b, err := f.attempt(ctx, url)
		if err != nil {
			var nErr *NetworkError
			if errors.As(err, &nErr) && nErr.Retryable() {
				return retry.RetryableError(err)
			}
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		f.log.ErrorContext(ctx, "fetch failed",
			slog.String("url", url),
			slog.Int("attempts", attempt),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	return body, nil
}

func (f *Fetcher) attempt(ctx context.Context, url string) ([]byte, error) {
	f.log.InfoContext(ctx, "processing page", slog.String("url", url))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: create request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		// Caller cancellation is not a network failure.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &NetworkError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &NetworkError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &NetworkError{URL: url, Err: fmt.Errorf("read body: %w", err)}
	}

	f.log.DebugContext(ctx, "page fetched",
		slog.String("url", url),
		slog.Int("status", resp.StatusCode),
		slog.Int("bytes", len(body)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return body, nil
}
