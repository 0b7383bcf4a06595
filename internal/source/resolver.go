// Package source locates and downloads the published species spreadsheet.
package source

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/heartmarshall/eecc-crawler/internal/config"
)

// DocumentFetcher loads a page as a queryable HTML document.
type DocumentFetcher interface {
	Document(ctx context.Context, url string) (*goquery.Document, error)
}

// Resolver finds the current spreadsheet URL on the authority's landing page.
type Resolver struct {
	pages      DocumentFetcher
	baseURL    string
	landingURL string
	selector   string
	log        *slog.Logger
}

// NewResolver creates a Resolver for the configured landing page and selector.
func NewResolver(pages DocumentFetcher, cfg config.SourceConfig, logger *slog.Logger) *Resolver {
	return &Resolver{
		pages:      pages,
		baseURL:    cfg.BaseURL,
		landingURL: cfg.LandingURL(),
		selector:   cfg.LinkSelector,
		log:        logger.With("component", "resolver"),
	}
}

// SpreadsheetURL loads the landing page, takes the href of the first element
// matching the selector and resolves it against the base URL.
// Fetch failures propagate unchanged; a missing or empty link yields a
// *MissingResourceError.
func (r *Resolver) SpreadsheetURL(ctx context.Context) (string, error) {
	doc, err := r.pages.Document(ctx, r.landingURL)
	if err != nil {
		return "", err
	}

	href, ok := doc.Find(r.selector).First().Attr("href")
	href = strings.TrimSpace(href)
	if !ok || href == "" {
		return "", &MissingResourceError{PageURL: r.landingURL, Selector: r.selector}
	}

	resolved, err := joinURL(r.baseURL, href)
	if err != nil {
		return "", fmt.Errorf("source: resolve href %q: %w", href, err)
	}

	r.log.InfoContext(ctx, "spreadsheet link resolved", slog.String("url", resolved))
	return resolved, nil
}

// joinURL appends href to base as a path segment. Absolute hrefs are
// returned as they are; query and fragment of href are kept.
func joinURL(base, href string) (string, error) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}

	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}

	// JoinPath expects escaped segments; a decoded path holding "%" would be
	// dropped and "%2F" would turn into a separator.
	joined := u.JoinPath(ref.EscapedPath())
	joined.RawQuery = ref.RawQuery
	joined.Fragment = ref.Fragment
	return joined.String(), nil
}
