package source

import (
	"context"
	"fmt"
	"log/slog"
)

// URLResolver yields the URL of the current spreadsheet.
type URLResolver interface {
	SpreadsheetURL(ctx context.Context) (string, error)
}

// RawFetcher downloads a resource as bytes.
type RawFetcher interface {
	Raw(ctx context.Context, url string) ([]byte, error)
}

// Spreadsheets downloads and decodes the published workbook.
type Spreadsheets struct {
	resolver URLResolver
	pages    RawFetcher
	log      *slog.Logger
}

// NewSpreadsheets creates a Spreadsheets fetcher.
func NewSpreadsheets(resolver URLResolver, pages RawFetcher, logger *slog.Logger) *Spreadsheets {
	return &Spreadsheets{
		resolver: resolver,
		pages:    pages,
		log:      logger.With("component", "spreadsheets"),
	}
}

// Fetch resolves the spreadsheet URL, downloads the file and decodes it.
func (s *Spreadsheets) Fetch(ctx context.Context) (*Workbook, error) {
	url, err := s.resolver.SpreadsheetURL(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve spreadsheet link: %w", err)
	}

	raw, err := s.pages.Raw(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("download spreadsheet: %w", err)
	}

	wb, err := Decode(url, raw)
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "spreadsheet decoded",
		slog.String("url", url),
		slog.Int("bytes", len(raw)),
		slog.Any("sheets", wb.SheetNames),
	)
	return wb, nil
}
