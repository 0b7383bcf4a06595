package source

import (
	"bytes"
	"fmt"
	"net/url"
	"path"

	"github.com/xuri/excelize/v2"

	"github.com/heartmarshall/eecc-crawler/internal/domain"
)

// Workbook is a decoded spreadsheet: sheet names in workbook order and one
// cell grid per sheet. Raw keeps the downloaded bytes for archiving.
type Workbook struct {
	URL        string
	Raw        []byte
	SheetNames []string
	grids      map[string][][]string
}

// Decode reads an OOXML workbook. Rows in a grid may be ragged; trailing
// empty cells are not present.
func Decode(sourceURL string, raw []byte) (*Workbook, error) {
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("source: decode spreadsheet %s: %w: %w", sourceURL, domain.ErrValidation, err)
	}
	defer f.Close()

	names := f.GetSheetList()
	grids := make(map[string][][]string, len(names))
	for _, name := range names {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("source: read sheet %q: %w: %w", name, domain.ErrValidation, err)
		}
		grids[name] = rows
	}

	return &Workbook{
		URL:        sourceURL,
		Raw:        raw,
		SheetNames: names,
		grids:      grids,
	}, nil
}

// Sheet returns the name and grid of the sheet at index i.
func (w *Workbook) Sheet(i int) (string, [][]string, error) {
	if i < 0 || i >= len(w.SheetNames) {
		return "", nil, fmt.Errorf("source: sheet index %d of %d sheets: %w", i, len(w.SheetNames), domain.ErrResourceNotFound)
	}
	name := w.SheetNames[i]
	return name, w.grids[name], nil
}

// FileName returns the last path segment of the workbook URL.
func (w *Workbook) FileName() string {
	u, err := url.Parse(w.URL)
	if err != nil || u.Path == "" {
		return "spreadsheet.xlsx"
	}
	name := path.Base(u.Path)
	if name == "/" || name == "." {
		return "spreadsheet.xlsx"
	}
	return name
}
