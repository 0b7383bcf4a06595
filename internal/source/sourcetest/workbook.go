// Package sourcetest builds spreadsheet fixtures for tests.
package sourcetest

import (
	"fmt"
	"testing"

	"github.com/xuri/excelize/v2"
)

// Sheet is one named sheet of a fixture workbook.
type Sheet struct {
	Name string
	Rows [][]any
}

// BuildWorkbook renders sheets, in order, into an .xlsx file.
func BuildWorkbook(t testing.TB, sheets ...Sheet) []byte {
	t.Helper()

	if len(sheets) == 0 {
		t.Fatal("sourcetest: at least one sheet is required")
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, sh := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sh.Name); err != nil {
				t.Fatalf("sourcetest: rename sheet: %v", err)
			}
		} else if _, err := f.NewSheet(sh.Name); err != nil {
			t.Fatalf("sourcetest: new sheet %q: %v", sh.Name, err)
		}

		for r, row := range sh.Rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				t.Fatalf("sourcetest: cell name: %v", err)
			}
			values := row
			if err := f.SetSheetRow(sh.Name, cell, &values); err != nil {
				t.Fatalf("sourcetest: write row %d of %q: %v", r+1, sh.Name, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("sourcetest: write workbook: %v", err)
	}
	return buf.Bytes()
}

// SpeciesHeader is the header row of the published species sheet.
var SpeciesHeader = []any{
	"Nombre Científico", "Nombre Común", "Reino", "Familia",
	"Categoría", "Proceso de Clasificación", "Decreto",
	"Norte", "Centro", "Sur",
}

// SpeciesSheet returns a species sheet with the standard header and rows.
func SpeciesSheet(name string, rows ...[]any) Sheet {
	all := make([][]any, 0, len(rows)+1)
	all = append(all, SpeciesHeader)
	all = append(all, rows...)
	return Sheet{Name: name, Rows: all}
}

// TwoSheetWorkbook renders a cover sheet followed by a species sheet at index 1.
func TwoSheetWorkbook(t testing.TB, rows ...[]any) []byte {
	t.Helper()
	return BuildWorkbook(t,
		Sheet{Name: "Portada", Rows: [][]any{{"Listado de especies"}, {fmt.Sprintf("%d filas", len(rows))}}},
		SpeciesSheet("Especies", rows...),
	)
}
