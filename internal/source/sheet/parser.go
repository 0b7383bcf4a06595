// Package sheet turns the species sheet of the published workbook into
// domain records.
package sheet

import (
	"fmt"
	"strings"

	"github.com/heartmarshall/eecc-crawler/internal/domain"
)

// headerScanRows bounds how far down the sheet the header row is searched.
const headerScanRows = 20

type role int

const (
	roleRegion role = iota
	roleScientificName
	roleCommonName
	roleKingdom
	roleFamily
	roleCategory
	roleProcess
	roleDecree
)

// aliases are folded header texts, see domain.FoldText.
var aliases = []struct {
	role  role
	names []string
}{
	{roleScientificName, []string{"nombre cientifico", "especie", "scientific name"}},
	{roleCommonName, []string{"nombre comun", "nombres comunes", "common name"}},
	{roleKingdom, []string{"reino", "kingdom"}},
	{roleFamily, []string{"familia", "family"}},
	{roleCategory, []string{"categoria", "categoria de conservacion", "estado de conservacion", "category"}},
	{roleProcess, []string{"proceso", "proceso de clasificacion", "proceso rce"}},
	{roleDecree, []string{"decreto", "ds", "decree"}},
}

func roleOf(header string) role {
	folded := domain.FoldText(header)
	for _, a := range aliases {
		for _, name := range a.names {
			if folded == name || strings.HasPrefix(folded, name+" ") {
				return a.role
			}
		}
	}
	return roleRegion
}

type column struct {
	index int
	role  role
	name  string
}

type layout struct {
	headerRow int
	fields    map[role]int
	regions   []column
}

// Parse reads records from a sheet grid in row order. Rows without a
// scientific name are skipped. A grid with no recognizable header row
// yields an error matching domain.ErrResourceNotFound.
func Parse(grid [][]string) ([]domain.Record, error) {
	l, err := findLayout(grid)
	if err != nil {
		return nil, err
	}

	records := make([]domain.Record, 0, len(grid)-l.headerRow-1)
	for _, row := range grid[l.headerRow+1:] {
		name := domain.NormalizeName(cell(row, l.fields[roleScientificName]))
		if name == "" {
			continue
		}

		rec := domain.Record{
			Species: domain.SpeciesFields{
				ScientificName:        name,
				CommonName:            l.field(row, roleCommonName),
				Kingdom:               l.field(row, roleKingdom),
				Family:                l.field(row, roleFamily),
				ClassificationProcess: l.field(row, roleProcess),
				Decree:                l.field(row, roleDecree),
			},
			Categories: SplitCategories(l.field(row, roleCategory)),
		}

		for _, col := range l.regions {
			value := domain.NormalizeName(cell(row, col.index))
			if value == "" {
				continue
			}
			rec.Regions = append(rec.Regions, domain.RegionValue{Name: col.name, Value: value})
		}

		records = append(records, rec)
	}
	return records, nil
}

func findLayout(grid [][]string) (layout, error) {
	for i := 0; i < len(grid) && i < headerScanRows; i++ {
		l := layout{headerRow: i, fields: make(map[role]int)}
		for j, header := range grid[i] {
			header = domain.NormalizeName(header)
			if header == "" {
				continue
			}
			r := roleOf(header)
			if r == roleRegion {
				l.regions = append(l.regions, column{index: j, role: r, name: header})
				continue
			}
			if _, seen := l.fields[r]; !seen {
				l.fields[r] = j
			}
		}
		if _, ok := l.fields[roleScientificName]; ok {
			return l, nil
		}
	}
	return layout{}, fmt.Errorf("sheet: no header row with a scientific name column: %w", domain.ErrResourceNotFound)
}

func (l layout) field(row []string, r role) string {
	j, ok := l.fields[r]
	if !ok {
		return ""
	}
	return domain.NormalizeName(cell(row, j))
}

func cell(row []string, j int) string {
	if j < len(row) {
		return row[j]
	}
	return ""
}

// SplitCategories splits a category cell on slashes, commas, semicolons and
// line breaks into upper-cased codes. Empty pieces are dropped; repeated
// codes are kept.
func SplitCategories(raw string) []string {
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		switch r {
		case '/', ',', ';', '\n', '\r':
			return true
		}
		return false
	})

	codes := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToUpper(domain.NormalizeName(p))
		if p != "" {
			codes = append(codes, p)
		}
	}
	return codes
}
