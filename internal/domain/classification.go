package domain

import (
	"strings"

	"github.com/google/uuid"
)

// Category is a conservation-status code (e.g. "VU", "EN") attached to a
// species. Categories are rebuilt from scratch on every sync.
type Category struct {
	SpeciesHash uuid.UUID
	ShortName   string
}

// NewCategory validates and normalizes a category code.
func NewCategory(shortName string, speciesHash uuid.UUID) (Category, error) {
	code := strings.ToUpper(NormalizeName(shortName))
	if code == "" {
		return Category{}, NewValidationError("short_name", "required")
	}
	if speciesHash == uuid.Nil {
		return Category{}, NewValidationError("species_hash", "required")
	}
	return Category{SpeciesHash: speciesHash, ShortName: code}, nil
}

// Region is a regional distribution value of a species. Regions are rebuilt
// from scratch on every sync.
type Region struct {
	SpeciesHash uuid.UUID
	RegionName  string
	Value       string
}

// NewRegion validates a region entry. The value is kept verbatim apart from
// whitespace normalization; the sheet mixes numbers and marks.
func NewRegion(name, value string, speciesHash uuid.UUID) (Region, error) {
	var errs []FieldError
	regionName := NormalizeName(name)
	if regionName == "" {
		errs = append(errs, FieldError{Field: "region_name", Message: "required"})
	}
	if speciesHash == uuid.Nil {
		errs = append(errs, FieldError{Field: "species_hash", Message: "required"})
	}
	if len(errs) > 0 {
		return Region{}, NewValidationErrors(errs)
	}
	return Region{SpeciesHash: speciesHash, RegionName: regionName, Value: NormalizeName(value)}, nil
}
