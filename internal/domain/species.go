package domain

import (
	"time"

	"github.com/google/uuid"
)

// speciesNamespace seeds the UUIDv5 species hash. Changing it changes every
// hash in the registry.
var speciesNamespace = uuid.MustParse("6f1c2a4e-8d0b-5c3a-9e7f-2b4d6a8c0e13")

// HashSpecies returns the stable identifier of a species, derived from its
// normalized scientific name.
func HashSpecies(scientificName string) uuid.UUID {
	return uuid.NewSHA1(speciesNamespace, []byte(NormalizeName(scientificName)))
}

// SpeciesFields are the descriptive columns read from the species sheet.
type SpeciesFields struct {
	ScientificName        string
	CommonName            string
	Kingdom               string
	Family                string
	ClassificationProcess string
	Decree                string
}

// Species is a registry row. Build it with NewSpecies; the zero value is not
// a valid species.
type Species struct {
	Hash                  uuid.UUID
	ScientificName        string
	CommonName            string
	Kingdom               string
	Family                string
	ClassificationProcess string
	Decree                string
	State                 SpeciesState
	SyncedAt              time.Time
}

// NewSpecies validates the fields and returns an active species stamped with
// the current time. Whitespace in every field is normalized.
func NewSpecies(f SpeciesFields) (Species, error) {
	name := NormalizeName(f.ScientificName)
	if name == "" {
		return Species{}, NewValidationError("scientific_name", "required")
	}

	return Species{
		Hash:                  HashSpecies(name),
		ScientificName:        name,
		CommonName:            NormalizeName(f.CommonName),
		Kingdom:               NormalizeName(f.Kingdom),
		Family:                NormalizeName(f.Family),
		ClassificationProcess: NormalizeName(f.ClassificationProcess),
		Decree:                NormalizeName(f.Decree),
		State:                 SpeciesStateActive,
		SyncedAt:              time.Now().UTC(),
	}, nil
}

// SpeciesPatch lists the columns to overwrite in a bulk update.
// Nil fields are left untouched.
type SpeciesPatch struct {
	State *SpeciesState
}

// IsEmpty reports whether the patch changes nothing.
func (p SpeciesPatch) IsEmpty() bool {
	return p.State == nil
}

// SpeciesFilter narrows a bulk update or listing. The zero value matches
// every species.
type SpeciesFilter struct {
	Names []string
	State *SpeciesState
}

// StatePtr returns a pointer to s, for patches and filters.
func StatePtr(s SpeciesState) *SpeciesState {
	return &s
}
