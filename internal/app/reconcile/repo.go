// Package reconcile replays parsed spreadsheet records against the species
// store.
package reconcile

import (
	"context"

	"github.com/google/uuid"

	"github.com/heartmarshall/eecc-crawler/internal/domain"
)

// SpeciesRepo is the species store contract consumed by the reconciler.
// Implemented by species.Repo and sqlite.Store.
type SpeciesRepo interface {
	// Upsert inserts or updates by scientific name, marks the row active and
	// returns its hash.
	Upsert(ctx context.Context, s domain.Species) (uuid.UUID, error)
	// Update applies patch to every row matching filter; an empty filter
	// matches all rows.
	Update(ctx context.Context, patch domain.SpeciesPatch, filter domain.SpeciesFilter) (int64, error)
}

// CategoryRepo is the category store contract consumed by the reconciler.
type CategoryRepo interface {
	// TryToInsert reports false, or an error matching domain.ErrAlreadyExists,
	// when the species already carries the code.
	TryToInsert(ctx context.Context, c domain.Category) (bool, error)
	RemoveAll(ctx context.Context) (int64, error)
}

// RegionRepo is the region store contract consumed by the reconciler.
type RegionRepo interface {
	Insert(ctx context.Context, r domain.Region) error
	RemoveAll(ctx context.Context) (int64, error)
}

// Excluder decides which scientific names must never be stored.
type Excluder interface {
	MustBeRemoved(scientificName string) bool
}

// CorrectionsRunner applies manual overrides after a successful replay.
type CorrectionsRunner interface {
	RunCorrections(ctx context.Context) error
}

// Stores groups the repositories the reconciler writes to.
type Stores struct {
	Species    SpeciesRepo
	Categories CategoryRepo
	Regions    RegionRepo
}
