package testhelper

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/eecc-crawler/internal/domain"
)

// Reset empties every table. Tests that call it must not run in parallel
// with other tests of the same package.
func Reset(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	_, err := pool.Exec(context.Background(),
		`TRUNCATE species, valid_categories, regions, sync_runs`)
	if err != nil {
		t.Fatalf("testhelper: Reset: %v", err)
	}
}

// SeedSpecies inserts an active species with the given scientific name.
func SeedSpecies(t *testing.T, pool *pgxpool.Pool, name string) domain.Species {
	t.Helper()

	s, err := domain.NewSpecies(domain.SpeciesFields{
		ScientificName: name,
		Kingdom:        "Animalia",
	})
	if err != nil {
		t.Fatalf("testhelper: SeedSpecies: %v", err)
	}

	_, err = pool.Exec(context.Background(),
		`INSERT INTO species (hash, scientific_name, kingdom, state, synced_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		s.Hash, s.ScientificName, s.Kingdom, string(s.State), s.SyncedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedSpecies insert: %v", err)
	}
	return s
}

// SpeciesState returns the stored state of a species, failing the test if
// the row does not exist.
func SpeciesState(t *testing.T, pool *pgxpool.Pool, name string) domain.SpeciesState {
	t.Helper()

	var state string
	err := pool.QueryRow(context.Background(),
		`SELECT state FROM species WHERE scientific_name = $1`, name,
	).Scan(&state)
	if err != nil {
		t.Fatalf("testhelper: SpeciesState %q: %v", name, err)
	}
	return domain.SpeciesState(state)
}
