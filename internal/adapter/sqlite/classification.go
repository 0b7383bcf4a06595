package sqlite

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/google/uuid"

	"github.com/heartmarshall/eecc-crawler/internal/domain"
)

// CategoryRepo stores species categories.
type CategoryRepo struct {
	store *Store
}

// TryToInsert links a category code to a species. It reports false when the
// pair already exists.
func (r *CategoryRepo) TryToInsert(ctx context.Context, c domain.Category) (bool, error) {
	n, err := r.store.exec(ctx, sq.
		Insert("valid_categories").
		Columns("species_hash", "short_name").
		Values(c.SpeciesHash, c.ShortName).
		Suffix("ON CONFLICT (species_hash, short_name) DO NOTHING"),
		"category", c.ShortName)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Remove unlinks one category code from a species.
func (r *CategoryRepo) Remove(ctx context.Context, speciesHash uuid.UUID, shortName string) (int64, error) {
	return r.store.exec(ctx, sq.
		Delete("valid_categories").
		Where(squirrel.Eq{"species_hash": speciesHash, "short_name": shortName}),
		"category", shortName)
}

// RemoveAll deletes every category.
func (r *CategoryRepo) RemoveAll(ctx context.Context) (int64, error) {
	return r.store.exec(ctx, sq.Delete("valid_categories"), "category", "delete")
}

// ListBySpecies returns the category codes of a species in alphabetical
// order.
func (r *CategoryRepo) ListBySpecies(ctx context.Context, speciesHash uuid.UUID) ([]string, error) {
	q, args, err := sq.Select("short_name").
		From("valid_categories").
		Where(squirrel.Eq{"species_hash": speciesHash}).
		OrderBy("short_name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build category list: %w", err)
	}

	codes := []string{}
	if err := sqlscan.Select(ctx, r.store.conn(ctx), &codes, q, args...); err != nil {
		return nil, mapError(err, "category", speciesHash.String())
	}
	return codes, nil
}

// RegionRepo stores species regions.
type RegionRepo struct {
	store *Store
}

type regionRow struct {
	SpeciesHash uuid.UUID `db:"species_hash"`
	RegionName  string    `db:"region_name"`
	Value       string    `db:"value"`
}

// Insert stores one region value of a species.
func (r *RegionRepo) Insert(ctx context.Context, reg domain.Region) error {
	_, err := r.store.exec(ctx, sq.
		Insert("regions").
		Columns("species_hash", "region_name", "value").
		Values(reg.SpeciesHash, reg.RegionName, reg.Value),
		"region", reg.RegionName)
	return err
}

// RemoveAll deletes every region.
func (r *RegionRepo) RemoveAll(ctx context.Context) (int64, error) {
	return r.store.exec(ctx, sq.Delete("regions"), "region", "delete")
}

// ListBySpecies returns the regions of a species in insertion order. The sync
// never reads regions back; this is the read path for store tests and ad hoc
// inspection.
func (r *RegionRepo) ListBySpecies(ctx context.Context, speciesHash uuid.UUID) ([]domain.Region, error) {
	q, args, err := sq.Select("species_hash", "region_name", "value").
		From("regions").
		Where(squirrel.Eq{"species_hash": speciesHash}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build region list: %w", err)
	}

	var rows []regionRow
	if err := sqlscan.Select(ctx, r.store.conn(ctx), &rows, q, args...); err != nil {
		return nil, mapError(err, "region", speciesHash.String())
	}

	result := make([]domain.Region, len(rows))
	for i, rw := range rows {
		result[i] = domain.Region{SpeciesHash: rw.SpeciesHash, RegionName: rw.RegionName, Value: rw.Value}
	}
	return result, nil
}
