// Package region implements the regions repository using PostgreSQL.
package region

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	postgres "github.com/heartmarshall/eecc-crawler/internal/adapter/postgres"
	"github.com/heartmarshall/eecc-crawler/internal/domain"
)

// Repo provides region persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new region repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

type row struct {
	SpeciesHash uuid.UUID `db:"species_hash"`
	RegionName  string    `db:"region_name"`
	Value       string    `db:"value"`
}

// Insert stores one region value of a species.
func (r *Repo) Insert(ctx context.Context, reg domain.Region) error {
	sql, args, err := postgres.Builder().
		Insert("regions").
		Columns("species_hash", "region_name", "value").
		Values(reg.SpeciesHash, reg.RegionName, reg.Value).
		ToSql()
	if err != nil {
		return fmt.Errorf("build region insert: %w", err)
	}

	if _, err := postgres.QuerierFromCtx(ctx, r.db).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "region", reg.RegionName)
	}
	return nil
}

// RemoveAll deletes every region.
func (r *Repo) RemoveAll(ctx context.Context) (int64, error) {
	tag, err := postgres.QuerierFromCtx(ctx, r.db).Exec(ctx, `DELETE FROM regions`)
	if err != nil {
		return 0, postgres.MapError(err, "region", "delete")
	}
	return tag.RowsAffected(), nil
}

// ListBySpecies returns the regions of a species in insertion order. The sync
// never reads regions back; this is the read path for store tests and ad hoc
// inspection.
func (r *Repo) ListBySpecies(ctx context.Context, speciesHash uuid.UUID) ([]domain.Region, error) {
	sql, args, err := postgres.Builder().
		Select("species_hash", "region_name", "value").
		From("regions").
		Where(squirrel.Eq{"species_hash": speciesHash}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build region list: %w", err)
	}

	var rows []row
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.db), &rows, sql, args...); err != nil {
		return nil, postgres.MapError(err, "region", speciesHash.String())
	}

	result := make([]domain.Region, len(rows))
	for i, rw := range rows {
		result[i] = domain.Region{SpeciesHash: rw.SpeciesHash, RegionName: rw.RegionName, Value: rw.Value}
	}
	return result, nil
}
