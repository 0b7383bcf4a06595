// Package category implements the valid_categories repository using
// PostgreSQL.
package category

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	postgres "github.com/heartmarshall/eecc-crawler/internal/adapter/postgres"
	"github.com/heartmarshall/eecc-crawler/internal/domain"
)

// Repo provides category persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new category repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

// TryToInsert links a category code to a species. It reports false when the
// pair already exists.
func (r *Repo) TryToInsert(ctx context.Context, c domain.Category) (bool, error) {
	sql, args, err := postgres.Builder().
		Insert("valid_categories").
		Columns("species_hash", "short_name").
		Values(c.SpeciesHash, c.ShortName).
		Suffix("ON CONFLICT (species_hash, short_name) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build category insert: %w", err)
	}

	tag, err := postgres.QuerierFromCtx(ctx, r.db).Exec(ctx, sql, args...)
	if err != nil {
		return false, postgres.MapError(err, "category", c.ShortName)
	}
	return tag.RowsAffected() == 1, nil
}

// Remove unlinks one category code from a species.
func (r *Repo) Remove(ctx context.Context, speciesHash uuid.UUID, shortName string) (int64, error) {
	return r.delete(ctx, squirrel.Eq{"species_hash": speciesHash, "short_name": shortName})
}

// RemoveAll deletes every category.
func (r *Repo) RemoveAll(ctx context.Context) (int64, error) {
	return r.delete(ctx, nil)
}

func (r *Repo) delete(ctx context.Context, cond squirrel.Sqlizer) (int64, error) {
	del := postgres.Builder().Delete("valid_categories")
	if cond != nil {
		del = del.Where(cond)
	}

	sql, args, err := del.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build category delete: %w", err)
	}

	tag, err := postgres.QuerierFromCtx(ctx, r.db).Exec(ctx, sql, args...)
	if err != nil {
		return 0, postgres.MapError(err, "category", "delete")
	}
	return tag.RowsAffected(), nil
}

// ListBySpecies returns the category codes of a species in alphabetical
// order.
func (r *Repo) ListBySpecies(ctx context.Context, speciesHash uuid.UUID) ([]string, error) {
	sql, args, err := postgres.Builder().
		Select("short_name").
		From("valid_categories").
		Where(squirrel.Eq{"species_hash": speciesHash}).
		OrderBy("short_name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build category list: %w", err)
	}

	codes := []string{}
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.db), &codes, sql, args...); err != nil {
		return nil, postgres.MapError(err, "category", speciesHash.String())
	}
	return codes, nil
}
