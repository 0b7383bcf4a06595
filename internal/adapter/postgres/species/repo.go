// Package species implements the species repository using PostgreSQL.
package species

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	postgres "github.com/heartmarshall/eecc-crawler/internal/adapter/postgres"
	"github.com/heartmarshall/eecc-crawler/internal/domain"
)

// Repo provides species persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new species repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

const upsertSQL = `
INSERT INTO species (
    hash, scientific_name, common_name, kingdom, family,
    classification_process, decree, state, synced_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, 'active', $8)
ON CONFLICT (scientific_name) DO UPDATE SET
    common_name            = EXCLUDED.common_name,
    kingdom                = EXCLUDED.kingdom,
    family                 = EXCLUDED.family,
    classification_process = EXCLUDED.classification_process,
    decree                 = EXCLUDED.decree,
    state                  = 'active',
    synced_at              = EXCLUDED.synced_at
RETURNING hash`

var columns = []string{
	"hash", "scientific_name", "common_name", "kingdom", "family",
	"classification_process", "decree", "state", "synced_at",
}

type row struct {
	Hash                  uuid.UUID `db:"hash"`
	ScientificName        string    `db:"scientific_name"`
	CommonName            string    `db:"common_name"`
	Kingdom               string    `db:"kingdom"`
	Family                string    `db:"family"`
	ClassificationProcess string    `db:"classification_process"`
	Decree                string    `db:"decree"`
	State                 string    `db:"state"`
	SyncedAt              time.Time `db:"synced_at"`
}

func (r row) toDomain() domain.Species {
	return domain.Species{
		Hash:                  r.Hash,
		ScientificName:        r.ScientificName,
		CommonName:            r.CommonName,
		Kingdom:               r.Kingdom,
		Family:                r.Family,
		ClassificationProcess: r.ClassificationProcess,
		Decree:                r.Decree,
		State:                 domain.SpeciesState(r.State),
		SyncedAt:              r.SyncedAt,
	}
}

// Upsert inserts the species or refreshes the row with the same scientific
// name, marking it active. Returns the stored hash.
func (r *Repo) Upsert(ctx context.Context, s domain.Species) (uuid.UUID, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	var hash uuid.UUID
	err := q.QueryRow(ctx, upsertSQL,
		s.Hash, s.ScientificName, s.CommonName, s.Kingdom, s.Family,
		s.ClassificationProcess, s.Decree, s.SyncedAt,
	).Scan(&hash)
	if err != nil {
		return uuid.Nil, postgres.MapError(err, "species", s.ScientificName)
	}
	return hash, nil
}

// Update applies patch to every species matching filter and returns the
// number of affected rows. An empty patch is a no-op.
func (r *Repo) Update(ctx context.Context, patch domain.SpeciesPatch, filter domain.SpeciesFilter) (int64, error) {
	if patch.IsEmpty() {
		return 0, nil
	}

	update := postgres.Builder().Update("species")
	if patch.State != nil {
		update = update.Set("state", string(*patch.State))
	}
	for _, cond := range where(filter) {
		update = update.Where(cond)
	}

	sql, args, err := update.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build species update: %w", err)
	}

	tag, err := postgres.QuerierFromCtx(ctx, r.db).Exec(ctx, sql, args...)
	if err != nil {
		return 0, postgres.MapError(err, "species", "update")
	}
	return tag.RowsAffected(), nil
}

// List returns the species matching filter ordered by scientific name.
// Returns an empty slice (not nil) when nothing matches.
func (r *Repo) List(ctx context.Context, filter domain.SpeciesFilter) ([]domain.Species, error) {
	query := postgres.Builder().
		Select(columns...).
		From("species").
		OrderBy("scientific_name ASC")
	for _, cond := range where(filter) {
		query = query.Where(cond)
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build species list: %w", err)
	}

	var rows []row
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.db), &rows, sql, args...); err != nil {
		return nil, postgres.MapError(err, "species", "list")
	}

	result := make([]domain.Species, len(rows))
	for i, rw := range rows {
		result[i] = rw.toDomain()
	}
	return result, nil
}

func where(filter domain.SpeciesFilter) []squirrel.Sqlizer {
	var conds []squirrel.Sqlizer
	if len(filter.Names) > 0 {
		conds = append(conds, squirrel.Eq{"scientific_name": filter.Names})
	}
	if filter.State != nil {
		conds = append(conds, squirrel.Eq{"state": string(*filter.State)})
	}
	return conds
}
