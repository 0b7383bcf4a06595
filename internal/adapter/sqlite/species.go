package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/google/uuid"

	"github.com/heartmarshall/eecc-crawler/internal/domain"
)

// SpeciesRepo stores species rows.
type SpeciesRepo struct {
	store *Store
}

const upsertSpeciesSQL = `
INSERT INTO species (
    hash, scientific_name, common_name, kingdom, family,
    classification_process, decree, state, synced_at
) VALUES (?, ?, ?, ?, ?, ?, ?, 'active', ?)
ON CONFLICT (scientific_name) DO UPDATE SET
    common_name            = excluded.common_name,
    kingdom                = excluded.kingdom,
    family                 = excluded.family,
    classification_process = excluded.classification_process,
    decree                 = excluded.decree,
    state                  = 'active',
    synced_at              = excluded.synced_at
RETURNING hash`

type speciesRow struct {
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

// Upsert inserts the species or refreshes the row with the same scientific
// name, marking it active. Returns the stored hash.
func (r *SpeciesRepo) Upsert(ctx context.Context, s domain.Species) (uuid.UUID, error) {
	var hash uuid.UUID
	err := r.store.conn(ctx).QueryRowContext(ctx, upsertSpeciesSQL,
		s.Hash, s.ScientificName, s.CommonName, s.Kingdom, s.Family,
		s.ClassificationProcess, s.Decree, s.SyncedAt,
	).Scan(&hash)
	if err != nil {
		return uuid.Nil, mapError(err, "species", s.ScientificName)
	}
	return hash, nil
}

// Update applies patch to every species matching filter.
func (r *SpeciesRepo) Update(ctx context.Context, patch domain.SpeciesPatch, filter domain.SpeciesFilter) (int64, error) {
	if patch.IsEmpty() {
		return 0, nil
	}
	update := sq.Update("species")
	if patch.State != nil {
		update = update.Set("state", string(*patch.State))
	}
	for _, cond := range speciesWhere(filter) {
		update = update.Where(cond)
	}
	return r.store.exec(ctx, update, "species", "update")
}

// List returns the species matching filter ordered by scientific name.
func (r *SpeciesRepo) List(ctx context.Context, filter domain.SpeciesFilter) ([]domain.Species, error) {
	query := sq.Select(
		"hash", "scientific_name", "common_name", "kingdom", "family",
		"classification_process", "decree", "state", "synced_at",
	).From("species").OrderBy("scientific_name ASC")
	for _, cond := range speciesWhere(filter) {
		query = query.Where(cond)
	}

	q, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build species list: %w", err)
	}

	var rows []speciesRow
	if err := sqlscan.Select(ctx, r.store.conn(ctx), &rows, q, args...); err != nil {
		return nil, mapError(err, "species", "list")
	}

	result := make([]domain.Species, len(rows))
	for i, rw := range rows {
		result[i] = domain.Species{
			Hash:                  rw.Hash,
			ScientificName:        rw.ScientificName,
			CommonName:            rw.CommonName,
			Kingdom:               rw.Kingdom,
			Family:                rw.Family,
			ClassificationProcess: rw.ClassificationProcess,
			Decree:                rw.Decree,
			State:                 domain.SpeciesState(rw.State),
			SyncedAt:              rw.SyncedAt,
		}
	}
	return result, nil
}

func speciesWhere(filter domain.SpeciesFilter) []squirrel.Sqlizer {
	var conds []squirrel.Sqlizer
	if len(filter.Names) > 0 {
		conds = append(conds, squirrel.Eq{"scientific_name": filter.Names})
	}
	if filter.State != nil {
		conds = append(conds, squirrel.Eq{"state": string(*filter.State)})
	}
	return conds
}
