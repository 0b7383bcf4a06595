// Package syncrun implements the sync_runs audit repository using
// PostgreSQL.
package syncrun

import (
	"context"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	postgres "github.com/heartmarshall/eecc-crawler/internal/adapter/postgres"
	"github.com/heartmarshall/eecc-crawler/internal/domain"
)

// Repo provides sync run persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new sync run repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

var columns = []string{
	"id", "source_url", "sheet_name", "status", "records_total",
	"species_upserted", "species_excluded", "species_marked_lost",
	"categories_inserted", "regions_inserted", "error", "started_at", "finished_at",
}

type row struct {
	ID                 uuid.UUID  `db:"id"`
	SourceURL          string     `db:"source_url"`
	SheetName          string     `db:"sheet_name"`
	Status             string     `db:"status"`
	RecordsTotal       int        `db:"records_total"`
	SpeciesUpserted    int        `db:"species_upserted"`
	SpeciesExcluded    int        `db:"species_excluded"`
	SpeciesMarkedLost  int        `db:"species_marked_lost"`
	CategoriesInserted int        `db:"categories_inserted"`
	RegionsInserted    int        `db:"regions_inserted"`
	Error              *string    `db:"error"`
	StartedAt          time.Time  `db:"started_at"`
	FinishedAt         *time.Time `db:"finished_at"`
}

func (r row) toDomain() domain.SyncRun {
	return domain.SyncRun{
		ID:                 r.ID,
		SourceURL:          r.SourceURL,
		SheetName:          r.SheetName,
		Status:             domain.SyncStatus(r.Status),
		RecordsTotal:       r.RecordsTotal,
		SpeciesUpserted:    r.SpeciesUpserted,
		SpeciesExcluded:    r.SpeciesExcluded,
		SpeciesMarkedLost:  r.SpeciesMarkedLost,
		CategoriesInserted: r.CategoriesInserted,
		RegionsInserted:    r.RegionsInserted,
		Error:              r.Error,
		StartedAt:          r.StartedAt,
		FinishedAt:         r.FinishedAt,
	}
}

// Start records a new running sync.
func (r *Repo) Start(ctx context.Context, run domain.SyncRun) error {
	sql, args, err := postgres.Builder().
		Insert("sync_runs").
		Columns("id", "source_url", "sheet_name", "status", "records_total", "started_at").
		Values(run.ID, run.SourceURL, run.SheetName, string(run.Status), run.RecordsTotal, run.StartedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build sync run insert: %w", err)
	}

	if _, err := postgres.QuerierFromCtx(ctx, r.db).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "sync run", run.ID.String())
	}
	return nil
}

// Finish stores the outcome and counters of a sync.
// Returns domain.ErrNotFound if the run was never started.
func (r *Repo) Finish(ctx context.Context, run domain.SyncRun) error {
	sql, args, err := postgres.Builder().
		Update("sync_runs").
		SetMap(map[string]any{
			"status":              string(run.Status),
			"species_upserted":    run.SpeciesUpserted,
			"species_excluded":    run.SpeciesExcluded,
			"species_marked_lost": run.SpeciesMarkedLost,
			"categories_inserted": run.CategoriesInserted,
			"regions_inserted":    run.RegionsInserted,
			"error":               run.Error,
			"finished_at":         run.FinishedAt,
		}).
		Where("id = ?", run.ID).
		ToSql()
	if err != nil {
		return fmt.Errorf("build sync run update: %w", err)
	}

	tag, err := postgres.QuerierFromCtx(ctx, r.db).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, "sync run", run.ID.String())
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("sync run %s: %w", run.ID, domain.ErrNotFound)
	}
	return nil
}

// Latest returns the most recently started sync.
// Returns domain.ErrNotFound when no sync has run yet.
func (r *Repo) Latest(ctx context.Context) (domain.SyncRun, error) {
	sql, args, err := postgres.Builder().
		Select(columns...).
		From("sync_runs").
		OrderBy("started_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return domain.SyncRun{}, fmt.Errorf("build sync run select: %w", err)
	}

	var rw row
	if err := pgxscan.Get(ctx, postgres.QuerierFromCtx(ctx, r.db), &rw, sql, args...); err != nil {
		return domain.SyncRun{}, postgres.MapError(err, "sync run", "latest")
	}
	return rw.toDomain(), nil
}
