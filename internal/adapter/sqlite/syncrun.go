package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/google/uuid"

	"github.com/heartmarshall/eecc-crawler/internal/domain"
)

// SyncRunRepo stores the sync audit trail.
type SyncRunRepo struct {
	store *Store
}

type syncRunRow struct {
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

// Start records a new running sync.
func (r *SyncRunRepo) Start(ctx context.Context, run domain.SyncRun) error {
	_, err := r.store.exec(ctx, sq.
		Insert("sync_runs").
		Columns("id", "source_url", "sheet_name", "status", "records_total", "started_at").
		Values(run.ID, run.SourceURL, run.SheetName, string(run.Status), run.RecordsTotal, run.StartedAt),
		"sync run", run.ID.String())
	return err
}

// Finish stores the outcome and counters of a sync.
func (r *SyncRunRepo) Finish(ctx context.Context, run domain.SyncRun) error {
	n, err := r.store.exec(ctx, sq.
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
		Where("id = ?", run.ID),
		"sync run", run.ID.String())
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("sync run %s: %w", run.ID, domain.ErrNotFound)
	}
	return nil
}

// Latest returns the most recently started sync.
func (r *SyncRunRepo) Latest(ctx context.Context) (domain.SyncRun, error) {
	q, args, err := sq.Select(
		"id", "source_url", "sheet_name", "status", "records_total",
		"species_upserted", "species_excluded", "species_marked_lost",
		"categories_inserted", "regions_inserted", "error", "started_at", "finished_at",
	).From("sync_runs").OrderBy("started_at DESC").Limit(1).ToSql()
	if err != nil {
		return domain.SyncRun{}, fmt.Errorf("build sync run select: %w", err)
	}

	var rw syncRunRow
	if err := sqlscan.Get(ctx, r.store.conn(ctx), &rw, q, args...); err != nil {
		return domain.SyncRun{}, mapError(err, "sync run", "latest")
	}
	return domain.SyncRun{
		ID:                 rw.ID,
		SourceURL:          rw.SourceURL,
		SheetName:          rw.SheetName,
		Status:             domain.SyncStatus(rw.Status),
		RecordsTotal:       rw.RecordsTotal,
		SpeciesUpserted:    rw.SpeciesUpserted,
		SpeciesExcluded:    rw.SpeciesExcluded,
		SpeciesMarkedLost:  rw.SpeciesMarkedLost,
		CategoriesInserted: rw.CategoriesInserted,
		RegionsInserted:    rw.RegionsInserted,
		Error:              rw.Error,
		StartedAt:          rw.StartedAt,
		FinishedAt:         rw.FinishedAt,
	}, nil
}
