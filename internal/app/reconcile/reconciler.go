package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/eecc-crawler/internal/domain"
)

// Limits bounds in-flight store writes at each fan-out site.
type Limits struct {
	Records    int
	Categories int
	Regions    int
}

// DefaultLimits returns 3 records, 1 category and 5 regions in flight.
func DefaultLimits() Limits {
	return Limits{Records: 3, Categories: 1, Regions: 5}
}

func (l Limits) normalized() Limits {
	d := DefaultLimits()
	if l.Records < 1 {
		l.Records = d.Records
	}
	if l.Categories < 1 {
		l.Categories = d.Categories
	}
	if l.Regions < 1 {
		l.Regions = d.Regions
	}
	return l
}

// Result summarizes one reconciliation.
type Result struct {
	Records            int
	CategoriesRemoved  int
	RegionsRemoved     int
	SpeciesMarkedLost  int
	Upserted           int
	Excluded           int
	CategoriesInserted int
	CategoryConflicts  int
	RegionsInserted    int
	Duration           time.Duration
}

type tally struct {
	upserted           atomic.Int64
	excluded           atomic.Int64
	categoriesInserted atomic.Int64
	categoryConflicts  atomic.Int64
	regionsInserted    atomic.Int64
}

// Reconciler rebuilds the store from a full set of records.
type Reconciler struct {
	log         *slog.Logger
	stores      Stores
	excluder    Excluder
	corrections CorrectionsRunner
	limits      Limits
}

// NewReconciler creates a Reconciler. A nil excluder keeps every record; a
// nil corrections runner skips the final phase.
func NewReconciler(log *slog.Logger, stores Stores, excluder Excluder, corrections CorrectionsRunner, limits Limits) *Reconciler {
	return &Reconciler{
		log:         log.With("component", "reconcile"),
		stores:      stores,
		excluder:    excluder,
		corrections: corrections,
		limits:      limits.normalized(),
	}
}

// Run executes the five phases in order, each completing before the next:
// remove all categories, remove all regions, mark every species lost, replay
// records, run corrections. The first unrecoverable error aborts the run and
// nothing already written is rolled back.
func (r *Reconciler) Run(ctx context.Context, records []domain.Record) (Result, error) {
	start := time.Now()
	res := Result{Records: len(records)}

	err := r.phase(ctx, "remove categories", func(ctx context.Context) error {
		n, err := r.stores.Categories.RemoveAll(ctx)
		res.CategoriesRemoved = int(n)
		return err
	})
	if err != nil {
		return res, err
	}

	err = r.phase(ctx, "remove regions", func(ctx context.Context) error {
		n, err := r.stores.Regions.RemoveAll(ctx)
		res.RegionsRemoved = int(n)
		return err
	})
	if err != nil {
		return res, err
	}

	err = r.phase(ctx, "mark species lost", func(ctx context.Context) error {
		n, err := r.stores.Species.Update(ctx,
			domain.SpeciesPatch{State: domain.StatePtr(domain.SpeciesStateLost)},
			domain.SpeciesFilter{},
		)
		res.SpeciesMarkedLost = int(n)
		return err
	})
	if err != nil {
		return res, err
	}

	var t tally
	err = r.phase(ctx, "replay records", func(ctx context.Context) error {
		return r.replay(ctx, records, &t)
	})
	res.Upserted = int(t.upserted.Load())
	res.Excluded = int(t.excluded.Load())
	res.CategoriesInserted = int(t.categoriesInserted.Load())
	res.CategoryConflicts = int(t.categoryConflicts.Load())
	res.RegionsInserted = int(t.regionsInserted.Load())
	if err != nil {
		res.Duration = time.Since(start)
		return res, err
	}

	if r.corrections != nil {
		err = r.phase(ctx, "run corrections", r.corrections.RunCorrections)
		if err != nil {
			res.Duration = time.Since(start)
			return res, err
		}
	}

	res.Duration = time.Since(start)
	r.log.InfoContext(ctx, "reconciliation completed",
		slog.Int("records", res.Records),
		slog.Int("upserted", res.Upserted),
		slog.Int("excluded", res.Excluded),
		slog.Int("marked_lost", res.SpeciesMarkedLost),
		slog.Int("categories_inserted", res.CategoriesInserted),
		slog.Int("category_conflicts", res.CategoryConflicts),
		slog.Int("regions_inserted", res.RegionsInserted),
		slog.Duration("duration", res.Duration),
	)
	return res, nil
}

func (r *Reconciler) phase(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	start := time.Now()
	r.log.InfoContext(ctx, "starting phase", slog.String("phase", name))

	if err := fn(ctx); err != nil {
		r.log.ErrorContext(ctx, "phase failed",
			slog.String("phase", name),
			slog.String("error", err.Error()),
			slog.Duration("duration", time.Since(start)),
		)
		return fmt.Errorf("%s: %w", name, err)
	}

	r.log.InfoContext(ctx, "phase completed",
		slog.String("phase", name),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

// replay dispatches records in row order with at most limits.Records in
// flight. Dispatch stops at the first failure.
func (r *Reconciler) replay(ctx context.Context, records []domain.Record, t *tally) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.limits.Records)

	for i, rec := range records {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := r.replayRecord(gctx, rec, t); err != nil {
				return fmt.Errorf("record %d (%q): %w", i+1, rec.Species.ScientificName, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (r *Reconciler) replayRecord(ctx context.Context, rec domain.Record, t *tally) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	sp, err := domain.NewSpecies(rec.Species)
	if err != nil {
		return err
	}

	if r.excluder != nil && r.excluder.MustBeRemoved(sp.ScientificName) {
		t.excluded.Add(1)
		r.log.DebugContext(ctx, "species excluded", slog.String("name", sp.ScientificName))
		return nil
	}

	hash, err := r.stores.Species.Upsert(ctx, sp)
	if err != nil {
		return fmt.Errorf("upsert species: %w", err)
	}
	t.upserted.Add(1)

	if err := r.insertCategories(ctx, hash, rec.Categories, t); err != nil {
		return err
	}
	return r.insertRegions(ctx, hash, rec.Regions, t)
}

// insertCategories tolerates duplicate codes; any other failure propagates.
func (r *Reconciler) insertCategories(ctx context.Context, hash uuid.UUID, codes []string, t *tally) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.limits.Categories)

	for _, code := range codes {
		g.Go(func() error {
			c, err := domain.NewCategory(code, hash)
			if err != nil {
				return err
			}

			inserted, err := r.stores.Categories.TryToInsert(gctx, c)
			switch {
			case errors.Is(err, domain.ErrAlreadyExists), err == nil && !inserted:
				t.categoryConflicts.Add(1)
				r.log.DebugContext(gctx, "category already present",
					slog.String("species_hash", hash.String()),
					slog.String("category", c.ShortName),
				)
				return nil
			case err != nil:
				return fmt.Errorf("insert category %s: %w", c.ShortName, err)
			}
			t.categoriesInserted.Add(1)
			return nil
		})
	}
	return g.Wait()
}

func (r *Reconciler) insertRegions(ctx context.Context, hash uuid.UUID, regions []domain.RegionValue, t *tally) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.limits.Regions)

	for _, rv := range regions {
		g.Go(func() error {
			reg, err := domain.NewRegion(rv.Name, rv.Value, hash)
			if err != nil {
				return err
			}
			if err := r.stores.Regions.Insert(gctx, reg); err != nil {
				return fmt.Errorf("insert region %s: %w", reg.RegionName, err)
			}
			t.regionsInserted.Add(1)
			return nil
		})
	}
	return g.Wait()
}
