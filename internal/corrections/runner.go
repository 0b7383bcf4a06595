package corrections

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/google/uuid"

	"github.com/heartmarshall/eecc-crawler/internal/domain"
)

// SpeciesStore is the species store contract consumed by the runner.
type SpeciesStore interface {
	List(ctx context.Context, filter domain.SpeciesFilter) ([]domain.Species, error)
	Update(ctx context.Context, patch domain.SpeciesPatch, filter domain.SpeciesFilter) (int64, error)
}

// CategoryStore is the category store contract consumed by the runner.
type CategoryStore interface {
	ListBySpecies(ctx context.Context, speciesHash uuid.UUID) ([]string, error)
	TryToInsert(ctx context.Context, c domain.Category) (bool, error)
	Remove(ctx context.Context, speciesHash uuid.UUID, shortName string) (int64, error)
}

// TxManager runs fn inside one transaction.
type TxManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Runner applies Rules to the store.
type Runner struct {
	rules      *Rules
	tx         TxManager
	species    SpeciesStore
	categories CategoryStore
	log        *slog.Logger
}

// NewRunner creates a Runner.
func NewRunner(logger *slog.Logger, rules *Rules, tx TxManager, species SpeciesStore, categories CategoryStore) *Runner {
	return &Runner{
		rules:      rules,
		tx:         tx,
		species:    species,
		categories: categories,
		log:        logger.With("component", "corrections"),
	}
}

// RunCorrections applies category and state overrides in one transaction.
// Overrides naming a species absent from the store are logged and skipped.
func (r *Runner) RunCorrections(ctx context.Context) error {
	if r.rules == nil || r.rules.IsEmpty() {
		r.log.DebugContext(ctx, "no corrections configured")
		return nil
	}

	var applied, skipped int
	err := r.tx.RunInTx(ctx, func(ctx context.Context) error {
		applied, skipped = 0, 0

		found, err := r.species.List(ctx, domain.SpeciesFilter{Names: r.rules.names()})
		if err != nil {
			return fmt.Errorf("list species: %w", err)
		}
		hashes := make(map[string]uuid.UUID, len(found))
		for _, s := range found {
			hashes[s.ScientificName] = s.Hash
		}

		for _, name := range slices.Sorted(maps.Keys(r.rules.Categories)) {
			hash, ok := hashes[name]
			if !ok {
				skipped++
				r.log.WarnContext(ctx, "correction skipped, species not found", slog.String("name", name))
				continue
			}
			if err := r.applyCategories(ctx, name, hash, r.rules.Categories[name]); err != nil {
				return fmt.Errorf("categories of %q: %w", name, err)
			}
			applied++
		}

		for _, name := range slices.Sorted(maps.Keys(r.rules.States)) {
			if _, ok := hashes[name]; !ok {
				skipped++
				r.log.WarnContext(ctx, "correction skipped, species not found", slog.String("name", name))
				continue
			}
			state := r.rules.States[name]
			_, err := r.species.Update(ctx,
				domain.SpeciesPatch{State: domain.StatePtr(state)},
				domain.SpeciesFilter{Names: []string{name}},
			)
			if err != nil {
				return fmt.Errorf("state of %q: %w", name, err)
			}
			applied++
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("corrections: %w", err)
	}

	r.log.InfoContext(ctx, "corrections applied",
		slog.Int("applied", applied),
		slog.Int("skipped", skipped),
	)
	return nil
}

// applyCategories diffs the override against the species' current codes so
// only real changes reach the store.
func (r *Runner) applyCategories(ctx context.Context, name string, hash uuid.UUID, o CategoryOverride) error {
	current, err := r.categories.ListBySpecies(ctx, hash)
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}
	has := make(map[string]bool, len(current))
	for _, code := range current {
		has[code] = true
	}

	var removed, added []string
	for _, code := range o.Remove {
		c, err := domain.NewCategory(code, hash)
		if err != nil {
			return err
		}
		if !has[c.ShortName] {
			continue
		}
		if _, err := r.categories.Remove(ctx, hash, c.ShortName); err != nil {
			return fmt.Errorf("remove %s: %w", c.ShortName, err)
		}
		delete(has, c.ShortName)
		removed = append(removed, c.ShortName)
	}

	for _, code := range o.Add {
		c, err := domain.NewCategory(code, hash)
		if err != nil {
			return err
		}
		if has[c.ShortName] {
			continue
		}
		inserted, err := r.categories.TryToInsert(ctx, c)
		if err != nil && !errors.Is(err, domain.ErrAlreadyExists) {
			return fmt.Errorf("add %s: %w", c.ShortName, err)
		}
		has[c.ShortName] = true
		if inserted {
			added = append(added, c.ShortName)
		}
	}

	if len(removed) > 0 || len(added) > 0 {
		r.log.DebugContext(ctx, "categories corrected",
			slog.String("name", name),
			slog.Any("removed", removed),
			slog.Any("added", added),
		)
	}
	return nil
}
