package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/heartmarshall/eecc-crawler/internal/adapter/postgres"
	"github.com/heartmarshall/eecc-crawler/internal/adapter/postgres/category"
	"github.com/heartmarshall/eecc-crawler/internal/adapter/postgres/region"
	"github.com/heartmarshall/eecc-crawler/internal/adapter/postgres/species"
	"github.com/heartmarshall/eecc-crawler/internal/adapter/postgres/syncrun"
	"github.com/heartmarshall/eecc-crawler/internal/adapter/sqlite"
	"github.com/heartmarshall/eecc-crawler/internal/app/crawler"
	"github.com/heartmarshall/eecc-crawler/internal/app/reconcile"
	"github.com/heartmarshall/eecc-crawler/internal/config"
	"github.com/heartmarshall/eecc-crawler/internal/corrections"
)

// Compile-time interface assertions.
var (
	_ reconcile.SpeciesRepo     = (*species.Repo)(nil)
	_ reconcile.CategoryRepo    = (*category.Repo)(nil)
	_ reconcile.RegionRepo      = (*region.Repo)(nil)
	_ corrections.SpeciesStore  = (*species.Repo)(nil)
	_ corrections.CategoryStore = (*category.Repo)(nil)
	_ corrections.TxManager     = (*postgres.TxManager)(nil)
	_ crawler.SyncRunStore      = (*syncrun.Repo)(nil)
	_ reconcile.SpeciesRepo     = (*sqlite.SpeciesRepo)(nil)
	_ reconcile.CategoryRepo    = (*sqlite.CategoryRepo)(nil)
	_ reconcile.RegionRepo      = (*sqlite.RegionRepo)(nil)
	_ corrections.SpeciesStore  = (*sqlite.SpeciesRepo)(nil)
	_ corrections.CategoryStore = (*sqlite.CategoryRepo)(nil)
	_ corrections.TxManager     = (*sqlite.Store)(nil)
	_ crawler.SyncRunStore      = (*sqlite.SyncRunRepo)(nil)
	_ crawler.Reconciler        = (*lazyBackend)(nil)
	_ crawler.SyncRunStore      = (*lazyBackend)(nil)
)

// backend is an opened store with every repository the sync writes to.
type backend struct {
	stores     reconcile.Stores
	species    corrections.SpeciesStore
	categories corrections.CategoryStore
	tx         corrections.TxManager
	syncRuns   crawler.SyncRunStore
	close      func()
}

func openBackend(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*backend, error) {
	switch strings.ToLower(cfg.Driver) {
	case "postgres":
		return openPostgres(ctx, cfg, logger)
	case "sqlite":
		return openSQLite(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func openPostgres(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*backend, error) {
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if cfg.AutoMigrate {
		if err := postgres.Migrate(ctx, pool, logger); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate database: %w", err)
		}
	}

	speciesRepo := species.New(pool)
	categoryRepo := category.New(pool)
	return &backend{
		stores: reconcile.Stores{
			Species:    speciesRepo,
			Categories: categoryRepo,
			Regions:    region.New(pool),
		},
		species:    speciesRepo,
		categories: categoryRepo,
		tx:         postgres.NewTxManager(pool),
		syncRuns:   syncrun.New(pool),
		close:      pool.Close,
	}, nil
}

func openSQLite(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*backend, error) {
	store, err := sqlite.Open(ctx, cfg.DSN, logger)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}

	return &backend{
		stores: reconcile.Stores{
			Species:    store.Species(),
			Categories: store.Categories(),
			Regions:    store.Regions(),
		},
		species:    store.Species(),
		categories: store.Categories(),
		tx:         store,
		syncRuns:   store.SyncRuns(),
		close: func() {
			if err := store.Close(); err != nil {
				logger.Warn("close sqlite store", slog.String("error", err.Error()))
			}
		},
	}, nil
}
