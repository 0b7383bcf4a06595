package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/eecc-crawler/internal/adapter/archive"
	"github.com/heartmarshall/eecc-crawler/internal/app/crawler"
	"github.com/heartmarshall/eecc-crawler/internal/app/reconcile"
	"github.com/heartmarshall/eecc-crawler/internal/config"
	"github.com/heartmarshall/eecc-crawler/internal/corrections"
	"github.com/heartmarshall/eecc-crawler/internal/fetch"
	"github.com/heartmarshall/eecc-crawler/internal/metrics"
	"github.com/heartmarshall/eecc-crawler/internal/source"
)

// Options are command-line overrides of the loaded configuration.
type Options struct {
	DryRun bool
}

// Run is the application entry point. It loads configuration, initializes
// the logger and performs one sync.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	if opts.DryRun {
		cfg.Sync.DryRun = true
	}

	logger.Info("starting crawler",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
		slog.String("database_driver", cfg.Database.Driver),
		slog.Bool("dry_run", cfg.Sync.DryRun),
	)

	_, err = Sync(ctx, cfg, logger)
	return err
}

// Sync builds every component from cfg and runs one sync. The store is
// opened only once the spreadsheet has been parsed, and never in dry-run
// mode.
func Sync(ctx context.Context, cfg *config.Config, logger *slog.Logger) (crawler.Report, error) {
	if cfg.Sync.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Sync.RunTimeout)
		defer cancel()
	}

	pages := fetch.NewFetcher(cfg.Fetch, logger)
	resolver := source.NewResolver(pages, cfg.Source, logger)

	deps := crawler.Deps{
		Source:  source.NewSpreadsheets(resolver, pages, logger),
		Metrics: metrics.NewRecorder(cfg.Metrics),
	}

	if cfg.Archive.Enabled() {
		store, err := archive.New(ctx, cfg.Archive)
		if err != nil {
			return crawler.Report{}, err
		}
		deps.Archive = store
	}

	if !cfg.Sync.DryRun {
		rules, err := corrections.LoadRules(cfg.Corrections.Path)
		if err != nil {
			return crawler.Report{}, err
		}

		lazy := &lazyBackend{
			open: func(ctx context.Context) (*backend, error) {
				return openBackend(ctx, cfg.Database, logger)
			},
			build: func(b *backend) *reconcile.Reconciler {
				runner := corrections.NewRunner(logger, rules, b.tx, b.species, b.categories)
				return reconcile.NewReconciler(logger, b.stores, rules, runner, reconcile.Limits{
					Records:    cfg.Sync.RecordConcurrency,
					Categories: cfg.Sync.CategoryConcurrency,
					Regions:    cfg.Sync.RegionConcurrency,
				})
			},
		}
		defer lazy.close()

		deps.Reconciler = lazy
		deps.SyncRuns = lazy
	}

	report, err := crawler.New(logger, deps, crawler.Options{
		SheetIndex: cfg.Source.SheetIndex,
		DryRun:     cfg.Sync.DryRun,
	}).Run(ctx)
	if err != nil {
		return report, fmt.Errorf("sync: %w", err)
	}
	return report, nil
}
