// Package crawler sequences one sync: download the published spreadsheet,
// parse the species sheet and reconcile the store with it.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/eecc-crawler/internal/adapter/archive"
	"github.com/heartmarshall/eecc-crawler/internal/app/reconcile"
	"github.com/heartmarshall/eecc-crawler/internal/domain"
	"github.com/heartmarshall/eecc-crawler/internal/metrics"
	"github.com/heartmarshall/eecc-crawler/internal/source"
	"github.com/heartmarshall/eecc-crawler/internal/source/sheet"
	"github.com/heartmarshall/eecc-crawler/pkg/ctxutil"
)

// WorkbookSource yields the current spreadsheet.
type WorkbookSource interface {
	Fetch(ctx context.Context) (*source.Workbook, error)
}

// Archiver keeps a copy of the downloaded spreadsheet.
type Archiver interface {
	Put(ctx context.Context, obj archive.Object) (string, error)
}

// Reconciler replays records against the store.
type Reconciler interface {
	Run(ctx context.Context, records []domain.Record) (reconcile.Result, error)
}

// SyncRunStore persists the audit trail.
type SyncRunStore interface {
	Latest(ctx context.Context) (domain.SyncRun, error)
	Start(ctx context.Context, run domain.SyncRun) error
	Finish(ctx context.Context, run domain.SyncRun) error
}

// MetricsRecorder exports the outcome of a run.
type MetricsRecorder interface {
	Observe(run metrics.Run)
	Push(ctx context.Context) error
}

// Deps are the collaborators of a Crawler. Archive, SyncRuns and Metrics are
// optional.
type Deps struct {
	Source     WorkbookSource
	Archive    Archiver
	Reconciler Reconciler
	SyncRuns   SyncRunStore
	Metrics    MetricsRecorder
}

// Options tune a single run.
type Options struct {
	SheetIndex int
	DryRun     bool
}

// Report describes a finished run.
type Report struct {
	SourceURL  string
	SheetName  string
	Records    int
	ArchiveKey string
	DryRun     bool
	SyncRunID  string
	Reconcile  reconcile.Result
	StartedAt  time.Time
	FinishedAt time.Time

	// PreviousSyncRunID is empty on the first sync or when the lookup failed.
	PreviousSyncRunID string
}

// Crawler runs the sync end to end.
type Crawler struct {
	log  *slog.Logger
	deps Deps
	opts Options
}

// New creates a Crawler.
func New(log *slog.Logger, deps Deps, opts Options) *Crawler {
	return &Crawler{
		log:  log.With("component", "crawler"),
		deps: deps,
		opts: opts,
	}
}

// Run performs one sync. Nothing is written to the store unless the
// spreadsheet was downloaded and parsed.
func (c *Crawler) Run(ctx context.Context) (report Report, err error) {
	runID := uuid.New()
	ctx = ctxutil.WithRunID(ctx, runID)

	report.StartedAt = time.Now().UTC()
	report.DryRun = c.opts.DryRun
	c.log.InfoContext(ctx, "sync started",
		slog.Time("started_at", report.StartedAt),
		slog.Bool("dry_run", c.opts.DryRun),
	)

	defer func() {
		report.FinishedAt = time.Now().UTC()
		c.observe(ctx, report, err)

		attrs := []any{
			slog.Time("started_at", report.StartedAt),
			slog.Time("finished_at", report.FinishedAt),
			slog.Duration("duration", report.FinishedAt.Sub(report.StartedAt)),
			slog.Int("records", report.Records),
		}
		if err != nil {
			c.log.ErrorContext(ctx, "sync failed", append(attrs, slog.String("error", err.Error()))...)
			return
		}
		c.log.InfoContext(ctx, "sync finished", attrs...)
	}()

	wb, err := c.deps.Source.Fetch(ctx)
	if err != nil {
		return report, err
	}
	report.SourceURL = wb.URL

	report.ArchiveKey = c.archive(ctx, wb)

	name, grid, err := wb.Sheet(c.opts.SheetIndex)
	if err != nil {
		return report, err
	}
	report.SheetName = name

	records, err := sheet.Parse(grid)
	if err != nil {
		return report, fmt.Errorf("parse sheet %q: %w", name, err)
	}
	report.Records = len(records)
	c.log.InfoContext(ctx, "sheet parsed",
		slog.String("sheet", name),
		slog.Int("records", len(records)),
	)

	if c.opts.DryRun {
		c.log.InfoContext(ctx, "dry run, skipping reconciliation")
		return report, nil
	}

	run := domain.NewSyncRun(wb.URL, name, len(records))
	run.ID = runID
	report.SyncRunID = run.ID.String()
	if c.deps.SyncRuns != nil {
		report.PreviousSyncRunID = c.previous(ctx)
		if err := c.deps.SyncRuns.Start(ctx, run); err != nil {
			return report, fmt.Errorf("start sync run: %w", err)
		}
	}

	res, err := c.deps.Reconciler.Run(ctx, records)
	report.Reconcile = res

	if c.deps.SyncRuns != nil {
		run.SpeciesUpserted = res.Upserted
		run.SpeciesExcluded = res.Excluded
		run.SpeciesMarkedLost = res.SpeciesMarkedLost
		run.CategoriesInserted = res.CategoriesInserted
		run.RegionsInserted = res.RegionsInserted
		run.Finish(err)

		// The audit row is closed even when the run context was canceled.
		if ferr := c.deps.SyncRuns.Finish(context.WithoutCancel(ctx), run); ferr != nil {
			err = errors.Join(err, fmt.Errorf("finish sync run: %w", ferr))
		}
	}

	return report, err
}

// previous logs the last recorded sync and returns its id. A run still marked
// running means the previous process died before closing its audit row.
func (c *Crawler) previous(ctx context.Context) string {
	last, err := c.deps.SyncRuns.Latest(ctx)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.log.InfoContext(ctx, "first sync, no previous run recorded")
		return ""
	case err != nil:
		c.log.WarnContext(ctx, "look up previous sync run failed", slog.String("error", err.Error()))
		return ""
	}

	attrs := []any{
		slog.String("previous_run_id", last.ID.String()),
		slog.String("status", string(last.Status)),
		slog.Time("started_at", last.StartedAt),
		slog.Int("records", last.RecordsTotal),
	}
	if last.Status == domain.SyncStatusRunning {
		c.log.WarnContext(ctx, "previous sync never finished", attrs...)
	} else {
		c.log.InfoContext(ctx, "previous sync", attrs...)
	}
	return last.ID.String()
}

func (c *Crawler) archive(ctx context.Context, wb *source.Workbook) string {
	if c.deps.Archive == nil {
		return ""
	}

	key, err := c.deps.Archive.Put(ctx, archive.Object{
		FileName:  wb.FileName(),
		SourceURL: wb.URL,
		Body:      wb.Raw,
	})
	if err != nil {
		c.log.WarnContext(ctx, "archive spreadsheet failed", slog.String("error", err.Error()))
		return ""
	}

	c.log.InfoContext(ctx, "spreadsheet archived", slog.String("key", key))
	return key
}

func (c *Crawler) observe(ctx context.Context, report Report, err error) {
	if c.deps.Metrics == nil {
		return
	}

	res := report.Reconcile
	c.deps.Metrics.Observe(metrics.Run{
		Succeeded:          err == nil,
		DryRun:             report.DryRun,
		Duration:           report.FinishedAt.Sub(report.StartedAt),
		Records:            report.Records,
		Upserted:           res.Upserted,
		Excluded:           res.Excluded,
		MarkedLost:         res.SpeciesMarkedLost,
		CategoriesInserted: res.CategoriesInserted,
		CategoryConflicts:  res.CategoryConflicts,
		RegionsInserted:    res.RegionsInserted,
	})

	if perr := c.deps.Metrics.Push(context.WithoutCancel(ctx)); perr != nil {
		c.log.WarnContext(ctx, "push metrics failed", slog.String("error", perr.Error()))
	}
}
