// Package metrics records the outcome of a sync run and pushes it to a
// Prometheus Pushgateway. The crawler is a batch job, so every value is a
// gauge describing the last run.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/heartmarshall/eecc-crawler/internal/config"
)

const namespace = "eecc_sync"

// Run is the outcome of one sync, as exported to Prometheus.
type Run struct {
	Succeeded          bool
	DryRun             bool
	Duration           time.Duration
	Records            int
	Upserted           int
	Excluded           int
	MarkedLost         int
	CategoriesInserted int
	CategoryConflicts  int
	RegionsInserted    int
}

// Recorder owns a private registry so pushes never include process-wide
// collectors.
type Recorder struct {
	reg *prometheus.Registry
	url string
	job string

	duration    prometheus.Gauge
	lastRun     prometheus.Gauge
	lastSuccess prometheus.Gauge
	succeeded   prometheus.Gauge
	dryRun      prometheus.Gauge
	items       *prometheus.GaugeVec
}

// NewRecorder creates a recorder. Push is a no-op when the pushgateway URL
// is empty.
func NewRecorder(cfg config.MetricsConfig) *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		url: cfg.PushgatewayURL,
		job: cfg.Job,
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "duration_seconds",
			Help:      "Wall time of the last sync run.",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last sync run finished.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time the last successful sync run finished.",
		}),
		succeeded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "succeeded",
			Help:      "1 if the last sync run succeeded, 0 otherwise.",
		}),
		dryRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dry_run",
			Help:      "1 if the last sync run skipped every write.",
		}),
		items: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "items",
			Help:      "Rows handled by the last sync run, by kind.",
		}, []string{"kind"}),
	}

	r.reg.MustRegister(r.duration, r.lastRun, r.lastSuccess, r.succeeded, r.dryRun, r.items)
	return r
}

// Observe stores the outcome of a run. The last-success timestamp is only
// moved by successful runs.
func (r *Recorder) Observe(run Run) {
	now := float64(time.Now().Unix())

	r.duration.Set(run.Duration.Seconds())
	r.lastRun.Set(now)
	r.succeeded.Set(boolToFloat(run.Succeeded))
	r.dryRun.Set(boolToFloat(run.DryRun))
	if run.Succeeded {
		r.lastSuccess.Set(now)
	}

	r.items.WithLabelValues("records").Set(float64(run.Records))
	r.items.WithLabelValues("upserted").Set(float64(run.Upserted))
	r.items.WithLabelValues("excluded").Set(float64(run.Excluded))
	r.items.WithLabelValues("marked_lost").Set(float64(run.MarkedLost))
	r.items.WithLabelValues("categories_inserted").Set(float64(run.CategoriesInserted))
	r.items.WithLabelValues("category_conflicts").Set(float64(run.CategoryConflicts))
	r.items.WithLabelValues("regions_inserted").Set(float64(run.RegionsInserted))
}

// Enabled reports whether Push sends anything.
func (r *Recorder) Enabled() bool {
	return r.url != ""
}

// Push replaces the job's metric group on the pushgateway.
func (r *Recorder) Push(ctx context.Context) error {
	if !r.Enabled() {
		return nil
	}
	if err := push.New(r.url, r.job).Gatherer(r.reg).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}

// Gatherer exposes the registry, for tests and ad-hoc dumps.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.reg
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
