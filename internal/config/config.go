package config

import (
	"net/url"
	"strings"
	"time"
)

// Config is the root crawler configuration.
type Config struct {
	Source      SourceConfig      `yaml:"source"`
	Fetch       FetchConfig       `yaml:"fetch"`
	Sync        SyncConfig        `yaml:"sync"`
	Database    DatabaseConfig    `yaml:"database"`
	Corrections CorrectionsConfig `yaml:"corrections"`
	Archive     ArchiveConfig     `yaml:"archive"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Log         LogConfig         `yaml:"log"`
}

// newConfig returns a Config holding the defaults of fields whose zero value
// is a valid setting. cleanenv treats a zero field as unset and would apply
// an env-default over an explicit 0, false or empty string, so these are seeded here and
// left to YAML and ENV to override.
func newConfig() Config {
	var cfg Config
	cfg.Source.SheetIndex = 1
	cfg.Fetch.UserAgent = "eecc-crawler/1.0"
	cfg.Database.MinConns = 1
	cfg.Database.AutoMigrate = true
	cfg.Archive.Prefix = "spreadsheets/"
	return cfg
}

// SourceConfig locates the published spreadsheet.
type SourceConfig struct {
	BaseURL      string `yaml:"base_url"      env:"SOURCE_BASE_URL"      env-default:"http://www.mma.gob.cl/clasificacionespecies"`
	LandingPage  string `yaml:"landing_page"  env:"SOURCE_LANDING_PAGE"  env-default:"listado-especies-nativas-segun-estado-2014.htm"`
	LinkSelector string `yaml:"link_selector" env:"SOURCE_LINK_SELECTOR" env-default:"div#container > ul > li:nth-child(2) > a"`
	SheetIndex   int    `yaml:"sheet_index"   env:"SOURCE_SHEET_INDEX"`
}

// LandingURL returns the landing page joined onto the base URL.
func (c SourceConfig) LandingURL() string {
	return strings.TrimRight(c.BaseURL, "/") + "/" + strings.TrimLeft(c.LandingPage, "/")
}

// FetchConfig holds HTTP settings shared by every page fetch.
type FetchConfig struct {
	Timeout     time.Duration `yaml:"timeout"      env:"FETCH_TIMEOUT"      env-default:"5s"`
	UserAgent   string        `yaml:"user_agent"   env:"FETCH_USER_AGENT"`
	MaxAttempts int           `yaml:"max_attempts" env:"FETCH_MAX_ATTEMPTS" env-default:"1"`
	Backoff     time.Duration `yaml:"backoff"      env:"FETCH_BACKOFF"      env-default:"1s"`
	MaxBackoff  time.Duration `yaml:"max_backoff"  env:"FETCH_MAX_BACKOFF"  env-default:"30s"`
}

// SyncConfig holds reconciliation settings. The concurrency bounds throttle
// writes against the store.
type SyncConfig struct {
	RecordConcurrency   int           `yaml:"record_concurrency"   env:"SYNC_RECORD_CONCURRENCY"   env-default:"3"`
	CategoryConcurrency int           `yaml:"category_concurrency" env:"SYNC_CATEGORY_CONCURRENCY" env-default:"1"`
	RegionConcurrency   int           `yaml:"region_concurrency"   env:"SYNC_REGION_CONCURRENCY"   env-default:"5"`
	DryRun              bool          `yaml:"dry_run"              env:"SYNC_DRY_RUN"`
	RunTimeout          time.Duration `yaml:"run_timeout"          env:"SYNC_RUN_TIMEOUT"          env-default:"0s"`
}

// DatabaseConfig holds store connection settings.
type DatabaseConfig struct {
	Driver          string        `yaml:"driver"             env:"DATABASE_DRIVER"             env-default:"postgres"`
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"10"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
	AutoMigrate     bool          `yaml:"auto_migrate"       env:"DATABASE_AUTO_MIGRATE"`
}

// CorrectionsConfig points at the manual overrides file.
type CorrectionsConfig struct {
	Path string `yaml:"path" env:"CORRECTIONS_PATH"`
}

// ArchiveConfig holds settings for keeping a copy of every downloaded
// spreadsheet. Archiving is disabled when S3Bucket is empty.
type ArchiveConfig struct {
	S3Bucket    string `yaml:"s3_bucket"     env:"ARCHIVE_S3_BUCKET"`
	S3Region    string `yaml:"s3_region"     env:"ARCHIVE_S3_REGION"     env-default:"us-east-1"`
	S3Endpoint  string `yaml:"s3_endpoint"   env:"ARCHIVE_S3_ENDPOINT"`
	S3PathStyle bool   `yaml:"s3_path_style" env:"ARCHIVE_S3_PATH_STYLE"`
	Prefix      string `yaml:"prefix"        env:"ARCHIVE_PREFIX"`
}

// Enabled reports whether archiving is configured.
func (c ArchiveConfig) Enabled() bool {
	return c.S3Bucket != ""
}

// MetricsConfig holds Prometheus Pushgateway settings. Pushing is disabled
// when PushgatewayURL is empty.
type MetricsConfig struct {
	PushgatewayURL string `yaml:"pushgateway_url" env:"METRICS_PUSHGATEWAY_URL"`
	Job            string `yaml:"job"             env:"METRICS_JOB"             env-default:"eecc_crawler"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.Scheme != "" && u.Host != ""
}
