package config

import (
	"fmt"
	"strings"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if err := c.Source.validate(); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	if err := c.Fetch.validate(); err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	if err := c.Sync.validate(); err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	if err := c.Database.validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if c.Metrics.PushgatewayURL != "" && !isAbsoluteURL(c.Metrics.PushgatewayURL) {
		return fmt.Errorf("metrics: pushgateway_url must be an absolute URL (got %q)", c.Metrics.PushgatewayURL)
	}
	return nil
}

func (s *SourceConfig) validate() error {
	if !isAbsoluteURL(s.BaseURL) {
		return fmt.Errorf("base_url must be an absolute URL (got %q)", s.BaseURL)
	}
	if strings.TrimSpace(s.LandingPage) == "" {
		return fmt.Errorf("landing_page is required")
	}
	if strings.TrimSpace(s.LinkSelector) == "" {
		return fmt.Errorf("link_selector is required")
	}
	if s.SheetIndex < 0 {
		return fmt.Errorf("sheet_index must be >= 0 (got %d)", s.SheetIndex)
	}
	return nil
}

func (f *FetchConfig) validate() error {
	if f.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0 (got %v)", f.Timeout)
	}
	if f.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be >= 1 (got %d)", f.MaxAttempts)
	}
	if f.Backoff <= 0 {
		return fmt.Errorf("backoff must be > 0 (got %v)", f.Backoff)
	}
	if f.MaxBackoff < f.Backoff {
		return fmt.Errorf("max_backoff must be >= backoff (got %v < %v)", f.MaxBackoff, f.Backoff)
	}
	return nil
}

func (s *SyncConfig) validate() error {
	if s.RecordConcurrency < 1 {
		return fmt.Errorf("record_concurrency must be >= 1 (got %d)", s.RecordConcurrency)
	}
	if s.CategoryConcurrency < 1 {
		return fmt.Errorf("category_concurrency must be >= 1 (got %d)", s.CategoryConcurrency)
	}
	if s.RegionConcurrency < 1 {
		return fmt.Errorf("region_concurrency must be >= 1 (got %d)", s.RegionConcurrency)
	}
	if s.RunTimeout < 0 {
		return fmt.Errorf("run_timeout must be >= 0 (got %v)", s.RunTimeout)
	}
	return nil
}

func (d *DatabaseConfig) validate() error {
	switch strings.ToLower(d.Driver) {
	case "postgres":
		if d.DSN == "" {
			return fmt.Errorf("dsn is required for the postgres driver")
		}
	case "sqlite":
		if d.DSN == "" {
			d.DSN = "file:eecc.db"
		}
	default:
		return fmt.Errorf("driver must be one of postgres, sqlite (got %q)", d.Driver)
	}
	return nil
}
