package postgres

import (
	"errors"
	"testing"
	"time"

	"github.com/heartmarshall/eecc-crawler/internal/config"
	"github.com/heartmarshall/eecc-crawler/internal/domain"
)

func TestPoolConfig_AppliesLimits(t *testing.T) {
	t.Parallel()

	got, err := poolConfig(config.DatabaseConfig{
		DSN:             "postgres://u:p@localhost:5432/eecc",
		MaxConns:        8,
		MinConns:        2,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 10 * time.Minute,
	})
	if err != nil {
		t.Fatalf("poolConfig: unexpected error: %v", err)
	}

	if got.MaxConns != 8 || got.MinConns != 2 {
		t.Errorf("conns = %d/%d, want 8/2", got.MaxConns, got.MinConns)
	}
	if got.MaxConnLifetime != time.Hour || got.MaxConnIdleTime != 10*time.Minute {
		t.Errorf("lifetimes = %v/%v", got.MaxConnLifetime, got.MaxConnIdleTime)
	}
	if name := got.ConnConfig.RuntimeParams["application_name"]; name != ApplicationName {
		t.Errorf("application_name = %q, want %q", name, ApplicationName)
	}
}

func TestPoolConfig_ZeroLimitsKeepDefaults(t *testing.T) {
	t.Parallel()

	defaults, err := poolConfig(config.DatabaseConfig{DSN: "postgres://u:p@localhost:5432/eecc"})
	if err != nil {
		t.Fatalf("poolConfig: unexpected error: %v", err)
	}
	if defaults.MaxConns < 1 {
		t.Errorf("MaxConns = %d, want pgx default", defaults.MaxConns)
	}
	if defaults.MinConns != 0 {
		t.Errorf("MinConns = %d, want 0", defaults.MinConns)
	}
}

func TestPoolConfig_MinConnsCappedByMax(t *testing.T) {
	t.Parallel()

	got, err := poolConfig(config.DatabaseConfig{
		DSN:      "postgres://u:p@localhost:5432/eecc",
		MaxConns: 2,
		MinConns: 5,
	})
	if err != nil {
		t.Fatalf("poolConfig: unexpected error: %v", err)
	}
	if got.MinConns != 2 {
		t.Errorf("MinConns = %d, want 2", got.MinConns)
	}
}

func TestPoolConfig_DSNApplicationNameWins(t *testing.T) {
	t.Parallel()

	got, err := poolConfig(config.DatabaseConfig{
		DSN: "postgres://u:p@localhost:5432/eecc?application_name=cron-eecc",
	})
	if err != nil {
		t.Fatalf("poolConfig: unexpected error: %v", err)
	}
	if name := got.ConnConfig.RuntimeParams["application_name"]; name != "cron-eecc" {
		t.Errorf("application_name = %q, want cron-eecc", name)
	}
}

func TestPoolConfig_InvalidDSN(t *testing.T) {
	t.Parallel()

	_, err := poolConfig(config.DatabaseConfig{DSN: "postgres://u:p@localhost:notaport/eecc"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
