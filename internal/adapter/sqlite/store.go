// Package sqlite implements every store contract of the crawler on a single
// SQLite file, for local runs and end-to-end tests.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Masterminds/squirrel"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/heartmarshall/eecc-crawler/migrations"
)

// querier is implemented by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txCtxKey struct{}

var sq = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

// Store owns the SQLite handle. The repositories it hands out share it.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at dsn and applies the
// embedded migrations.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection serializes writers; SQLite allows a single writer anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("configure sqlite: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.SQLite())
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("goose new provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("goose up: %w", err)
	}
	for _, r := range results {
		logger.InfoContext(ctx, "migration applied",
			slog.String("store", "sqlite"),
			slog.Int64("version", r.Source.Version),
			slog.Duration("duration", r.Duration),
		)
	}

	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// RunInTx executes fn inside a transaction. Repositories called with the
// context passed to fn join it.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapError(err, "transaction", "begin")
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(context.WithValue(ctx, txCtxKey{}, tx)); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return mapError(err, "transaction", "commit")
	}
	return nil
}

func (s *Store) conn(ctx context.Context) querier {
	if tx, ok := ctx.Value(txCtxKey{}).(*sql.Tx); ok {
		return tx
	}
	return s.db
}

// Species returns the species repository.
func (s *Store) Species() *SpeciesRepo { return &SpeciesRepo{store: s} }

// Categories returns the category repository.
func (s *Store) Categories() *CategoryRepo { return &CategoryRepo{store: s} }

// Regions returns the region repository.
func (s *Store) Regions() *RegionRepo { return &RegionRepo{store: s} }

// SyncRuns returns the sync run repository.
func (s *Store) SyncRuns() *SyncRunRepo { return &SyncRunRepo{store: s} }

func (s *Store) exec(ctx context.Context, b squirrel.Sqlizer, entity, key string) (int64, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build %s statement: %w", entity, err)
	}
	res, err := s.conn(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return 0, mapError(err, entity, key)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, mapError(err, entity, key)
	}
	return n, nil
}
