package postgres_test

import (
	"context"
	"errors"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/heartmarshall/eecc-crawler/internal/adapter/postgres"
	"github.com/heartmarshall/eecc-crawler/internal/domain"
)

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func expectationsWereMet(t *testing.T, mock pgxmock.PgxPoolIface) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestRunInTx_Commit(t *testing.T) {
	t.Parallel()
	mock := newMockPool(t)
	tm := postgres.NewTxManager(mock)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE species`).WillReturnResult(pgxmock.NewResult("UPDATE", 2))
	mock.ExpectCommit()

	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		_, err := postgres.QuerierFromCtx(ctx, mock).Exec(ctx, `UPDATE species SET state = 'lost'`)
		return err
	})
	if err != nil {
		t.Fatalf("RunInTx returned error: %v", err)
	}
	expectationsWereMet(t, mock)
}

func TestRunInTx_RollbackOnError(t *testing.T) {
	t.Parallel()
	mock := newMockPool(t)
	tm := postgres.NewTxManager(mock)

	sentinel := errors.New("business logic error")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got: %v", err)
	}
	expectationsWereMet(t, mock)
}

func TestRunInTx_RollbackOnPanic(t *testing.T) {
	t.Parallel()
	mock := newMockPool(t)
	tm := postgres.NewTxManager(mock)

	mock.ExpectBegin()
	mock.ExpectRollback()

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic to be re-raised")
		}
		if r != "test panic" {
			t.Fatalf("expected panic value %q, got %v", "test panic", r)
		}
		expectationsWereMet(t, mock)
	}()

	_ = tm.RunInTx(context.Background(), func(ctx context.Context) error {
		panic("test panic")
	})
}

func TestRunInTx_BeginFailure(t *testing.T) {
	t.Parallel()
	mock := newMockPool(t)
	tm := postgres.NewTxManager(mock)

	mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

	called := false
	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		called = true
		return nil
	})
	if !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got: %v", err)
	}
	if called {
		t.Fatal("fn must not run when begin fails")
	}
	expectationsWereMet(t, mock)
}

func TestQuerierFromCtx_FallbackOutsideTx(t *testing.T) {
	t.Parallel()
	mock := newMockPool(t)

	if got := postgres.QuerierFromCtx(context.Background(), mock); got != mock {
		t.Fatal("expected fallback querier outside a transaction")
	}
}

func TestQuerierFromCtx_UsesTx(t *testing.T) {
	t.Parallel()
	mock := newMockPool(t)
	tm := postgres.NewTxManager(mock)

	mock.ExpectBegin()
	mock.ExpectCommit()

	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		if postgres.QuerierFromCtx(ctx, mock) == postgres.Querier(mock) {
			t.Error("expected the transaction, got the fallback querier")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("RunInTx returned error: %v", err)
	}
	expectationsWereMet(t, mock)
}
