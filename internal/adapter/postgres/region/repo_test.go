package region

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/heartmarshall/eecc-crawler/internal/domain"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
		mock.Close()
	})
	return mock
}

func TestRepo_Insert(t *testing.T) {
	t.Parallel()
	hash := uuid.New()
	reg := domain.Region{SpeciesHash: hash, RegionName: "Norte", Value: "X"}

	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{name: "success"},
		{name: "foreign key maps to not found", err: &pgconn.PgError{Code: "23503"}, wantErr: domain.ErrNotFound},
		{name: "unknown failure", err: errors.New("connection reset by peer"), wantErr: domain.ErrPersistence},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			mock := newMock(t)

			exp := mock.ExpectExec(`INSERT INTO regions \(species_hash,region_name,value\) VALUES \(\$1,\$2,\$3\)`).
				WithArgs(hash, "Norte", "X")
			if tt.err != nil {
				exp.WillReturnError(tt.err)
			} else {
				exp.WillReturnResult(pgxmock.NewResult("INSERT", 1))
			}

			err := New(mock).Insert(context.Background(), reg)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("Insert() unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("Insert() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRepo_RemoveAll(t *testing.T) {
	t.Parallel()
	mock := newMock(t)

	mock.ExpectExec(`DELETE FROM regions`).
		WillReturnResult(pgxmock.NewResult("DELETE", 5))

	n, err := New(mock).RemoveAll(context.Background())
	if err != nil {
		t.Fatalf("RemoveAll() unexpected error: %v", err)
	}
	if n != 5 {
		t.Errorf("RemoveAll() = %d, want 5", n)
	}
}

func TestRepo_ListBySpecies(t *testing.T) {
	t.Parallel()
	mock := newMock(t)
	hash := uuid.New()

	mock.ExpectQuery(`SELECT species_hash, region_name, value FROM regions WHERE species_hash = \$1 ORDER BY id ASC`).
		WithArgs(hash.String()).
		WillReturnRows(pgxmock.NewRows([]string{"species_hash", "region_name", "value"}).
			AddRow(hash, "Norte", "X").
			AddRow(hash, "Sur", "1"))

	got, err := New(mock).ListBySpecies(context.Background(), hash)
	if err != nil {
		t.Fatalf("ListBySpecies() unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].RegionName != "Norte" || got[1].Value != "1" {
		t.Errorf("ListBySpecies() = %+v", got)
	}
}
