package category

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
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

func TestRepo_TryToInsert(t *testing.T) {
	t.Parallel()
	hash := domain.HashSpecies("Puma concolor")

	tests := []struct {
		name     string
		affected int64
		err      error
		want     bool
		wantErr  error
	}{
		{name: "inserted", affected: 1, want: true},
		{name: "conflict reports false", affected: 0, want: false},
		{name: "failure", err: errors.New("broken pipe"), wantErr: domain.ErrPersistence},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			mock := newMock(t)

			exp := mock.ExpectExec(`INSERT INTO valid_categories \(species_hash,short_name\) VALUES \(\$1,\$2\) ON CONFLICT \(species_hash, short_name\) DO NOTHING`).
				WithArgs(hash, "VU")
			if tt.err != nil {
				exp.WillReturnError(tt.err)
			} else {
				exp.WillReturnResult(pgxmock.NewResult("INSERT", tt.affected))
			}

			got, err := New(mock).TryToInsert(context.Background(), domain.Category{SpeciesHash: hash, ShortName: "VU"})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("TryToInsert() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("TryToInsert() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("TryToInsert() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRepo_RemoveAll(t *testing.T) {
	t.Parallel()
	mock := newMock(t)

	mock.ExpectExec(`^DELETE FROM valid_categories$`).
		WillReturnResult(pgxmock.NewResult("DELETE", 17))

	n, err := New(mock).RemoveAll(context.Background())
	if err != nil {
		t.Fatalf("RemoveAll() unexpected error: %v", err)
	}
	if n != 17 {
		t.Errorf("RemoveAll() = %d, want 17", n)
	}
}

func TestRepo_Remove(t *testing.T) {
	t.Parallel()
	mock := newMock(t)
	hash := uuid.New()

	// squirrel.Eq resolves driver.Valuer arguments, so the hash is bound as text.
	mock.ExpectExec(`DELETE FROM valid_categories WHERE short_name = \$1 AND species_hash = \$2`).
		WithArgs("EN", hash.String()).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	n, err := New(mock).Remove(context.Background(), hash, "EN")
	if err != nil {
		t.Fatalf("Remove() unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("Remove() = %d, want 1", n)
	}
}

func TestRepo_ListBySpecies(t *testing.T) {
	t.Parallel()
	mock := newMock(t)
	hash := uuid.New()

	mock.ExpectQuery(`SELECT short_name FROM valid_categories WHERE species_hash = \$1 ORDER BY short_name ASC`).
		WithArgs(hash.String()).
		WillReturnRows(pgxmock.NewRows([]string{"short_name"}).AddRow("EN").AddRow("VU"))

	got, err := New(mock).ListBySpecies(context.Background(), hash)
	if err != nil {
		t.Fatalf("ListBySpecies() unexpected error: %v", err)
	}
	if len(got) != 2 || got[0] != "EN" || got[1] != "VU" {
		t.Errorf("ListBySpecies() = %v, want [EN VU]", got)
	}
}
