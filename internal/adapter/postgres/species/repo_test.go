package species

import (
	"context"
	"errors"
	"testing"
	"time"

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

func mustSpecies(t *testing.T, name string) domain.Species {
	t.Helper()
	s, err := domain.NewSpecies(domain.SpeciesFields{
		ScientificName: name,
		CommonName:     "Puma",
		Kingdom:        "Animalia",
		Family:         "Felidae",
	})
	if err != nil {
		t.Fatalf("NewSpecies: %v", err)
	}
	return s
}

func TestRepo_Upsert(t *testing.T) {
	t.Parallel()
	s := mustSpecies(t, "Puma concolor")

	tests := []struct {
		name    string
		setup   func(mock pgxmock.PgxPoolIface)
		wantErr error
	}{
		{
			name: "returns stored hash",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO species .* ON CONFLICT \(scientific_name\) DO UPDATE`).
					WithArgs(s.Hash, "Puma concolor", "Puma", "Animalia", "Felidae", "", "", pgxmock.AnyArg()).
					WillReturnRows(pgxmock.NewRows([]string{"hash"}).AddRow(s.Hash))
			},
		},
		{
			name: "check violation maps to validation",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO species`).
					WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
						pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
					WillReturnError(&pgconn.PgError{Code: "23514"})
			},
			wantErr: domain.ErrValidation,
		},
		{
			name: "unknown failure is a persistence error",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO species`).
					WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
						pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
					WillReturnError(errors.New("connection reset by peer"))
			},
			wantErr: domain.ErrPersistence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			mock := newMock(t)
			tt.setup(mock)

			hash, err := New(mock).Upsert(context.Background(), s)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Upsert() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Upsert() unexpected error: %v", err)
			}
			if hash != s.Hash {
				t.Errorf("Upsert() hash = %s, want %s", hash, s.Hash)
			}
		})
	}
}

func TestRepo_Update(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		patch  domain.SpeciesPatch
		filter domain.SpeciesFilter
		setup  func(mock pgxmock.PgxPoolIface)
		want   int64
	}{
		{
			name:  "mark every species lost",
			patch: domain.SpeciesPatch{State: domain.StatePtr(domain.SpeciesStateLost)},
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`^UPDATE species SET state = \$1$`).
					WithArgs("lost").
					WillReturnResult(pgxmock.NewResult("UPDATE", 42))
			},
			want: 42,
		},
		{
			name:   "filter by names and state",
			patch:  domain.SpeciesPatch{State: domain.StatePtr(domain.SpeciesStateActive)},
			filter: domain.SpeciesFilter{Names: []string{"Puma concolor", "Lycalopex culpaeus"}, State: domain.StatePtr(domain.SpeciesStateLost)},
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`UPDATE species SET state = \$1 WHERE scientific_name IN \(\$2,\$3\) AND state = \$4`).
					WithArgs("active", "Puma concolor", "Lycalopex culpaeus", "lost").
					WillReturnResult(pgxmock.NewResult("UPDATE", 2))
			},
			want: 2,
		},
		{
			name:  "empty patch issues no statement",
			setup: func(mock pgxmock.PgxPoolIface) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			mock := newMock(t)
			tt.setup(mock)

			got, err := New(mock).Update(context.Background(), tt.patch, tt.filter)
			if err != nil {
				t.Fatalf("Update() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Update() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRepo_Update_Error(t *testing.T) {
	t.Parallel()
	mock := newMock(t)

	mock.ExpectExec(`UPDATE species`).
		WithArgs("lost").
		WillReturnError(context.DeadlineExceeded)

	_, err := New(mock).Update(context.Background(),
		domain.SpeciesPatch{State: domain.StatePtr(domain.SpeciesStateLost)}, domain.SpeciesFilter{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Update() error = %v, want context.DeadlineExceeded", err)
	}
	if errors.Is(err, domain.ErrPersistence) {
		t.Error("context errors must not be reported as persistence errors")
	}
}

func TestRepo_List(t *testing.T) {
	t.Parallel()
	mock := newMock(t)
	now := time.Now().UTC()
	s := mustSpecies(t, "Puma concolor")

	mock.ExpectQuery(`SELECT hash, scientific_name, .* FROM species WHERE scientific_name IN \(\$1\) ORDER BY scientific_name ASC`).
		WithArgs("Puma concolor").
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow(s.Hash, "Puma concolor", "Puma", "Animalia", "Felidae", "", "", "lost", now))

	got, err := New(mock).List(context.Background(), domain.SpeciesFilter{Names: []string{"Puma concolor"}})
	if err != nil {
		t.Fatalf("List() unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("List() returned %d rows, want 1", len(got))
	}
	if got[0].Hash != s.Hash || got[0].State != domain.SpeciesStateLost || !got[0].SyncedAt.Equal(now) {
		t.Errorf("List() = %+v", got[0])
	}
}

func TestRepo_List_Empty(t *testing.T) {
	t.Parallel()
	mock := newMock(t)

	mock.ExpectQuery(`SELECT .* FROM species ORDER BY scientific_name ASC`).
		WillReturnRows(pgxmock.NewRows(columns))

	got, err := New(mock).List(context.Background(), domain.SpeciesFilter{})
	if err != nil {
		t.Fatalf("List() unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("List() = %#v, want empty non-nil slice", got)
	}
}
