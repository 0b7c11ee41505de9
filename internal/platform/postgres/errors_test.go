package postgres_test

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/taskpipe/internal/platform/postgres"
	"github.com/phrazzld/taskpipe/internal/store"
	"github.com/stretchr/testify/assert"
)

func newPgError(code string) *pgconn.PgError {
	return &pgconn.PgError{
		Code:           code,
		Message:        "error message",
		SchemaName:     "public",
		TableName:      "tasks",
		ColumnName:     "title",
		ConstraintName: "tasks_person_id_fkey",
	}
}

// mockResult implements sql.Result for testing
type mockResult struct {
	rowsAffected int64
	err          error
}

func (m mockResult) LastInsertId() (int64, error) {
	return 0, m.err
}

func (m mockResult) RowsAffected() (int64, error) {
	return m.rowsAffected, m.err
}

func TestMapError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantIs     error
		wantSame   bool
		wantSubstr string
	}{
		{name: "nil", err: nil},
		{name: "no rows", err: sql.ErrNoRows, wantIs: store.ErrNotFound},
		{name: "foreign key", err: newPgError("23503"), wantIs: store.ErrInvalidEntity, wantSubstr: "tasks_person_id_fkey"},
		{name: "check", err: newPgError("23514"), wantIs: store.ErrInvalidEntity, wantSubstr: "check constraint"},
		{name: "not null", err: newPgError("23502"), wantIs: store.ErrInvalidEntity, wantSubstr: "title"},
		{name: "too long", err: newPgError("22001"), wantIs: store.ErrInvalidEntity},
		{name: "wrapped foreign key", err: fmt.Errorf("exec: %w", newPgError("23503")), wantIs: store.ErrInvalidEntity},
		{name: "connection refused", err: errors.New("dial tcp: connection refused"), wantSame: true},
		{name: "other pg code", err: newPgError("40001"), wantSame: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := postgres.MapError(tt.err)

			if tt.err == nil {
				assert.NoError(t, got)
				return
			}
			if tt.wantSame {
				assert.Same(t, tt.err, got)
				assert.False(t, errors.Is(got, store.ErrInvalidEntity))
				return
			}
			assert.ErrorIs(t, got, tt.wantIs)
			if tt.wantSubstr != "" {
				assert.Contains(t, got.Error(), tt.wantSubstr)
			}
		})
	}
}

func TestIsForeignKeyViolation(t *testing.T) {
	t.Parallel()

	assert.True(t, postgres.IsForeignKeyViolation(newPgError("23503")))
	assert.True(t, postgres.IsForeignKeyViolation(fmt.Errorf("wrap: %w", newPgError("23503"))))
	assert.False(t, postgres.IsForeignKeyViolation(newPgError("23514")))
	assert.False(t, postgres.IsForeignKeyViolation(errors.New("plain")))
	assert.False(t, postgres.IsForeignKeyViolation(nil))
}

func TestCheckRowsAffected(t *testing.T) {
	t.Parallel()

	t.Run("rows affected", func(t *testing.T) {
		assert.NoError(t, postgres.CheckRowsAffected(mockResult{rowsAffected: 1}, store.ErrTaskNotFound))
	})

	t.Run("no rows returns the given sentinel", func(t *testing.T) {
		err := postgres.CheckRowsAffected(mockResult{}, store.ErrTaskNotFound)
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
		assert.True(t, store.IsNotFoundError(err))
	})

	t.Run("no rows without sentinel", func(t *testing.T) {
		assert.ErrorIs(t, postgres.CheckRowsAffected(mockResult{}, nil), store.ErrNotFound)
	})

	t.Run("rows affected error", func(t *testing.T) {
		err := postgres.CheckRowsAffected(mockResult{err: errors.New("driver")}, store.ErrTaskNotFound)
		assert.ErrorContains(t, err, "failed to get rows affected")
	})

	t.Run("nil result", func(t *testing.T) {
		assert.Error(t, postgres.CheckRowsAffected(nil, store.ErrTaskNotFound))
	})
}
