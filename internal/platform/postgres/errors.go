package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/taskpipe/internal/store"
)

// SQLSTATE codes for writes the database will never accept as given.
const (
	foreignKeyViolationCode = "23503"
	checkViolationCode      = "23514"
	notNullViolationCode    = "23502"
	stringTooLongCode       = "22001"
)

// rejection describes a permanent failure. The detail func picks the part
// of the PgError that names the offending constraint or column.
type rejection struct {
	kind   string
	detail func(*pgconn.PgError) string
}

var rejections = map[string]rejection{
	foreignKeyViolationCode: {"foreign key violation", func(e *pgconn.PgError) string { return e.ConstraintName }},
	checkViolationCode:      {"check constraint violation", func(e *pgconn.PgError) string { return e.ConstraintName }},
	notNullViolationCode:    {"not null violation", func(e *pgconn.PgError) string { return e.ColumnName }},
	stringTooLongCode:       {"value too long", func(e *pgconn.PgError) string { return e.ColumnName }},
}

// MapError translates a driver error into the store vocabulary.
// sql.ErrNoRows becomes store.ErrNotFound and the codes in rejections
// become store.ErrInvalidEntity, so the consumer can tell a write worth
// retrying from one that belongs on the dead-letter queue. Anything else
// comes back untouched.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	r, ok := rejections[pgErr.Code]
	if !ok {
		return err
	}
	if d := r.detail(pgErr); d != "" {
		return fmt.Errorf("%w: %s (%s): %v", store.ErrInvalidEntity, r.kind, d, err)
	}
	return fmt.Errorf("%w: %s: %v", store.ErrInvalidEntity, r.kind, err)
}

// IsForeignKeyViolation reports whether err carries SQLSTATE 23503. For
// tasks that means person_id points at no person.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolationCode
}

// CheckRowsAffected turns an UPDATE or DELETE that matched nothing into
// notFound, or store.ErrNotFound when notFound is nil.
func CheckRowsAffected(result sql.Result, notFound error) error {
	if result == nil {
		return errors.New("no result to inspect")
	}

	n, err := result.RowsAffected()
	switch {
	case err != nil:
		return fmt.Errorf("failed to get rows affected: %w", err)
	case n > 0:
		return nil
	case notFound != nil:
		return notFound
	default:
		return store.ErrNotFound
	}
}
