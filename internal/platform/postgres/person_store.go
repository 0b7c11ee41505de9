package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/phrazzld/taskpipe/internal/domain"
	"github.com/phrazzld/taskpipe/internal/platform/logger"
	"github.com/phrazzld/taskpipe/internal/store"
)

const selectPersonsWithTasks = `
	SELECT p.id, p.name, ` + taskColumns + `
	FROM persons p
	LEFT JOIN tasks t ON t.person_id = p.id
`

// PostgresPersonStore implements the store.PersonStore interface using PostgreSQL.
type PostgresPersonStore struct {
	db store.DBTX
}

// NewPostgresPersonStore creates a new PostgresPersonStore.
func NewPostgresPersonStore(db store.DBTX) *PostgresPersonStore {
	return &PostgresPersonStore{db: db}
}

var _ store.PersonStore = (*PostgresPersonStore)(nil)

// GetByIDs implements store.PersonStore.
func (s *PostgresPersonStore) GetByIDs(ctx context.Context, ids []int64) ([]domain.Person, error) {
	if len(ids) == 0 {
		return []domain.Person{}, nil
	}
	return s.query(ctx, selectPersonsWithTasks+` WHERE p.id = ANY($1) ORDER BY p.id, t.id`, ids)
}

// GetAll implements store.PersonStore.
func (s *PostgresPersonStore) GetAll(ctx context.Context) ([]domain.Person, error) {
	return s.query(ctx, selectPersonsWithTasks+` ORDER BY p.id, t.id`)
}

// query folds the joined rows into persons. Rows arrive grouped by person
// id, and a person without tasks yields one row of NULL task columns.
func (s *PostgresPersonStore) query(ctx context.Context, query string, args ...any) ([]domain.Person, error) {
	log := logger.FromContext(ctx)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query persons", "error", err)
		return nil, fmt.Errorf("failed to query persons: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	persons := []domain.Person{}
	for rows.Next() {
		var (
			personID   int64
			personName string
			rec        nullableTaskRecord
		)
		dest := append([]any{&personID, &personName}, rec.scanTargets()...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan person row: %w", err)
		}

		if n := len(persons); n == 0 || persons[n-1].ID != personID {
			persons = append(persons, domain.Person{ID: personID, Name: personName})
		}
		if rec.id.Valid {
			current := &persons[len(persons)-1]
			current.Tasks = append(current.Tasks, rec.toDomain())
		}
	}
	if err := rows.Err(); err != nil {
		log.Error("error iterating person rows", "error", err)
		return nil, fmt.Errorf("failed to read persons: %w", MapError(err))
	}

	return persons, nil
}

// nullableTaskRecord is a taskRecord read from the outer side of a LEFT JOIN.
type nullableTaskRecord struct {
	id          sql.NullInt64
	personID    sql.NullInt64
	title       sql.NullString
	description sql.NullString
	location    sql.NullString
	severity    sql.NullInt32
	startDate   sql.NullTime
	endDate     sql.NullTime
}

func (r *nullableTaskRecord) scanTargets() []any {
	return []any{
		&r.id, &r.personID, &r.title, &r.description,
		&r.location, &r.severity, &r.startDate, &r.endDate,
	}
}

func (r *nullableTaskRecord) toDomain() domain.Task {
	rec := taskRecord{
		id:          r.id.Int64,
		personID:    r.personID.Int64,
		title:       r.title.String,
		description: r.description,
		location:    r.location,
		severity:    int(r.severity.Int32),
		startDate:   r.startDate,
		endDate:     r.endDate,
	}
	return rec.toDomain()
}
