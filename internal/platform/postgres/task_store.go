package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/taskpipe/internal/domain"
	"github.com/phrazzld/taskpipe/internal/platform/logger"
	"github.com/phrazzld/taskpipe/internal/redact"
	"github.com/phrazzld/taskpipe/internal/store"
)

const taskColumns = `t.id, t.person_id, t.title, t.description, t.location, t.severity, t.start_date, t.end_date`

const selectTasksWithPerson = `
	SELECT ` + taskColumns + `, p.id, p.name
	FROM tasks t
	JOIN persons p ON p.id = t.person_id
`

// PostgresTaskStore implements the store.TaskStore interface using PostgreSQL.
type PostgresTaskStore struct {
	db store.DBTX
}

// NewPostgresTaskStore creates a new PostgresTaskStore.
func NewPostgresTaskStore(db store.DBTX) *PostgresTaskStore {
	return &PostgresTaskStore{db: db}
}

var _ store.TaskStore = (*PostgresTaskStore)(nil)

// GetByIDs implements store.TaskStore.
func (s *PostgresTaskStore) GetByIDs(ctx context.Context, ids []int64) ([]domain.Task, error) {
	if len(ids) == 0 {
		return []domain.Task{}, nil
	}
	return s.query(ctx, selectTasksWithPerson+` WHERE t.id = ANY($1) ORDER BY t.id`, ids)
}

// GetAll implements store.TaskStore.
func (s *PostgresTaskStore) GetAll(ctx context.Context) ([]domain.Task, error) {
	return s.query(ctx, selectTasksWithPerson+` ORDER BY t.id`)
}

func (s *PostgresTaskStore) query(ctx context.Context, query string, args ...any) ([]domain.Task, error) {
	log := logger.FromContext(ctx)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query tasks", "error", err)
		return nil, fmt.Errorf("failed to query tasks: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	tasks := []domain.Task{}
	for rows.Next() {
		var (
			rec    taskRecord
			person domain.Person
		)
		dest := append(rec.scanTargets(), &person.ID, &person.Name)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}
		task := rec.toDomain()
		task.Person = &person
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		log.Error("error iterating task rows", "error", err)
		return nil, fmt.Errorf("failed to read tasks: %w", MapError(err))
	}

	return tasks, nil
}

// Add implements store.TaskStore. The incoming ID is ignored.
func (s *PostgresTaskStore) Add(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	log := logger.FromContext(ctx)

	query := `
		INSERT INTO tasks (person_id, title, description, location, severity, start_date, end_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	var id int64
	err := s.db.QueryRowContext(ctx, query,
		task.PersonID,
		task.Title,
		nullString(task.Description),
		nullString(task.Location),
		int(task.Severity),
		task.StartDate.UTC(),
		nullTime(task.EndDate),
	).Scan(&id)
	if err != nil {
		logWriteFailure(log, "insert", task, err)
		return nil, fmt.Errorf("failed to insert task: %w", MapError(err))
	}

	added := *task
	added.ID = id
	added.Person = nil

	log.Debug("task inserted", "task_id", id, "person_id", task.PersonID)
	return &added, nil
}

// Update implements store.TaskStore.
func (s *PostgresTaskStore) Update(ctx context.Context, task *domain.Task) error {
	log := logger.FromContext(ctx)

	query := `
		UPDATE tasks
		SET person_id = $2, title = $3, description = $4, location = $5,
			severity = $6, start_date = $7, end_date = $8
		WHERE id = $1
	`

	result, err := s.db.ExecContext(ctx, query,
		task.ID,
		task.PersonID,
		task.Title,
		nullString(task.Description),
		nullString(task.Location),
		int(task.Severity),
		task.StartDate.UTC(),
		nullTime(task.EndDate),
	)
	if err != nil {
		logWriteFailure(log, "update", task, err)
		return fmt.Errorf("failed to update task: %w", MapError(err))
	}

	return CheckRowsAffected(result, store.ErrTaskNotFound)
}

// Delete implements store.TaskStore.
func (s *PostgresTaskStore) Delete(ctx context.Context, task *domain.Task) error {
	log := logger.FromContext(ctx)

	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, task.ID)
	if err != nil {
		log.Error("failed to delete task",
			"task_id", task.ID,
			"error", err)
		return fmt.Errorf("failed to delete task: %w", MapError(err))
	}

	return CheckRowsAffected(result, store.ErrTaskNotFound)
}

// Detach implements store.TaskStore. Rows read from PostgreSQL are plain
// values, so there is no tracking state to release.
func (s *PostgresTaskStore) Detach(_ context.Context, _ *domain.Task) error {
	return nil
}

// taskRecord mirrors a tasks row with its nullable columns.
type taskRecord struct {
	id          int64
	personID    int64
	title       string
	description sql.NullString
	location    sql.NullString
	severity    int
	startDate   sql.NullTime
	endDate     sql.NullTime
}

func (r *taskRecord) scanTargets() []any {
	return []any{
		&r.id, &r.personID, &r.title, &r.description,
		&r.location, &r.severity, &r.startDate, &r.endDate,
	}
}

func (r *taskRecord) toDomain() domain.Task {
	task := domain.Task{
		ID:          r.id,
		PersonID:    r.personID,
		Title:       r.title,
		Description: r.description.String,
		Location:    r.location.String,
		Severity:    domain.Severity(r.severity),
		StartDate:   r.startDate.Time.UTC(),
	}
	if r.endDate.Valid {
		end := r.endDate.Time.UTC()
		task.EndDate = &end
	}
	return task
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

// logWriteFailure logs a failed insert or update. A dangling person_id is
// the caller's problem and is logged below error level.
func logWriteFailure(log *slog.Logger, op string, task *domain.Task, err error) {
	if IsForeignKeyViolation(err) {
		log.Warn("task references unknown person",
			"op", op,
			"task_id", task.ID,
			"person_id", task.PersonID)
		return
	}
	log.Error("failed to "+op+" task",
		"task_id", task.ID,
		"person_id", task.PersonID,
		"error", redact.Error(err))
}
