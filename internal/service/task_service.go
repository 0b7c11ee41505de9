package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/taskpipe/internal/cache"
	"github.com/phrazzld/taskpipe/internal/domain"
	"github.com/phrazzld/taskpipe/internal/messaging"
	"github.com/phrazzld/taskpipe/internal/platform/logger"
	"github.com/phrazzld/taskpipe/internal/redact"
	"github.com/phrazzld/taskpipe/internal/store"
)

// CacheAside is the read-through cache in front of the stores.
type CacheAside interface {
	Tasks(ctx context.Context, ids []int64) ([]domain.Task, error)
	Persons(ctx context.Context, ids []int64) ([]domain.Person, error)
	Invalidate(ctx context.Context, keys ...string) error
}

// CommandPublisher queues task commands.
type CommandPublisher interface {
	PublishTaskCommand(ctx context.Context, cmd messaging.TaskCommand) error
}

// TaskService provides task operations.
type TaskService interface {
	// GetTasksByIDs returns the tasks with the given ids, each with its
	// person. An empty list returns every task.
	GetTasksByIDs(ctx context.Context, ids []int64) ([]domain.Task, error)

	// GetTasksByPersonIDs returns the persons with the given ids, each
	// with its tasks. An empty list returns every person.
	GetTasksByPersonIDs(ctx context.Context, ids []int64) ([]domain.Person, error)

	// InsertTask validates task and queues it for creation. It returns
	// once the command is queued; the task is stored later.
	InsertTask(ctx context.Context, task *domain.Task) error

	// EditTask validates task and overwrites the stored task with the
	// same id. It returns the stored result.
	EditTask(ctx context.Context, task *domain.Task) (*domain.Task, error)

	// DeleteTask removes the task with id and returns what was removed.
	DeleteTask(ctx context.Context, id int64) (*domain.Task, error)
}

type taskServiceImpl struct {
	tasks     store.TaskStore
	persons   store.PersonStore
	cache     CacheAside
	publisher CommandPublisher
	now       func() time.Time
	logger    *slog.Logger
}

// NewTaskService creates a TaskService. A nil now uses time.Now.
func NewTaskService(
	tasks store.TaskStore,
	persons store.PersonStore,
	cache CacheAside,
	publisher CommandPublisher,
	now func() time.Time,
	logger *slog.Logger,
) (TaskService, error) {
	if tasks == nil {
		return nil, domain.NewValidationError("tasks", "cannot be nil")
	}
	if persons == nil {
		return nil, domain.NewValidationError("persons", "cannot be nil")
	}
	if cache == nil {
		return nil, domain.NewValidationError("cache", "cannot be nil")
	}
	if publisher == nil {
		return nil, domain.NewValidationError("publisher", "cannot be nil")
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &taskServiceImpl{
		tasks:     tasks,
		persons:   persons,
		cache:     cache,
		publisher: publisher,
		now:       now,
		logger:    logger.With(slog.String("component", "task_service")),
	}, nil
}

func (s *taskServiceImpl) log(ctx context.Context) *slog.Logger {
	return logger.FromContextOrDefault(ctx, s.logger)
}

// GetTasksByIDs implements TaskService.
func (s *taskServiceImpl) GetTasksByIDs(ctx context.Context, ids []int64) ([]domain.Task, error) {
	if err := validateIDs(ids, "task"); err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		tasks, err := s.tasks.GetAll(ctx)
		if err != nil {
			return nil, NewServiceError("get_tasks", "failed to list tasks", err)
		}
		return tasks, nil
	}

	tasks, err := s.cache.Tasks(ctx, ids)
	if err != nil {
		return nil, NewServiceError("get_tasks", "failed to read tasks", err)
	}
	return tasks, nil
}

// GetTasksByPersonIDs implements TaskService.
func (s *taskServiceImpl) GetTasksByPersonIDs(ctx context.Context, ids []int64) ([]domain.Person, error) {
	if err := validateIDs(ids, "person"); err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		persons, err := s.persons.GetAll(ctx)
		if err != nil {
			return nil, NewServiceError("get_persons", "failed to list persons", err)
		}
		return persons, nil
	}

	persons, err := s.cache.Persons(ctx, ids)
	if err != nil {
		return nil, NewServiceError("get_persons", "failed to read persons", err)
	}
	return persons, nil
}

// InsertTask implements TaskService. The person cache entry is dropped
// before publishing; the consumer stores the task some time later, and a
// read in between may still miss it.
func (s *taskServiceImpl) InsertTask(ctx context.Context, task *domain.Task) error {
	log := s.log(ctx)

	if _, err := s.validateTask(ctx, task); err != nil {
		return err
	}

	s.invalidate(ctx, cache.PersonKey(task.PersonID))

	if err := s.publisher.PublishTaskCommand(ctx, messaging.NewTaskCommand(task)); err != nil {
		log.Error("failed to queue task",
			"person_id", task.PersonID,
			"error", redact.Error(err))
		return fmt.Errorf("%w: %w", ErrQueueUnavailable, err)
	}

	log.Info("task queued", "person_id", task.PersonID)
	return nil
}

// EditTask implements TaskService.
func (s *taskServiceImpl) EditTask(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	log := s.log(ctx)

	if task.ID <= 0 {
		return nil, domain.NewValidationError("id", "must be greater than zero")
	}
	person, err := s.validateTask(ctx, task)
	if err != nil {
		return nil, err
	}

	existing, err := s.loadTask(ctx, task.ID)
	if err != nil {
		return nil, err
	}
	oldPersonID := existing.PersonID

	updated := *existing
	updated.PersonID = task.PersonID
	updated.Title = task.Title
	updated.Description = task.Description
	updated.Location = task.Location
	updated.Severity = task.Severity
	updated.StartDate = task.StartDate
	updated.EndDate = task.EndDate
	updated.Person = person

	if err := s.tasks.Update(ctx, &updated); err != nil {
		if store.IsNotFoundError(err) {
			return nil, err
		}
		log.Error("failed to update task", "task_id", task.ID, "error", redact.Error(err))
		return nil, NewServiceError("edit_task", "failed to update task", err)
	}

	s.invalidate(ctx,
		cache.TaskKey(updated.ID),
		cache.PersonKey(oldPersonID),
		cache.PersonKey(updated.PersonID),
	)

	log.Info("task updated", "task_id", updated.ID, "person_id", updated.PersonID)
	return &updated, nil
}

// DeleteTask implements TaskService.
func (s *taskServiceImpl) DeleteTask(ctx context.Context, id int64) (*domain.Task, error) {
	log := s.log(ctx)

	if id <= 0 {
		return nil, domain.NewValidationError("id", "must be greater than zero")
	}

	existing, err := s.loadTask(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.tasks.Delete(ctx, existing); err != nil {
		if store.IsNotFoundError(err) {
			return nil, err
		}
		log.Error("failed to delete task", "task_id", id, "error", redact.Error(err))
		return nil, NewServiceError("delete_task", "failed to delete task", err)
	}

	s.invalidate(ctx, cache.TaskKey(id), cache.PersonKey(existing.PersonID))

	log.Info("task deleted", "task_id", id, "person_id", existing.PersonID)
	return existing, nil
}

// loadTask reads a task from the store, bypassing the cache.
func (s *taskServiceImpl) loadTask(ctx context.Context, id int64) (*domain.Task, error) {
	found, err := s.tasks.GetByIDs(ctx, []int64{id})
	if err != nil {
		return nil, NewServiceError("load_task", "failed to read task", err)
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("%w: no task found with ID %d", store.ErrTaskNotFound, id)
	}
	return &found[0], nil
}

// validateTask checks, in order: the owner exists, the task's own fields,
// and that it does not start in the past. It returns the owner without
// its task list.
func (s *taskServiceImpl) validateTask(ctx context.Context, task *domain.Task) (*domain.Person, error) {
	if task == nil {
		return nil, domain.NewValidationError("task", "is required")
	}

	notFound := domain.NewValidationError("personId", fmt.Sprintf("no person found with ID %d", task.PersonID))
	if task.PersonID <= 0 {
		return nil, notFound
	}
	persons, err := s.cache.Persons(ctx, []int64{task.PersonID})
	if err != nil {
		return nil, NewServiceError("validate_task", "failed to look up person", err)
	}
	if len(persons) == 0 {
		return nil, notFound
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	if task.StartDate.Before(s.now()) {
		return nil, domain.NewValidationError("startDate", "must not be in the past")
	}

	return &domain.Person{ID: persons[0].ID, Name: persons[0].Name}, nil
}

// invalidate drops keys after a write. A failure leaves a stale entry for
// at most one TTL, so it is logged rather than returned.
func (s *taskServiceImpl) invalidate(ctx context.Context, keys ...string) {
	if err := s.cache.Invalidate(ctx, keys...); err != nil {
		s.log(ctx).Warn("cache invalidation failed", "keys", keys, "error", redact.Error(err))
	}
}

func validateIDs(ids []int64, kind string) error {
	for _, id := range ids {
		if id <= 0 {
			return domain.NewValidationError("ids", fmt.Sprintf("all %s IDs must be greater than zero", kind))
		}
	}
	return nil
}

