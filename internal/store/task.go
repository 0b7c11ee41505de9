package store

import (
	"context"

	"github.com/phrazzld/taskpipe/internal/domain"
)

// TaskStore defines the interface for task data persistence.
type TaskStore interface {
	// GetByIDs retrieves the tasks whose ids appear in ids, each with its
	// Person populated. Unknown ids are skipped; the result may be shorter
	// than ids and is ordered by id.
	GetByIDs(ctx context.Context, ids []int64) ([]domain.Task, error)

	// GetAll retrieves every task, each with its Person populated.
	GetAll(ctx context.Context) ([]domain.Task, error)

	// Add inserts task, ignoring task.ID, and returns it with the
	// store-assigned id. Returns ErrInvalidEntity if PersonID does not
	// reference an existing person.
	Add(ctx context.Context, task *domain.Task) (*domain.Task, error)

	// Update overwrites every mutable column of the row with task.ID.
	// Returns ErrTaskNotFound if the row does not exist.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes the row with task.ID.
	// Returns ErrTaskNotFound if the row does not exist.
	Delete(ctx context.Context, task *domain.Task) error

	// Detach releases any change tracking the store holds for task, so an
	// entity loaded in one unit of work can be reused in another.
	Detach(ctx context.Context, task *domain.Task) error
}

// PersonStore defines the interface for person data persistence. Persons
// are read-only to the application.
type PersonStore interface {
	// GetByIDs retrieves the persons whose ids appear in ids, each with
	// its Tasks populated. Unknown ids are skipped.
	GetByIDs(ctx context.Context, ids []int64) ([]domain.Person, error)

	// GetAll retrieves every person with its Tasks populated.
	GetAll(ctx context.Context) ([]domain.Person, error)
}
