package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the row a store was asked to read, update or
	// delete does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidEntity means the database refused the row itself, for
	// example a task whose person_id matches no person. Writing it again
	// will fail the same way, so the consumer dead-letters the command.
	ErrInvalidEntity = errors.New("invalid entity")

	ErrTaskNotFound   = fmt.Errorf("%w: task", ErrNotFound)
	ErrPersonNotFound = fmt.Errorf("%w: person", ErrNotFound)
)

// IsNotFoundError reports whether err is, or wraps, ErrNotFound.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
