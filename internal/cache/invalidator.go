package cache

import (
	"context"
	"fmt"

	"github.com/phrazzld/taskpipe/internal/events"
)

// PersistedInvalidator returns a handler that drops person:{personId} when
// a queued task for that person has been persisted, so the next read of
// the person picks up the new task. Other event types are ignored.
func PersistedInvalidator(store Store) events.Handler {
	return events.HandlerFunc(func(ctx context.Context, event *events.Event) error {
		if event.Type != events.TypeTaskPersisted {
			return nil
		}

		var payload events.TaskPersisted
		if err := event.UnmarshalPayload(&payload); err != nil {
			return err
		}

		if err := store.Delete(ctx, PersonKey(payload.PersonID)); err != nil {
			return fmt.Errorf("failed to invalidate person %d: %w", payload.PersonID, err)
		}
		return nil
	})
}
