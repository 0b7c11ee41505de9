package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/phrazzld/taskpipe/internal/redact"
)

// AllTypes subscribes a handler to every event type.
const AllTypes = ""

// InMemoryEmitter calls subscribed handlers synchronously, in subscription
// order, on the goroutine that emits.
type InMemoryEmitter struct {
	mu     sync.RWMutex
	byType map[string][]Handler
	logger *slog.Logger
}

var _ Emitter = (*InMemoryEmitter)(nil)

// NewInMemoryEmitter returns an emitter with no subscribers.
func NewInMemoryEmitter(logger *slog.Logger) *InMemoryEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &InMemoryEmitter{
		byType: make(map[string][]Handler),
		logger: logger.With("component", "events"),
	}
}

// Subscribe routes events of eventType to h. Use AllTypes to see every
// event.
func (e *InMemoryEmitter) Subscribe(eventType string, h Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.byType[eventType] = append(e.byType[eventType], h)
}

func (e *InMemoryEmitter) handlersFor(eventType string) []Handler {
	e.mu.RLock()
	defer e.mu.RUnlock()

	specific, wildcard := e.byType[eventType], e.byType[AllTypes]
	out := make([]Handler, 0, len(specific)+len(wildcard))
	out = append(out, specific...)
	return append(out, wildcard...)
}

// Emit hands event to each matching handler. Every handler runs even when
// an earlier one fails; the failures come back joined.
func (e *InMemoryEmitter) Emit(ctx context.Context, event *Event) error {
	handlers := e.handlersFor(event.Type)
	if len(handlers) == 0 {
		e.logger.Debug("event dropped, no subscribers", "event_type", event.Type, "event_id", event.ID)
		return nil
	}

	var errs []error
	for i, h := range handlers {
		if err := h.HandleEvent(ctx, event); err != nil {
			e.logger.Warn("event handler failed",
				"event_type", event.Type,
				"event_id", event.ID,
				"handler", i,
				"error", redact.Error(err))
			errs = append(errs, fmt.Errorf("handler %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
