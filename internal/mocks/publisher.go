package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/taskpipe/internal/messaging"
)

// MockPublisher records queued task commands.
type MockPublisher struct {
	PublishTaskCommandFn func(ctx context.Context, cmd messaging.TaskCommand) error
	Err                  error

	mu       sync.Mutex
	Commands []messaging.TaskCommand
}

// PublishTaskCommand records cmd and returns Err unless overridden.
func (m *MockPublisher) PublishTaskCommand(ctx context.Context, cmd messaging.TaskCommand) error {
	m.mu.Lock()
	m.Commands = append(m.Commands, cmd)
	m.mu.Unlock()

	if m.PublishTaskCommandFn != nil {
		return m.PublishTaskCommandFn(ctx, cmd)
	}
	return m.Err
}

// Published returns the recorded commands.
func (m *MockPublisher) Published() []messaging.TaskCommand {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]messaging.TaskCommand(nil), m.Commands...)
}
