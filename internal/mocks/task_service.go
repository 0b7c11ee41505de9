package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/taskpipe/internal/domain"
	"github.com/phrazzld/taskpipe/internal/service"
)

// MockTaskService implements service.TaskService with overridable
// functions. Unset functions return zero values and Err.
type MockTaskService struct {
	GetTasksByIDsFn       func(ctx context.Context, ids []int64) ([]domain.Task, error)
	GetTasksByPersonIDsFn func(ctx context.Context, ids []int64) ([]domain.Person, error)
	InsertTaskFn          func(ctx context.Context, task *domain.Task) error
	EditTaskFn            func(ctx context.Context, task *domain.Task) (*domain.Task, error)
	DeleteTaskFn          func(ctx context.Context, id int64) (*domain.Task, error)
	Err                   error

	mu       sync.Mutex
	Inserted []domain.Task
	Edited   []domain.Task
	IDs      [][]int64
}

var _ service.TaskService = (*MockTaskService)(nil)

func (m *MockTaskService) recordIDs(ids []int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.IDs = append(m.IDs, append([]int64{}, ids...))
}

// GetTasksByIDs implements service.TaskService.
func (m *MockTaskService) GetTasksByIDs(ctx context.Context, ids []int64) ([]domain.Task, error) {
	m.recordIDs(ids)
	if m.GetTasksByIDsFn != nil {
		return m.GetTasksByIDsFn(ctx, ids)
	}
	return []domain.Task{}, m.Err
}

// GetTasksByPersonIDs implements service.TaskService.
func (m *MockTaskService) GetTasksByPersonIDs(ctx context.Context, ids []int64) ([]domain.Person, error) {
	m.recordIDs(ids)
	if m.GetTasksByPersonIDsFn != nil {
		return m.GetTasksByPersonIDsFn(ctx, ids)
	}
	return []domain.Person{}, m.Err
}

// InsertTask implements service.TaskService.
func (m *MockTaskService) InsertTask(ctx context.Context, task *domain.Task) error {
	m.mu.Lock()
	m.Inserted = append(m.Inserted, *task)
	m.mu.Unlock()
	if m.InsertTaskFn != nil {
		return m.InsertTaskFn(ctx, task)
	}
	return m.Err
}

// EditTask implements service.TaskService.
func (m *MockTaskService) EditTask(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	m.mu.Lock()
	m.Edited = append(m.Edited, *task)
	m.mu.Unlock()
	if m.EditTaskFn != nil {
		return m.EditTaskFn(ctx, task)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	edited := *task
	return &edited, nil
}

// DeleteTask implements service.TaskService.
func (m *MockTaskService) DeleteTask(ctx context.Context, id int64) (*domain.Task, error) {
	if m.DeleteTaskFn != nil {
		return m.DeleteTaskFn(ctx, id)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return &domain.Task{ID: id}, nil
}
