package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/phrazzld/taskpipe/internal/domain"
	"github.com/phrazzld/taskpipe/internal/store"
)

// MockTaskStore implements store.TaskStore for testing.
type MockTaskStore struct {
	GetByIDsFn func(ctx context.Context, ids []int64) ([]domain.Task, error)
	GetAllFn   func(ctx context.Context) ([]domain.Task, error)
	AddFn      func(ctx context.Context, task *domain.Task) (*domain.Task, error)
	UpdateFn   func(ctx context.Context, task *domain.Task) error
	DeleteFn   func(ctx context.Context, task *domain.Task) error
	DetachFn   func(ctx context.Context, task *domain.Task) error

	// Tasks backs the default GetByIDs and GetAll.
	Tasks map[int64]domain.Task
	Err   error

	mu       sync.Mutex
	Calls    map[string]int
	Added    []domain.Task
	Updated  []domain.Task
	Deleted  []domain.Task
	Detached []domain.Task
}

var _ store.TaskStore = (*MockTaskStore)(nil)

func (m *MockTaskStore) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Calls == nil {
		m.Calls = make(map[string]int)
	}
	m.Calls[name]++
}

// CallCount returns how often method name was called.
func (m *MockTaskStore) CallCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls[name]
}

// GetByIDs implements store.TaskStore.
func (m *MockTaskStore) GetByIDs(ctx context.Context, ids []int64) ([]domain.Task, error) {
	m.record("GetByIDs")
	if m.GetByIDsFn != nil {
		return m.GetByIDsFn(ctx, ids)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	out := []domain.Task{}
	for _, id := range ids {
		if t, ok := m.Tasks[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

// GetAll implements store.TaskStore.
func (m *MockTaskStore) GetAll(ctx context.Context) ([]domain.Task, error) {
	m.record("GetAll")
	if m.GetAllFn != nil {
		return m.GetAllFn(ctx)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	out := []domain.Task{}
	for _, t := range m.Tasks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Add implements store.TaskStore. The default assigns id len(Added)+1.
func (m *MockTaskStore) Add(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	m.record("Add")
	m.mu.Lock()
	m.Added = append(m.Added, *task)
	n := len(m.Added)
	m.mu.Unlock()

	if m.AddFn != nil {
		return m.AddFn(ctx, task)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	added := *task
	added.ID = int64(n)
	return &added, nil
}

// Update implements store.TaskStore.
func (m *MockTaskStore) Update(ctx context.Context, task *domain.Task) error {
	m.record("Update")
	m.mu.Lock()
	m.Updated = append(m.Updated, *task)
	m.mu.Unlock()

	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, task)
	}
	return m.Err
}

// Delete implements store.TaskStore.
func (m *MockTaskStore) Delete(ctx context.Context, task *domain.Task) error {
	m.record("Delete")
	m.mu.Lock()
	m.Deleted = append(m.Deleted, *task)
	m.mu.Unlock()

	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, task)
	}
	return m.Err
}

// Detach implements store.TaskStore.
func (m *MockTaskStore) Detach(ctx context.Context, task *domain.Task) error {
	m.record("Detach")
	m.mu.Lock()
	m.Detached = append(m.Detached, *task)
	m.mu.Unlock()

	if m.DetachFn != nil {
		return m.DetachFn(ctx, task)
	}
	return nil
}
