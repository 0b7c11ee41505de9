package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/phrazzld/taskpipe/internal/domain"
	"github.com/phrazzld/taskpipe/internal/store"
)

// MockPersonStore implements store.PersonStore for testing.
type MockPersonStore struct {
	GetByIDsFn func(ctx context.Context, ids []int64) ([]domain.Person, error)
	GetAllFn   func(ctx context.Context) ([]domain.Person, error)

	// Persons backs the default GetByIDs and GetAll.
	Persons map[int64]domain.Person
	Err     error

	mu    sync.Mutex
	Calls map[string]int
}

var _ store.PersonStore = (*MockPersonStore)(nil)

func (m *MockPersonStore) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Calls == nil {
		m.Calls = make(map[string]int)
	}
	m.Calls[name]++
}

// CallCount returns how often method name was called.
func (m *MockPersonStore) CallCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls[name]
}

// GetByIDs implements store.PersonStore.
func (m *MockPersonStore) GetByIDs(ctx context.Context, ids []int64) ([]domain.Person, error) {
	m.record("GetByIDs")
	if m.GetByIDsFn != nil {
		return m.GetByIDsFn(ctx, ids)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	out := []domain.Person{}
	for _, id := range ids {
		if p, ok := m.Persons[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// GetAll implements store.PersonStore.
func (m *MockPersonStore) GetAll(ctx context.Context) ([]domain.Person, error) {
	m.record("GetAll")
	if m.GetAllFn != nil {
		return m.GetAllFn(ctx)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	out := []domain.Person{}
	for _, p := range m.Persons {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
