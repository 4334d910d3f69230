package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"todo-realtime/internal/filter"
	"todo-realtime/internal/models"
)

// Memory is an in-process Store for local development (STORE_DRIVER=memory)
// and tests. Data is lost on restart.
type Memory struct {
	mu    sync.RWMutex
	seq   int64
	todos map[string]memoryRow
}

type memoryRow struct {
	seq  int64
	todo models.Todo
}

func NewMemory() *Memory {
	return &Memory{todos: make(map[string]memoryRow)}
}

func (m *Memory) List(_ context.Context, owner string, c filter.Criteria) ([]models.Todo, error) {
	m.mu.RLock()
	rows := make([]memoryRow, 0, len(m.todos))
	for _, r := range m.todos {
		if r.todo.Owner == owner && c.Match(r.todo) {
			rows = append(rows, r)
		}
	}
	m.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })
	out := make([]models.Todo, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.todo)
	}
	return out, nil
}

func (m *Memory) Get(_ context.Context, owner, id string) (models.Todo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.todos[id]
	if !ok || r.todo.Owner != owner {
		return models.Todo{}, ErrNotFound
	}
	return r.todo, nil
}

func (m *Memory) Create(_ context.Context, todo *models.Todo) error {
	ts := now()
	todo.ID = uuid.New().String()
	todo.CreatedAt, todo.UpdatedAt = ts, ts

	m.mu.Lock()
	m.seq++
	m.todos[todo.ID] = memoryRow{seq: m.seq, todo: *todo}
	m.mu.Unlock()
	return nil
}

func (m *Memory) Update(_ context.Context, todo *models.Todo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.todos[todo.ID]
	if !ok || r.todo.Owner != todo.Owner {
		return ErrNotFound
	}
	r.todo.Title = todo.Title
	r.todo.Description = todo.Description
	r.todo.IsCompleted = todo.IsCompleted
	r.todo.UpdatedAt = now()
	m.todos[todo.ID] = r
	*todo = r.todo
	return nil
}

func (m *Memory) Delete(_ context.Context, owner, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.todos[id]
	if !ok || r.todo.Owner != owner {
		return ErrNotFound
	}
	delete(m.todos, id)
	return nil
}

func (m *Memory) Ping(context.Context) error { return nil }
