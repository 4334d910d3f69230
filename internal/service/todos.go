package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/singleflight"

	"todo-realtime/internal/cache"
	"todo-realtime/internal/filter"
	"todo-realtime/internal/models"
	"todo-realtime/internal/repository"
	"todo-realtime/pkg/logger"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthenticated = errors.New("unauthenticated")
)

// Notifier receives an event after a mutation has been committed.
type Notifier interface {
	Notify(ctx context.Context, ev models.NotificationEvent)
}

// Todos implements the todo resource for one authenticated owner per call.
// It is shared by the REST handlers and the socket inbound path.
type Todos struct {
	store    repository.Store
	cache    *cache.Todos
	notifier Notifier
	lists    singleflight.Group
}

// NewTodos wires the resource. c may be nil to disable list caching.
func NewTodos(store repository.Store, c *cache.Todos, notifier Notifier) *Todos {
	return &Todos{store: store, cache: c, notifier: notifier}
}

// List returns the owner's todos matching c. Unfiltered lists are served
// from the cache when possible.
func (s *Todos) List(ctx context.Context, owner string, c filter.Criteria) ([]models.Todo, error) {
	if owner == "" {
		return nil, ErrUnauthenticated
	}
	if !c.IsZero() {
		return s.listFromStore(ctx, owner, c)
	}
	if todos, ok := s.cache.Get(ctx, owner); ok {
		return todos, nil
	}
	v, err, _ := s.lists.Do(owner, func() (interface{}, error) {
		todos, err := s.listFromStore(context.WithoutCancel(ctx), owner, c)
		if err != nil {
			return nil, err
		}
		s.cache.Set(context.WithoutCancel(ctx), owner, todos)
		return todos, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.Todo), nil
}

func (s *Todos) listFromStore(ctx context.Context, owner string, c filter.Criteria) ([]models.Todo, error) {
	todos, err := s.store.List(ctx, owner, c)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	return todos, nil
}

// Get returns one of the owner's todos.
func (s *Todos) Get(ctx context.Context, owner, id string) (models.Todo, error) {
	if owner == "" {
		return models.Todo{}, ErrUnauthenticated
	}
	t, err := s.store.Get(ctx, owner, id)
	if err != nil {
		return models.Todo{}, storeErr("get todo", err)
	}
	return t, nil
}

// Create validates in, stores a todo owned by owner and broadcasts it.
func (s *Todos) Create(ctx context.Context, owner string, in models.TodoInput) (models.Todo, error) {
	if owner == "" {
		return models.Todo{}, ErrUnauthenticated
	}
	if err := validateInput(in, false); err != nil {
		return models.Todo{}, err
	}
	todo := models.Todo{Owner: owner}
	applyInput(&todo, in)

	if err := s.store.Create(ctx, &todo); err != nil {
		return models.Todo{}, fmt.Errorf("create todo: %w", err)
	}
	s.cache.Invalidate(ctx, owner)
	logger.Info(ctx, "Todo created", "id", todo.ID)
	s.notifier.Notify(ctx, models.CreatedEvent(todo))
	return todo, nil
}

// Update replaces the supplied fields of an existing todo and broadcasts it.
// With partial false the title is required; absent optional fields keep
// their stored values either way.
func (s *Todos) Update(ctx context.Context, owner, id string, in models.TodoInput, partial bool) (models.Todo, error) {
	if owner == "" {
		return models.Todo{}, ErrUnauthenticated
	}
	todo, err := s.store.Get(ctx, owner, id)
	if err != nil {
		return models.Todo{}, storeErr("get todo", err)
	}
	if err := validateInput(in, partial); err != nil {
		return models.Todo{}, err
	}
	applyInput(&todo, in)

	if err := s.store.Update(ctx, &todo); err != nil {
		return models.Todo{}, storeErr("update todo", err)
	}
	s.cache.Invalidate(ctx, owner)
	logger.Info(ctx, "Todo updated", "id", todo.ID)
	s.notifier.Notify(ctx, models.UpdatedEvent(todo))
	return todo, nil
}

// Delete removes one of the owner's todos and broadcasts its id.
func (s *Todos) Delete(ctx context.Context, owner, id string) error {
	if owner == "" {
		return ErrUnauthenticated
	}
	if err := s.store.Delete(ctx, owner, id); err != nil {
		return storeErr("delete todo", err)
	}
	s.cache.Invalidate(ctx, owner)
	logger.Info(ctx, "Todo deleted", "id", id)
	s.notifier.Notify(ctx, models.DeletedEvent(id))
	return nil
}

// Ready checks the store and the cache.
func (s *Todos) Ready(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if err := s.cache.Ping(ctx); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	return nil
}

func applyInput(t *models.Todo, in models.TodoInput) {
	if in.Title != nil {
		t.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		t.Description = strings.TrimSpace(*in.Description)
	}
	if in.IsCompleted != nil {
		t.IsCompleted = *in.IsCompleted
	}
}

func storeErr(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
