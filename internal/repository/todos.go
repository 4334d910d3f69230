package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"todo-realtime/internal/filter"
	"todo-realtime/internal/models"
	"todo-realtime/pkg/logger"
)

// ErrNotFound is returned when no todo with the id exists for the owner.
var ErrNotFound = errors.New("todo not found")

// Store persists todos. Every method is scoped to an owner; a todo that
// belongs to someone else is reported as ErrNotFound.
type Store interface {
	List(ctx context.Context, owner string, c filter.Criteria) ([]models.Todo, error)
	Get(ctx context.Context, owner, id string) (models.Todo, error)
	// Create assigns ID, CreatedAt and UpdatedAt.
	Create(ctx context.Context, todo *models.Todo) error
	// Update writes title, description and completion and refreshes UpdatedAt.
	Update(ctx context.Context, todo *models.Todo) error
	Delete(ctx context.Context, owner, id string) error
	Ping(ctx context.Context) error
}

// now is truncated to microseconds so values survive a Postgres round trip unchanged.
var now = func() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

const todoColumns = `id, title, description, is_completed, owner_id, created_at, updated_at`

// Postgres is the lib/pq backed Store.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTodo(s scanner) (models.Todo, error) {
	var t models.Todo
	err := s.Scan(&t.ID, &t.Title, &t.Description, &t.IsCompleted, &t.Owner, &t.CreatedAt, &t.UpdatedAt)
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return t, err
}

// List returns the owner's todos matching c, oldest first.
func (p *Postgres) List(ctx context.Context, owner string, c filter.Criteria) ([]models.Todo, error) {
	clause, args := c.SQL(2)
	q := `SELECT ` + todoColumns + ` FROM todos WHERE owner_id = $1` + clause + ` ORDER BY created_at, id`
	rows, err := p.db.QueryContext(ctx, q, append([]any{owner}, args...)...)
	if err != nil {
		logger.Error(ctx, "Repository List failed", "error", err)
		return nil, err
	}
	defer rows.Close()
	todos := []models.Todo{}
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			logger.Error(ctx, "Repository scan todo failed", "error", err)
			return nil, err
		}
		todos = append(todos, t)
	}
	return todos, rows.Err()
}

// Get returns one todo by id.
func (p *Postgres) Get(ctx context.Context, owner, id string) (models.Todo, error) {
	if _, err := uuid.Parse(id); err != nil {
		return models.Todo{}, ErrNotFound
	}
	row := p.db.QueryRowContext(ctx,
		`SELECT `+todoColumns+` FROM todos WHERE id = $1 AND owner_id = $2`, id, owner)
	t, err := scanTodo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Todo{}, ErrNotFound
	}
	if err != nil {
		logger.Error(ctx, "Repository Get failed", "error", err, "id", id)
		return models.Todo{}, err
	}
	return t, nil
}

// Create inserts a new todo, creating the owner's user row on first write.
func (p *Postgres) Create(ctx context.Context, todo *models.Todo) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO users (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, todo.Owner); err != nil {
		logger.Error(ctx, "Repository ensure user failed", "error", err)
		return err
	}

	id := uuid.New().String()
	ts := now()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO todos (`+todoColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, todo.Title, todo.Description, todo.IsCompleted, todo.Owner, ts, ts); err != nil {
		logger.Error(ctx, "Repository Create failed", "error", err)
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	todo.ID, todo.CreatedAt, todo.UpdatedAt = id, ts, ts
	return nil
}

// Update rewrites the mutable fields of an existing todo (scoped by owner).
func (p *Postgres) Update(ctx context.Context, todo *models.Todo) error {
	if _, err := uuid.Parse(todo.ID); err != nil {
		return ErrNotFound
	}
	ts := now()
	var created time.Time
	err := p.db.QueryRowContext(ctx,
		`UPDATE todos SET title = $1, description = $2, is_completed = $3, updated_at = $4
		 WHERE id = $5 AND owner_id = $6 RETURNING created_at`,
		todo.Title, todo.Description, todo.IsCompleted, ts, todo.ID, todo.Owner).Scan(&created)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		logger.Error(ctx, "Repository Update failed", "error", err, "id", todo.ID)
		return err
	}
	todo.CreatedAt, todo.UpdatedAt = created.UTC(), ts
	return nil
}

// Delete removes a todo by ID and owner.
func (p *Postgres) Delete(ctx context.Context, owner, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	res, err := p.db.ExecContext(ctx, `DELETE FROM todos WHERE id = $1 AND owner_id = $2`, id, owner)
	if err != nil {
		logger.Error(ctx, "Repository Delete failed", "error", err, "id", id)
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}
