package models

import "time"

// Todo is a stored todo item. Owner is the subject of the token that created it.
type Todo struct {
	ID          string
	Title       string
	Description string
	IsCompleted bool
	Owner       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TodoView is the read representation used by list and retrieve.
type TodoView struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	IsCompleted bool      `json:"is_completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	User        string    `json:"user"`
}

// TodoWriteView is the representation returned by create and update. It never
// exposes the owner.
type TodoWriteView struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	IsCompleted bool      `json:"is_completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TodoInput is the body accepted by create and update. Nil fields were absent
// from the request. Any owner or user field sent by the client is ignored.
type TodoInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	IsCompleted *bool   `json:"is_completed"`
}

func (t Todo) View() TodoView {
	return TodoView{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		IsCompleted: t.IsCompleted,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		User:        t.Owner,
	}
}

func (t Todo) WriteView() TodoWriteView {
	return TodoWriteView{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		IsCompleted: t.IsCompleted,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// Views maps todos to their read representation. Never returns nil.
func Views(todos []Todo) []TodoView {
	out := make([]TodoView, 0, len(todos))
	for _, t := range todos {
		out = append(out, t.View())
	}
	return out
}
