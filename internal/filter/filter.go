// Package filter turns list query parameters into todo predicates.
package filter

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"todo-realtime/internal/models"
)

// Criteria holds the optional list predicates. Empty strings and a nil
// IsCompleted impose no constraint. Present fields are ANDed.
type Criteria struct {
	Title       string
	Description string
	IsCompleted *bool
}

// Error reports query parameters that could not be parsed.
type Error struct {
	Fields map[string][]string
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for f, msgs := range e.Fields {
		parts = append(parts, f+": "+strings.Join(msgs, " "))
	}
	return "invalid filter: " + strings.Join(parts, "; ")
}

// Parse reads title, description and is_completed from q.
func Parse(q url.Values) (Criteria, error) {
	c := Criteria{
		Title:       q.Get("title"),
		Description: q.Get("description"),
	}
	if raw := strings.TrimSpace(q.Get("is_completed")); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return Criteria{}, &Error{Fields: map[string][]string{
				"is_completed": {"Enter a valid boolean."},
			}}
		}
		c.IsCompleted = &b
	}
	return c, nil
}

// IsZero reports whether c matches every todo.
func (c Criteria) IsZero() bool {
	return c.Title == "" && c.Description == "" && c.IsCompleted == nil
}

// Match evaluates c against a single todo. Ownership is not checked here.
func (c Criteria) Match(t models.Todo) bool {
	if c.Title != "" && !containsFold(t.Title, c.Title) {
		return false
	}
	if c.Description != "" && !containsFold(t.Description, c.Description) {
		return false
	}
	if c.IsCompleted != nil && t.IsCompleted != *c.IsCompleted {
		return false
	}
	return true
}

// SQL renders c as additional AND conditions for a query whose next
// placeholder is $next. It returns an empty clause when c is zero.
func (c Criteria) SQL(next int) (string, []any) {
	var (
		b    strings.Builder
		args []any
	)
	if c.Title != "" {
		fmt.Fprintf(&b, " AND strpos(lower(title), lower($%d)) > 0", next+len(args))
		args = append(args, c.Title)
	}
	if c.Description != "" {
		fmt.Fprintf(&b, " AND strpos(lower(description), lower($%d)) > 0", next+len(args))
		args = append(args, c.Description)
	}
	if c.IsCompleted != nil {
		fmt.Fprintf(&b, " AND is_completed = $%d", next+len(args))
		args = append(args, *c.IsCompleted)
	}
	return b.String(), args
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
