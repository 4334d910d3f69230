package controller

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"todo-realtime/internal/filter"
	"todo-realtime/internal/middleware"
	"todo-realtime/internal/models"
	"todo-realtime/internal/service"
	"todo-realtime/pkg/logger"
)

// Todos serves the REST todo resource for the authenticated user.
type Todos struct {
	svc *service.Todos
}

func NewTodos(svc *service.Todos) *Todos {
	return &Todos{svc: svc}
}

// List returns the caller's todos, optionally filtered by title,
// description and is_completed.
func (h *Todos) List(c *gin.Context) {
	criteria, err := filter.Parse(c.Request.URL.Query())
	if err != nil {
		respondError(c, err)
		return
	}
	todos, err := h.svc.List(c.Request.Context(), middleware.User(c), criteria)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.Views(todos))
}

func (h *Todos) Get(c *gin.Context) {
	todo, err := h.svc.Get(c.Request.Context(), middleware.User(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, todo.View())
}

// Create stores a todo owned by the caller. Owner fields in the body are ignored.
func (h *Todos) Create(c *gin.Context) {
	in, err := bindInput(c)
	if err != nil {
		respondError(c, err)
		return
	}
	todo, err := h.svc.Create(c.Request.Context(), middleware.User(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, todo.WriteView())
}

// Update handles PUT.
func (h *Todos) Update(c *gin.Context) {
	h.update(c, false)
}

// Patch handles PATCH.
func (h *Todos) Patch(c *gin.Context) {
	h.update(c, true)
}

func (h *Todos) update(c *gin.Context, partial bool) {
	in, err := bindInput(c)
	if err != nil {
		respondError(c, err)
		return
	}
	todo, err := h.svc.Update(c.Request.Context(), middleware.User(c), c.Param("id"), in, partial)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, todo.WriteView())
}

func (h *Todos) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), middleware.User(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// bindInput decodes the request body. An empty body is an empty input so
// that validation reports the missing fields.
func bindInput(c *gin.Context) (models.TodoInput, error) {
	var in models.TodoInput
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		return in, nil
	}
	if err := c.ShouldBindJSON(&in); err != nil && !errors.Is(err, io.EOF) {
		return models.TodoInput{}, decodeError(err)
	}
	return in, nil
}

func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		msg := "Not a valid string."
		if typeErr.Field == "is_completed" {
			msg = "Must be a valid boolean."
		}
		return &service.ValidationError{Fields: map[string][]string{typeErr.Field: {msg}}}
	}
	return &service.ValidationError{Fields: map[string][]string{
		"non_field_errors": {"Invalid JSON body."},
	}}
}

// classify maps a service error to a status, a message and optional field
// errors. It is shared by the REST handlers and the socket.
func classify(err error) (int, string, map[string][]string) {
	var verr *service.ValidationError
	var ferr *filter.Error
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, "Invalid request", verr.Fields
	case errors.As(err, &ferr):
		return http.StatusBadRequest, "Invalid request", ferr.Fields
	case errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized, "Unauthorized", nil
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "Not found", nil
	default:
		return http.StatusInternalServerError, "Internal server error", nil
	}
}

func respondError(c *gin.Context, err error) {
	ctx := c.Request.Context()
	if ctx.Err() != nil || isContextErr(err) {
		c.Abort()
		return
	}
	status, msg, fields := classify(err)
	if status == http.StatusInternalServerError {
		logger.Error(ctx, "Request failed", "error", err)
	}
	body := gin.H{"error": msg}
	if fields != nil {
		body["fields"] = fields
	}
	c.AbortWithStatusJSON(status, body)
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
