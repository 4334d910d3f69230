package models

import (
	"errors"
	"fmt"
)

// Action tags a notification with the mutation that produced it.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// NotificationEvent is what the hub fans out after a committed mutation.
// Create and update carry the full todo; delete carries only the id.
type NotificationEvent struct {
	Action Action    `json:"action"`
	Todo   *TodoView `json:"todo,omitempty"`
	ID     string    `json:"id,omitempty"`
}

func CreatedEvent(t Todo) NotificationEvent {
	v := t.View()
	return NotificationEvent{Action: ActionCreate, Todo: &v}
}

func UpdatedEvent(t Todo) NotificationEvent {
	v := t.View()
	return NotificationEvent{Action: ActionUpdate, Todo: &v}
}

func DeletedEvent(id string) NotificationEvent {
	return NotificationEvent{Action: ActionDelete, ID: id}
}

// SocketRequest is a client-to-server message on the notification socket.
type SocketRequest struct {
	Action Action    `json:"action"`
	ID     string    `json:"id,omitempty"`
	Todo   TodoInput `json:"todo"`
}

// SocketReply is sent back to the requesting connection only.
type SocketReply struct {
	Action string              `json:"action"`
	Error  string              `json:"error,omitempty"`
	Fields map[string][]string `json:"fields,omitempty"`
}

// Validate checks that a decoded event has the payload its action requires.
func (e NotificationEvent) Validate() error {
	switch e.Action {
	case ActionCreate, ActionUpdate:
		if e.Todo == nil || e.Todo.ID == "" {
			return fmt.Errorf("%s event without todo", e.Action)
		}
	case ActionDelete:
		if e.ID == "" {
			return errors.New("delete event without id")
		}
	default:
		return fmt.Errorf("unknown action %q", e.Action)
	}
	return nil
}
