// Package hub fans committed todo notifications out to every connected client.
package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"todo-realtime/internal/models"
	"todo-realtime/pkg/logger"
)

// Conn is a registered notification channel. Membership is keyed by handle
// identity, so implementations should be pointer types.
type Conn interface {
	// Send delivers one encoded message. An error marks the connection dead.
	Send(msg []byte) error
	Close() error
}

// Hub holds the single shared group of connections. Every member receives
// every broadcast regardless of which user caused it.
type Hub struct {
	mu    sync.RWMutex
	conns map[Conn]struct{}
}

func New() *Hub {
	return &Hub{conns: make(map[Conn]struct{})}
}

// Register adds c to the group. Registering the same handle twice is a no-op.
func (h *Hub) Register(c Conn) {
	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()
}

// Deregister removes c. Unknown or already removed handles are ignored.
func (h *Hub) Deregister(c Conn) {
	h.mu.Lock()
	delete(h.conns, c)
	h.mu.Unlock()
}

// Len returns the number of registered connections.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Broadcast encodes ev and sends it to the members registered at call time.
// Members that fail are deregistered and closed; the rest still receive it.
func (h *Hub) Broadcast(ctx context.Context, ev models.NotificationEvent) {
	msg, err := json.Marshal(ev)
	if err != nil {
		logger.Error(ctx, "Encode notification failed", "error", err, "action", ev.Action)
		return
	}
	members := h.snapshot()

	failed := 0
	for _, c := range members {
		if err := deliver(c, msg); err != nil {
			failed++
			h.Deregister(c)
			_ = c.Close()
			logger.Debug(ctx, "Dropped connection after failed send", "error", err)
		}
	}
	logger.Debug(ctx, "Notification broadcast",
		"action", ev.Action, "recipients", len(members)-failed, "failed", failed)
}

// Close removes and closes every connection. Used at shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	members := make([]Conn, 0, len(h.conns))
	for c := range h.conns {
		members = append(members, c)
	}
	h.conns = make(map[Conn]struct{})
	h.mu.Unlock()

	for _, c := range members {
		_ = c.Close()
	}
}

func (h *Hub) snapshot() []Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Conn, 0, len(h.conns))
	for c := range h.conns {
		out = append(out, c)
	}
	return out
}

// deliver isolates a misbehaving Conn so one recipient cannot abort the fan-out.
func deliver(c Conn, msg []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("send panicked: %v", r)
		}
	}()
	return c.Send(msg)
}
