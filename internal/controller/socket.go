package controller

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"todo-realtime/internal/hub"
	"todo-realtime/internal/middleware"
	"todo-realtime/internal/models"
	"todo-realtime/internal/service"
	"todo-realtime/pkg/logger"
)

// Socket upgrades authenticated requests to the notification channel.
type Socket struct {
	hub      *hub.Hub
	svc      *service.Todos
	buffer   int
	upgrader websocket.Upgrader
}

// NewSocket returns a handler registering connections with h. buffer bounds
// each connection's outbound queue.
func NewSocket(h *hub.Hub, svc *service.Todos, buffer int) *Socket {
	return &Socket{
		hub:    h,
		svc:    svc,
		buffer: buffer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origins are enforced by the CORS layer and the token.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Serve joins the caller to the broadcast group until the socket closes.
func (s *Socket) Serve(c *gin.Context) {
	user := middleware.User(c)
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn(c.Request.Context(), "WebSocket upgrade failed", "error", err)
		return
	}

	id := uuid.NewString()
	client := hub.NewClient(id, user, s.hub, conn, s.buffer, s.receive)
	s.hub.Register(client)

	// The request context ends when this handler returns.
	ctx := logger.With(context.WithoutCancel(c.Request.Context()), "client_id", id)
	logger.Info(ctx, "WebSocket connected")

	go client.WritePump()
	go client.ReadPump(ctx)
}

// receive applies a client message through the service, as REST does. The
// resulting event reaches every connection including the sender; failures
// are answered to the sender only.
func (s *Socket) receive(ctx context.Context, c *hub.Client, data []byte) {
	var req models.SocketRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.reply(ctx, c, models.SocketReply{Action: "error", Error: "Invalid message"})
		return
	}

	var err error
	switch req.Action {
	case models.ActionCreate:
		_, err = s.svc.Create(ctx, c.UserID(), req.Todo)
	case models.ActionUpdate:
		_, err = s.svc.Update(ctx, c.UserID(), req.ID, req.Todo, true)
	case models.ActionDelete:
		err = s.svc.Delete(ctx, c.UserID(), req.ID)
	default:
		s.reply(ctx, c, models.SocketReply{Action: "error", Error: "Unknown action"})
		return
	}
	if err != nil {
		status, msg, fields := classify(err)
		if status == http.StatusInternalServerError {
			logger.Error(ctx, "Socket request failed", "error", err, "action", req.Action)
		}
		s.reply(ctx, c, models.SocketReply{Action: "error", Error: msg, Fields: fields})
	}
}

func (s *Socket) reply(ctx context.Context, c *hub.Client, r models.SocketReply) {
	b, err := json.Marshal(r)
	if err != nil {
		return
	}
	if err := c.Send(b); err != nil {
		logger.Debug(ctx, "Socket reply dropped", "error", err)
	}
}
