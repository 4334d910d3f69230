package controller

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-realtime/internal/hub"
	"todo-realtime/internal/models"
)

func openSocket(t *testing.T, srv *httptest.Server, h *hub.Hub, user string) *websocket.Conn {
	t.Helper()
	before := h.Len()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/socket/todos/?token=" + token(t, user)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.Eventually(t, func() bool { return h.Len() == before+1 }, 2*time.Second, 5*time.Millisecond)
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) models.NotificationEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev models.NotificationEvent
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func TestSocketRequiresToken(t *testing.T) {
	r, _ := newTestEngine(t)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/socket/todos/", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRESTMutationsAreBroadcast(t *testing.T) {
	r, h := newTestEngine(t)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	alice := openSocket(t, srv, h, "alice")
	bob := openSocket(t, srv, h, "bob")

	created := create(t, r, "alice", `{"title":"shared"}`)
	id := created["id"].(string)

	for _, conn := range []*websocket.Conn{alice, bob} {
		ev := readEvent(t, conn)
		assert.Equal(t, models.ActionCreate, ev.Action)
		require.NotNil(t, ev.Todo)
		assert.Equal(t, id, ev.Todo.ID)
		assert.Equal(t, "shared", ev.Todo.Title)
		assert.Equal(t, "alice", ev.Todo.User)
	}

	w := do(t, r, http.MethodPatch, "/todos/"+id+"/", "alice", `{"is_completed":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	ev := readEvent(t, bob)
	assert.Equal(t, models.ActionUpdate, ev.Action)
	assert.True(t, ev.Todo.IsCompleted)

	w = do(t, r, http.MethodDelete, "/todos/"+id+"/", "alice", "")
	require.Equal(t, http.StatusNoContent, w.Code)
	readEvent(t, alice)
	require.NoError(t, alice.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := alice.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"delete","id":"`+id+`"}`, string(raw))
}

func TestSocketInboundMessages(t *testing.T) {
	r, h := newTestEngine(t)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	alice := openSocket(t, srv, h, "alice")
	bob := openSocket(t, srv, h, "bob")

	require.NoError(t, alice.WriteJSON(map[string]any{
		"action": "create",
		"todo":   map[string]any{"title": "from socket", "user": "mallory"},
	}))
	ev := readEvent(t, bob)
	assert.Equal(t, models.ActionCreate, ev.Action)
	assert.Equal(t, "alice", ev.Todo.User)
	assert.Equal(t, "from socket", readEvent(t, alice).Todo.Title)

	// Bob cannot touch Alice's todo; the error goes to Bob only.
	require.NoError(t, bob.WriteJSON(map[string]any{"action": "delete", "id": ev.Todo.ID}))
	require.NoError(t, bob.SetReadDeadline(time.Now().Add(2*time.Second)))
	var reply models.SocketReply
	require.NoError(t, bob.ReadJSON(&reply))
	assert.Equal(t, models.SocketReply{Action: "error", Error: "Not found"}, reply)

	require.NoError(t, alice.WriteJSON(map[string]any{"action": "create", "todo": map[string]any{"title": " "}}))
	require.NoError(t, alice.SetReadDeadline(time.Now().Add(2*time.Second)))
	reply = models.SocketReply{}
	require.NoError(t, alice.ReadJSON(&reply))
	assert.Equal(t, "error", reply.Action)
	assert.Equal(t, []string{"This field may not be blank."}, reply.Fields["title"])

	require.NoError(t, alice.WriteJSON(map[string]any{"action": "update", "id": ev.Todo.ID, "todo": map[string]any{"is_completed": true}}))
	for _, conn := range []*websocket.Conn{alice, bob} {
		upd := readEvent(t, conn)
		assert.Equal(t, models.ActionUpdate, upd.Action)
		assert.Equal(t, "from socket", upd.Todo.Title)
		assert.True(t, upd.Todo.IsCompleted)
	}

	require.NoError(t, alice.WriteMessage(websocket.TextMessage, []byte("not json")))
	reply = models.SocketReply{}
	require.NoError(t, alice.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, alice.ReadJSON(&reply))
	assert.Equal(t, "Invalid message", reply.Error)
}

func TestSocketDisconnectDeregisters(t *testing.T) {
	r, h := newTestEngine(t)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	conn := openSocket(t, srv, h, "alice")

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return h.Len() == 0 }, 2*time.Second, 5*time.Millisecond)
}
