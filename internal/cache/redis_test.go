package cache

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-realtime/internal/models"
)

func newTestCache(t *testing.T) (*Todos, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewTodos(client, time.Minute), mr
}

func TestMissThenHit(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	_, ok := c.Get(ctx, "alice")
	assert.False(t, ok)

	ts := time.Date(2026, 1, 2, 3, 4, 5, 678000, time.UTC)
	want := []models.Todo{{ID: "t1", Title: "write code", Owner: "alice", CreatedAt: ts, UpdatedAt: ts}}
	c.Set(ctx, "alice", want)

	got, ok := c.Get(ctx, "alice")
	require.True(t, ok)
	assert.Equal(t, want, got)
	assert.Equal(t, time.Minute, mr.TTL(Key("alice")))

	_, ok = c.Get(ctx, "bob")
	assert.False(t, ok)
}

func TestInvalidate(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, "alice", []models.Todo{{ID: "t1"}})
	c.Invalidate(ctx, "alice")

	assert.False(t, mr.Exists(Key("alice")))
	_, ok := c.Get(ctx, "alice")
	assert.False(t, ok)
}

func TestCorruptEntryIsAMiss(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, mr.Set(Key("alice"), "not json"))

	_, ok := c.Get(context.Background(), "alice")
	assert.False(t, ok)
}

func TestNilCacheIsSafe(t *testing.T) {
	var c *Todos
	ctx := context.Background()

	assert.Nil(t, NewTodos(nil, time.Minute))
	c.Set(ctx, "alice", nil)
	c.Invalidate(ctx, "alice")
	_, ok := c.Get(ctx, "alice")
	assert.False(t, ok)
	assert.NoError(t, c.Ping(ctx))
}
