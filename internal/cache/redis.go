package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"todo-realtime/internal/models"
	"todo-realtime/pkg/logger"
)

const todosKeyPrefix = "todos:owner:"

// Connect parses url, applies the pool size and pings the server.
func Connect(ctx context.Context, url string, poolSize int) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	opts.PoolSize = poolSize
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	logger.Info(ctx, "Redis client initialized", "pool_size", poolSize)
	return client, nil
}

// Todos caches each owner's unfiltered todo list. A nil *Todos is a valid,
// always-missing cache.
type Todos struct {
	client *redis.Client
	ttl    time.Duration
}

func NewTodos(client *redis.Client, ttl time.Duration) *Todos {
	if client == nil {
		return nil
	}
	return &Todos{client: client, ttl: ttl}
}

// Key returns the cache key for an owner's list.
func Key(owner string) string {
	return todosKeyPrefix + owner
}

// Get reads an owner's list. Returns (nil, false) on miss or error.
func (c *Todos) Get(ctx context.Context, owner string) ([]models.Todo, bool) {
	if c == nil {
		return nil, false
	}
	b, err := c.client.Get(ctx, Key(owner)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		logger.Debug(ctx, "Redis get todos failed", "error", err)
		return nil, false
	}
	var todos []models.Todo
	if err := json.Unmarshal(b, &todos); err != nil {
		logger.Debug(ctx, "Redis unmarshal todos failed", "error", err)
		return nil, false
	}
	return todos, true
}

// Set writes an owner's list with the configured TTL.
func (c *Todos) Set(ctx context.Context, owner string, todos []models.Todo) {
	if c == nil {
		return
	}
	b, err := json.Marshal(todos)
	if err != nil {
		logger.Debug(ctx, "Marshal todos for cache failed", "error", err)
		return
	}
	if err := c.client.Set(ctx, Key(owner), b, c.ttl).Err(); err != nil {
		logger.Debug(ctx, "Redis set todos failed", "error", err)
	}
}

// Invalidate deletes an owner's list so the next read goes to the store.
func (c *Todos) Invalidate(ctx context.Context, owner string) {
	if c == nil {
		return
	}
	if err := c.client.Del(ctx, Key(owner)).Err(); err != nil {
		logger.Debug(ctx, "Redis invalidate todos failed", "error", err)
	}
}

// Ping reports whether Redis is reachable. A nil cache is always healthy.
func (c *Todos) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.client.Ping(ctx).Err()
}
