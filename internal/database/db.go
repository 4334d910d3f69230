package database

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	_ "github.com/lib/pq"

	"todo-realtime/internal/config"
	"todo-realtime/pkg/logger"
)

var (
	pool    *sql.DB
	poolErr error
	once    sync.Once
)

// Open opens and pings a Postgres pool.
func Open(ctx context.Context, url string, poolSize int) (*sql.DB, error) {
	if url == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(poolSize)
	db.SetMaxIdleConns(max(poolSize/2, 1))
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// DB returns the process-wide database pool (initialized on first use).
func DB(ctx context.Context) (*sql.DB, error) {
	once.Do(func() {
		cfg := config.Get()
		pool, poolErr = Open(ctx, cfg.DatabaseURL, cfg.DBPoolSize)
		if poolErr != nil {
			logger.Error(ctx, "Failed to open database", "error", poolErr)
			return
		}
		logger.Info(ctx, "Database pool initialized", "max_open", cfg.DBPoolSize)
	})
	return pool, poolErr
}
