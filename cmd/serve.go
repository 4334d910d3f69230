package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"todo-realtime/internal/cache"
	"todo-realtime/internal/config"
	"todo-realtime/internal/database"
	"todo-realtime/internal/hub"
	"todo-realtime/internal/notify"
	"todo-realtime/internal/queue"
	"todo-realtime/internal/repository"
	"todo-realtime/internal/routes"
	"todo-realtime/internal/service"
	"todo-realtime/internal/worker"
	"todo-realtime/pkg/logger"
)

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Get()
	logger.SetDefault(logger.New(os.Stdout, cfg.LogLevel))
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is not set")
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = cache.Connect(ctx, cfg.RedisURL, cfg.RedisPoolSize)
		if err != nil {
			if cfg.NotifyRelay == config.RelayRedis {
				return fmt.Errorf("redis: %w", err)
			}
			logger.Warn(ctx, "Redis unavailable; list cache disabled", "error", err)
		} else {
			defer rdb.Close()
		}
	}

	h := hub.New()
	defer h.Close()

	notifier, closeNotifier, err := newNotifier(ctx, cfg, h, rdb)
	if err != nil {
		return err
	}
	defer closeNotifier()

	svc := service.NewTodos(store, cache.NewTodos(rdb, time.Duration(cfg.CacheTTL)*time.Second), notifier)

	gin.SetMode(gin.ReleaseMode)
	server := &http.Server{
		Addr: ":" + cfg.HTTPPort,
		Handler: routes.Router(routes.Deps{
			Todos:        svc,
			Hub:          h,
			JWTSecret:    cfg.JWTSecret,
			CORSOrigins:  cfg.CORSOrigins,
			WSSendBuffer: cfg.WSSendBuffer,
		}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "HTTP server listening", "port", cfg.HTTPPort, "store", cfg.StoreDriver, "relay", cfg.NotifyRelay)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	}

	logger.Info(ctx, "Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "Server shutdown error", "error", err)
	}
	// Hijacked sockets are not covered by Shutdown.
	h.Close()
	logger.Info(ctx, "Server stopped")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (repository.Store, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		logger.Warn(ctx, "Using in-memory store; data is lost on exit")
		return repository.NewMemory(), func() {}, nil
	case config.StorePostgres:
		db, err := database.DB(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("database: %w", err)
		}
		if err := database.MigrateOrCreateSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("schema migration: %w", err)
		}
		return repository.NewPostgres(db), func() { _ = db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}

// newNotifier selects how committed events reach the hubs of every replica.
func newNotifier(ctx context.Context, cfg *config.Config, h *hub.Hub, rdb *redis.Client) (service.Notifier, func(), error) {
	switch cfg.NotifyRelay {
	case config.RelayLocal:
		return notify.NewLocal(h), func() {}, nil

	case config.RelayRedis:
		if rdb == nil {
			return nil, nil, errors.New("NOTIFY_RELAY=redis requires REDIS_URL")
		}
		relay := notify.NewRedis(rdb, cfg.RedisNotifyChannel)
		if err := relay.Forward(ctx, h); err != nil {
			return nil, nil, fmt.Errorf("redis forwarder: %w", err)
		}
		return relay, func() {}, nil

	case config.RelayKafka:
		if len(cfg.KafkaBrokers) == 0 {
			return nil, nil, errors.New("NOTIFY_RELAY=kafka requires KAFKA_BROKERS")
		}
		queue.EnsureTopic(ctx, cfg.KafkaBrokers, cfg.KafkaNotifyTopic, cfg.KafkaPartitions)
		producer := queue.NewProducer(ctx, cfg.KafkaBrokers, cfg.KafkaNotifyTopic)
		go worker.Run(ctx, cfg.KafkaBrokers, cfg.KafkaNotifyTopic, h)
		return producer, func() {
			if err := producer.Close(); err != nil {
				logger.Error(ctx, "Kafka producer close failed", "error", err)
			}
		}, nil

	default:
		return nil, nil, fmt.Errorf("unknown NOTIFY_RELAY %q", cfg.NotifyRelay)
	}
}
