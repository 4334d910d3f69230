// Package notify carries committed todo events from the mutation path to hubs.
//
// Local hands events straight to the in-process hub. Redis publishes them on a
// pub/sub channel so every replica's forwarder can broadcast to its own hub.
// The Kafka relay lives in the queue (producer) and worker (consumer) packages.
package notify

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	"todo-realtime/internal/models"
	"todo-realtime/pkg/logger"
)

// Broadcaster is the receiving side of a relay, normally *hub.Hub.
type Broadcaster interface {
	Broadcast(ctx context.Context, ev models.NotificationEvent)
}

// Local delivers events to an in-process hub.
type Local struct {
	hub Broadcaster
}

func NewLocal(h Broadcaster) *Local {
	return &Local{hub: h}
}

func (l *Local) Notify(ctx context.Context, ev models.NotificationEvent) {
	l.hub.Broadcast(ctx, ev)
}

// Redis publishes events on a pub/sub channel.
type Redis struct {
	client  *redis.Client
	channel string
}

func NewRedis(client *redis.Client, channel string) *Redis {
	return &Redis{client: client, channel: channel}
}

// Notify publishes ev. Failures are logged and otherwise ignored.
func (r *Redis) Notify(ctx context.Context, ev models.NotificationEvent) {
	raw, err := json.Marshal(ev)
	if err != nil {
		logger.Error(ctx, "Encode notification failed", "error", err)
		return
	}
	if err := r.client.Publish(ctx, r.channel, raw).Err(); err != nil {
		logger.Error(ctx, "Redis publish notification failed", "error", err, "action", ev.Action)
	}
}

// Forward subscribes to the channel and broadcasts every valid event to h
// until ctx is done. It returns once the subscription is confirmed.
func (r *Redis) Forward(ctx context.Context, h Broadcaster) error {
	if h == nil {
		return errors.New("broadcaster required")
	}
	sub := r.client.Subscribe(ctx, r.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return err
	}
	logger.Info(ctx, "Redis notification forwarder started", "channel", r.channel)

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok {
					logger.Warn(ctx, "Redis notification channel closed")
					return
				}
				var ev models.NotificationEvent
				if err := json.Unmarshal([]byte(m.Payload), &ev); err != nil {
					logger.Warn(ctx, "Bad notification payload", "error", err)
					continue
				}
				if err := ev.Validate(); err != nil {
					logger.Warn(ctx, "Invalid notification", "error", err)
					continue
				}
				h.Broadcast(ctx, ev)
			}
		}
	}()
	return nil
}
