package worker

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"todo-realtime/internal/models"
	"todo-realtime/pkg/logger"
)

// Broadcaster receives relayed events, normally *hub.Hub.
type Broadcaster interface {
	Broadcast(ctx context.Context, ev models.NotificationEvent)
}

// Run consumes the notification topic and broadcasts each event to h until
// ctx is done. Every process joins its own consumer group starting at the
// newest offset, so each replica sees every new event and nothing is replayed.
func Run(ctx context.Context, brokers []string, topic string, h Broadcaster) {
	if len(brokers) == 0 {
		logger.Info(ctx, "Kafka forwarder disabled (no brokers)")
		return
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		GroupID:     "todo-notify-" + uuid.New().String(),
		StartOffset: kafka.LastOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
	})
	defer reader.Close()

	logger.Info(ctx, "Kafka forwarder started", "topic", topic)
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error(ctx, "Forwarder fetch failed", "error", err)
			continue
		}
		if err := handleMessage(ctx, h, msg.Value); err != nil {
			logger.Error(ctx, "Forwarder handle failed", "error", err, "payload", string(msg.Value))
		}
		// Commit either way so a poison message cannot block the partition.
		if err := reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			logger.Error(ctx, "Forwarder commit failed", "error", err)
		}
	}
}

func handleMessage(ctx context.Context, h Broadcaster, payload []byte) error {
	var ev models.NotificationEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return err
	}
	if err := ev.Validate(); err != nil {
		return err
	}
	h.Broadcast(ctx, ev)
	return nil
}
