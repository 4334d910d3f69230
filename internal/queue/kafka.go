package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"todo-realtime/internal/models"
	"todo-realtime/pkg/logger"
)

// EnsureTopic creates the notification topic with the given partitions (idempotent).
// Call at startup; if it fails (e.g. no broker or topic exists), app still runs.
func EnsureTopic(ctx context.Context, brokers []string, topic string, partitions int) {
	if len(brokers) == 0 {
		return
	}
	conn, err := kafka.DialContext(ctx, "tcp", brokers[0])
	if err != nil {
		logger.Debug(ctx, "Kafka dial for topic creation failed", "error", err)
		return
	}
	defer conn.Close()
	controller, err := conn.Controller()
	if err != nil {
		logger.Debug(ctx, "Kafka controller lookup failed", "error", err)
		return
	}
	ctrlConn, err := kafka.DialContext(ctx, "tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	if err != nil {
		logger.Debug(ctx, "Kafka controller dial failed", "error", err)
		return
	}
	defer ctrlConn.Close()
	err = ctrlConn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     partitions,
		ReplicationFactor: 1,
	})
	if err != nil {
		logger.Debug(ctx, "Kafka create topic failed (topic may already exist)", "error", err)
		return
	}
	logger.Info(ctx, "Kafka topic ensured", "topic", topic, "partitions", partitions)
}

// MessageWriter is the subset of *kafka.Writer the producer needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes committed notification events to Kafka.
type Producer struct {
	w MessageWriter
}

// NewProducer builds an async writer for topic.
func NewProducer(ctx context.Context, brokers []string, topic string) *Producer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    100,
		BatchTimeout: 0,
		Async:        true,
		RequiredAcks: kafka.RequireOne,
	}
	logger.Info(ctx, "Kafka producer initialized", "topic", topic, "brokers", brokers)
	return &Producer{w: w}
}

func NewProducerWithWriter(w MessageWriter) *Producer {
	return &Producer{w: w}
}

// Notify publishes ev keyed by todo id, so events for one todo share a partition.
// Failures are logged and otherwise ignored.
func (p *Producer) Notify(ctx context.Context, ev models.NotificationEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		logger.Error(ctx, "Encode notification failed", "error", err)
		return
	}
	if err := p.w.WriteMessages(ctx, kafka.Message{Key: []byte(eventKey(ev)), Value: payload}); err != nil {
		logger.Error(ctx, "Kafka publish notification failed", "error", err, "action", ev.Action)
	}
}

func (p *Producer) Close() error {
	return p.w.Close()
}

func eventKey(ev models.NotificationEvent) string {
	if ev.Todo != nil {
		return ev.Todo.ID
	}
	return ev.ID
}
