// Package kafka publishes prediction events for offline analytics and
// retraining-data collection.
package kafka

import (
	"context"
	"encoding/json"
	"time"

	"domain-chat-go/internal/config"
	"domain-chat-go/pkg/log"

	"github.com/segmentio/kafka-go"
)

// PredictionEvent records one routed query. Query text is intentionally
// absent; only the length is carried so the event stream stays free of user
// content.
type PredictionEvent struct {
	Domain     string    `json:"domain"`
	QueryChars int       `json:"query_chars"`
	DurationMS int64     `json:"duration_ms"`
	Degraded   bool      `json:"degraded"`
	Timestamp  time.Time `json:"timestamp"`
}

// Producer writes prediction events to one topic. A nil Producer is a valid
// no-op so callers need no configuration checks.
type Producer struct {
	writer *kafka.Writer
}

// NewProducer creates a Producer, or nil when no brokers are configured.
func NewProducer(cfg config.KafkaConfig) *Producer {
	if cfg.Brokers == "" {
		log.Info("no Kafka brokers configured, prediction events disabled")
		return nil
	}
	writer := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers),
		Topic:    cfg.Topic,
		Balancer: &kafka.LeastBytes{},
	}
	log.Infof("Kafka producer initialized, topic: %s", cfg.Topic)
	return &Producer{writer: writer}
}

// Publish sends one prediction event. Fire and forget: failures are logged
// and never surfaced to the request path.
func (p *Producer) Publish(ctx context.Context, event PredictionEvent) {
	if p == nil {
		return
	}
	eventBytes, err := json.Marshal(event)
	if err != nil {
		log.Errorf("failed to marshal prediction event: %v", err)
		return
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Value: eventBytes}); err != nil {
		log.Errorf("failed to publish prediction event: %v", err)
	}
}

// Close flushes and closes the underlying writer.
func (p *Producer) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}
