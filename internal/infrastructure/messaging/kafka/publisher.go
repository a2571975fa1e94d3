package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// StatusEvent 決済ステータス変更イベント
type StatusEvent struct {
	Provider  string    `json:"provider"`
	UUID      string    `json:"uuid"`
	OrderID   string    `json:"order_id"`
	Status    string    `json:"status"`
	Amount    string    `json:"amount,omitempty"`
	Currency  string    `json:"currency,omitempty"`
	IsFinal   bool      `json:"is_final"`
	Timestamp time.Time `json:"timestamp"`
}

// StatusPublisher ステータスイベントの発行インターフェース
type StatusPublisher interface {
	Publish(ctx context.Context, event StatusEvent) error
	Close() error
}

// messageWriter kafka.Writer のうち使用するメソッド
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher Kafkaへステータスイベントを書き込む
type Publisher struct {
	writer messageWriter
}

// NewPublisher 新しいPublisherを作成
func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
		},
	}
}

// Publish イベントを注文ID（なければUUID）をキーにして書き込む
func (p *Publisher) Publish(ctx context.Context, event StatusEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal status event: %w", err)
	}

	key := event.OrderID
	if key == "" {
		key = event.UUID
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
	}); err != nil {
		return fmt.Errorf("failed to publish status event: %w", err)
	}
	return nil
}

// Close ライターを閉じる
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher Kafka無効時に使う何もしないPublisher
type NoopPublisher struct{}

// Publish 何もしない
func (NoopPublisher) Publish(ctx context.Context, event StatusEvent) error {
	return nil
}

// Close 何もしない
func (NoopPublisher) Close() error {
	return nil
}
