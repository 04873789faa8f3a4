package alerting

import (
	"context"
	"encoding/json"
	"fmt"

	"logdata/internal/platform/kafka/producer"
)

// Producer is the subset of the Kafka producer used for notifications.
type Producer interface {
	Produce(ctx context.Context, msg *producer.Message) error
}

// KafkaNotifier publishes each notification as a JSON record keyed by recipient,
// for a downstream mailer or pager to consume.
type KafkaNotifier struct {
	producer Producer
	topic    string
}

func NewKafkaNotifier(p Producer, topic string) *KafkaNotifier {
	return &KafkaNotifier{producer: p, topic: topic}
}

func (n *KafkaNotifier) Send(ctx context.Context, msg Message) error {
	value, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	err = n.producer.Produce(ctx, &producer.Message{
		Topic: n.topic,
		Key:   []byte(msg.Recipient),
		Value: value,
		Headers: map[string]string{
			"content-type": "application/json",
		},
	})
	if err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}
