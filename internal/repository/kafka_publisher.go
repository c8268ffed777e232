package repository

import (
	"context"

	"HealthTwin/internal/domain/models"
	"HealthTwin/internal/domain/repository"
	pkgkafka "HealthTwin/pkg/kafka"
)

// KafkaPublisher implements Publisher for Kafka. Messages are keyed by
// stream so each stream stays ordered within its partition.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaPublisher creates Kafka publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) repository.Publisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, r *models.Reading) error {
	return p.producer.Publish(ctx, p.topic, []byte(r.Stream), r)
}

func (p *KafkaPublisher) PublishBatch(ctx context.Context, rs []*models.Reading) error {
	if len(rs) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(rs))
	for i, r := range rs {
		msgs[i] = pkgkafka.Message{Key: []byte(r.Stream), Value: r}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
