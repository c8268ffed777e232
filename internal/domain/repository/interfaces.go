package repository

import (
	"context"
	"time"

	"HealthTwin/internal/domain/models"
)

type Publisher interface {
	Publish(ctx context.Context, r *models.Reading) error
	PublishBatch(ctx context.Context, rs []*models.Reading) error
	Close() error
}

type Storage interface {
	Init(ctx context.Context) error // ensure tables, health checks
	Store(ctx context.Context, r *models.Reading) error
	StoreBatch(ctx context.Context, rs []*models.Reading) error
	Query(ctx context.Context, stream models.Stream, from, to time.Time, limit int) ([]*models.Reading, error)
	Health(ctx context.Context) error // ping
	Close() error
}

type Metrics interface {
	RecordSample(stream string, anomaly bool)
	RecordMessageSent(backend, stream string)
	RecordError(kind string)
	RecordLastValue(stream, channel string, v float64)
	RecordLatency(op string, seconds float64)
	RecordQueueDepth(queue string, n int)
}
