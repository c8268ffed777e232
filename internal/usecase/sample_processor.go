package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"HealthTwin/internal/domain/models"
	drepo "HealthTwin/internal/domain/repository"
)

// Supported sink backends.
const (
	BackendNone       = "none"
	BackendKafka      = "kafka"
	BackendClickHouse = "clickhouse"
	BackendSQLite     = "sqlite"
)

var errNilReading = errors.New("reading is nil")

// SampleProcessor routes readings to the configured sink backend: kafka
// publishes, clickhouse and sqlite store directly, none drops.
type SampleProcessor struct {
	pub     drepo.Publisher
	store   drepo.Storage
	metrics drepo.Metrics
	backend string
}

// NewSampleProcessor creates a new SampleProcessor. pub and store may be nil
// when the backend does not use them.
func NewSampleProcessor(pub drepo.Publisher, store drepo.Storage, metrics drepo.Metrics, backend string) *SampleProcessor {
	if backend == "" {
		backend = BackendNone
	}
	return &SampleProcessor{pub: pub, store: store, metrics: metrics, backend: backend}
}

// Backend returns the configured backend name.
func (p *SampleProcessor) Backend() string { return p.backend }

// Process forwards a single reading.
func (p *SampleProcessor) Process(ctx context.Context, r *models.Reading) error {
	if r == nil {
		return errNilReading
	}

	start := time.Now()
	var err error
	switch p.backend {
	case BackendNone:
		return nil
	case BackendKafka:
		if p.pub == nil {
			err = fmt.Errorf("kafka publisher not configured")
			break
		}
		err = p.pub.Publish(ctx, r)
	case BackendClickHouse, BackendSQLite:
		if p.store == nil {
			err = fmt.Errorf("%s storage not configured", p.backend)
			break
		}
		err = p.store.Store(ctx, r)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process")
		return fmt.Errorf("process reading: %w", err)
	}

	p.metrics.RecordMessageSent(p.backend, string(r.Stream))
	p.metrics.RecordLatency("process", time.Since(start).Seconds())
	return nil
}

// ProcessBatch forwards readings in one call to the backend.
func (p *SampleProcessor) ProcessBatch(ctx context.Context, rs []*models.Reading) error {
	if len(rs) == 0 || p.backend == BackendNone {
		return nil
	}

	start := time.Now()
	var err error
	switch p.backend {
	case BackendKafka:
		if p.pub == nil {
			err = fmt.Errorf("kafka publisher not configured")
			break
		}
		err = p.pub.PublishBatch(ctx, rs)
	case BackendClickHouse, BackendSQLite:
		if p.store == nil {
			err = fmt.Errorf("%s storage not configured", p.backend)
			break
		}
		err = p.store.StoreBatch(ctx, rs)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process_batch")
		return fmt.Errorf("process batch: %w", err)
	}

	for _, r := range rs {
		p.metrics.RecordMessageSent(p.backend, string(r.Stream))
	}
	p.metrics.RecordLatency("process_batch", time.Since(start).Seconds())
	return nil
}

// Close closes underlying resources if available.
func (p *SampleProcessor) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.store != nil {
		_ = p.store.Close()
	}
}
