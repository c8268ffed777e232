package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"HealthTwin/internal/domain/models"
	domrepo "HealthTwin/internal/domain/repository"
	mid "HealthTwin/internal/middleware"
	pkgkafka "HealthTwin/pkg/kafka"
)

// KafkaSamplesHandler consumes readings from Kafka and writes them to storage.
type KafkaSamplesHandler struct {
	topic   string
	storage domrepo.Storage
	metrics domrepo.Metrics
}

func NewKafkaSamplesHandler(topic string, storage domrepo.Storage, metrics domrepo.Metrics) *KafkaSamplesHandler {
	return &KafkaSamplesHandler{topic: topic, storage: storage, metrics: metrics}
}

func (h *KafkaSamplesHandler) Topic() string { return h.topic }

// Handle decodes one Reading JSON message and stores it. Invalid messages
// are returned as errors so the consumer can route them to the DLQ.
func (h *KafkaSamplesHandler) Handle(ctx context.Context, b []byte) error {
	var r models.Reading
	if err := json.Unmarshal(b, &r); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return fmt.Errorf("decode reading: %w", err)
	}
	if err := mid.ValidateReading(&r); err != nil {
		h.metrics.RecordError("consumer_validate")
		return err
	}
	// e2e latency from sample time to now
	h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(time.UnixMilli(r.Timestamp)).Seconds())

	start := time.Now()
	err := h.storage.Store(ctx, &r)
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordMessageSent(BackendClickHouse, string(r.Stream))
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaSamplesHandler)(nil)
