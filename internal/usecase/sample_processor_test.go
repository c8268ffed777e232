package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"HealthTwin/internal/domain/models"
)

func ecgReading(ts int64) *models.Reading {
	return models.ECGSample{Timestamp: ts, Value: 0.4}.Reading()
}

func TestSampleProcessorRoutes(t *testing.T) {
	pub := &fakePublisher{}
	store := &fakeStorage{}
	m := newFakeMetrics()
	ctx := context.Background()

	require.NoError(t, NewSampleProcessor(pub, store, m, BackendKafka).Process(ctx, ecgReading(1)))
	require.NoError(t, NewSampleProcessor(pub, store, m, BackendClickHouse).Process(ctx, ecgReading(2)))
	require.NoError(t, NewSampleProcessor(pub, store, m, BackendSQLite).Process(ctx, ecgReading(3)))
	require.NoError(t, NewSampleProcessor(pub, store, m, "").Process(ctx, ecgReading(4)))

	assert.Len(t, pub.got, 1)
	assert.Len(t, store.got, 2)
	assert.Equal(t, 1, m.sent["kafka/ecg"])
	assert.Equal(t, 1, m.sent["clickhouse/ecg"])
	assert.Equal(t, 1, m.sent["sqlite/ecg"])
}

func TestSampleProcessorErrors(t *testing.T) {
	m := newFakeMetrics()
	ctx := context.Background()

	assert.Error(t, NewSampleProcessor(nil, nil, m, BackendKafka).Process(ctx, nil))
	assert.Error(t, NewSampleProcessor(nil, nil, m, BackendKafka).Process(ctx, ecgReading(1)))
	assert.Error(t, NewSampleProcessor(nil, nil, m, "s3").Process(ctx, ecgReading(1)))
	assert.ErrorContains(t, NewSampleProcessor(nil, nil, m, BackendSQLite).Process(ctx, ecgReading(1)), "sqlite storage not configured")

	err := NewSampleProcessor(&fakePublisher{err: errDown}, nil, m, BackendKafka).Process(ctx, ecgReading(1))
	assert.ErrorIs(t, err, errDown)
	assert.Equal(t, 4, m.errors["process"])
}

func TestSampleProcessorBatchAndClose(t *testing.T) {
	store := &fakeStorage{}
	pub := &fakePublisher{}
	m := newFakeMetrics()
	p := NewSampleProcessor(pub, store, m, BackendClickHouse)

	require.NoError(t, p.ProcessBatch(context.Background(), []*models.Reading{ecgReading(1), ecgReading(2)}))
	require.NoError(t, p.ProcessBatch(context.Background(), nil))
	assert.Len(t, store.got, 2)
	assert.Equal(t, 2, m.sent["clickhouse/ecg"])

	p.Close()
	assert.True(t, store.closed)
	assert.True(t, pub.closed)
}

func TestKafkaSamplesHandler(t *testing.T) {
	store := &fakeStorage{}
	m := newFakeMetrics()
	h := NewKafkaSamplesHandler("healthtwin.samples", store, m)
	assert.Equal(t, "healthtwin.samples", h.Topic())

	msg := []byte(`{"stream":"eeg","ts":1700000000000,"values":{"alpha":0.1,"beta":0.2,"theta":0.3,"delta":0.4},"anomaly":true,"kind":"deep_sleep"}`)
	require.NoError(t, h.Handle(context.Background(), msg))
	require.Len(t, store.got, 1)
	assert.Equal(t, models.StreamEEG, store.got[0].Stream)
	assert.Equal(t, "deep_sleep", store.got[0].AnomalyKind)
	assert.Equal(t, 0.4, store.got[0].Values["delta"])

	assert.Error(t, h.Handle(context.Background(), []byte(`{`)))
	assert.Error(t, h.Handle(context.Background(), []byte(`{"stream":"emg","ts":1}`)))
	assert.Equal(t, 1, m.errors["consumer_unmarshal"])
	assert.Equal(t, 1, m.errors["consumer_validate"])

	store.err = errDown
	assert.ErrorIs(t, h.Handle(context.Background(), msg), errDown)
}
