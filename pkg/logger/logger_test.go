package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	mu      sync.Mutex
	topic   string
	batches [][]AggregatedLogEntry
}

func (p *capturePublisher) PublishMessage(_ context.Context, topic string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topic = topic
	p.batches = append(p.batches, payload.([]AggregatedLogEntry))
	return nil
}

func TestCollectorDeduplicatesErrors(t *testing.T) {
	pub := &capturePublisher{}
	l := Nop()
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 10, Topic: "errors", Publisher: pub, Service: "healthtwin"})

	for i := 0; i < 3; i++ {
		l.Error("sink failed", String("stream", "ecg"), Error(errors.New("down")))
	}
	l.Error("sink failed", String("stream", "eeg"), Error(errors.New("down")))
	l.Warn("not collected")
	assert.Equal(t, 2, l.digest().Pending())

	l.RemoveCollector()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	require.Len(t, pub.batches, 1)
	assert.Equal(t, "errors", pub.topic)
	batch := pub.batches[0]
	require.Len(t, batch, 2)
	counts := map[any]int{}
	for _, e := range batch {
		counts[e.Fields["stream"]] = e.Count
		assert.Equal(t, "down", e.Fields["error"])
		assert.Equal(t, "healthtwin", e.Service)
		assert.Contains(t, e.Caller, "logger/logger_test.go:")
	}
	assert.Equal(t, map[any]int{"ecg": 3, "eeg": 1}, counts)
}

func TestCollectorFlushesAtThreshold(t *testing.T) {
	pub := &capturePublisher{}
	c := NewLogCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 2, Publisher: pub})
	c.AddLog("error", "a", nil, "x:1")
	c.AddLog("error", "b", nil, "x:2")
	assert.Equal(t, 0, c.Pending())
	c.Close()
	c.Close()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	require.Len(t, pub.batches, 1)
	assert.Len(t, pub.batches[0], 2)
}

func TestShortPath(t *testing.T) {
	assert.Equal(t, "usecase/monitor.go", shortPath("/src/healthtwin/internal/usecase/monitor.go"))
	assert.Equal(t, "main.go", shortPath("main.go"))
}

func TestNopAndFieldValues(t *testing.T) {
	l := Nop()
	l.Info("ignored", Float64("v", 1.5), Duration("d", 2*time.Second), Bool("b", true))

	k, v := Duration("d", 1500*time.Millisecond).GetKeyValue()
	assert.Equal(t, "d", k)
	assert.Equal(t, 1500, v)

	_, v = Error(nil).GetKeyValue()
	assert.Nil(t, v)
}

func TestWithAndLevel(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(&buf, "warn")
	require.NoError(t, err)

	child := l.With(String("component", "hub"))
	child.Info("dropped")
	child.Warn("slow client", Int("queued", 3))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "hub", entry["component"])
	assert.EqualValues(t, 3, entry["queued"])
	assert.Contains(t, entry["caller"], "logger_test.go")

	_, err = NewWithWriter(&buf, "loud")
	assert.Error(t, err)
}

func TestChildSharesCollector(t *testing.T) {
	pub := &capturePublisher{}
	l := Nop()
	child := l.With(String("component", "kafka"))
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 10, Publisher: pub})

	child.Error("consume failed")
	assert.Equal(t, 1, l.digest().Pending())

	l.RemoveCollector()
	child.Error("after removal")
	assert.Nil(t, child.digest())
}
