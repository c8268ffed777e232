package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewWithRegisterer(reg)

	r.RecordSample("ecg", true)
	r.RecordSample("ecg", true)
	r.RecordMessageSent("kafka", "eeg")
	r.RecordError("process")
	r.RecordLastValue("eeg", "delta", 0.7)
	r.RecordLatency("process", 0.01)
	r.RecordQueueDepth("pipeline", 5)
	r.RecordQueueDepth("pipeline", 3)

	if got := testutil.ToFloat64(r.samples.WithLabelValues("ecg", "true")); got != 2 {
		t.Fatalf("samples = %v", got)
	}
	if got := testutil.ToFloat64(r.messagesSent.WithLabelValues("kafka", "eeg")); got != 1 {
		t.Fatalf("messages = %v", got)
	}
	if got := testutil.ToFloat64(r.lastValue.WithLabelValues("eeg", "delta")); got != 0.7 {
		t.Fatalf("last value = %v", got)
	}
	if got := testutil.ToFloat64(r.queueDepth.WithLabelValues("pipeline")); got != 3 {
		t.Fatalf("queue depth = %v", got)
	}
	if n := testutil.CollectAndCount(r.latency); n != 1 {
		t.Fatalf("latency series = %d", n)
	}
}
