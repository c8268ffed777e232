package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	samples      *prometheus.CounterVec
	messagesSent *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	lastValue    *prometheus.GaugeVec
	latency      *prometheus.HistogramVec
	queueDepth   *prometheus.GaugeVec
}

// New creates a recorder registered on the default registry.
func New() *Recorder {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates a recorder registered on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		samples: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "healthtwin_samples_total",
				Help: "Samples generated per stream",
			},
			[]string{"stream", "anomaly"},
		),
		messagesSent: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "healthtwin_messages_sent_total",
				Help: "Total number of readings sent to a backend",
			},
			[]string{"backend", "stream"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "healthtwin_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastValue: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "healthtwin_last_value",
				Help: "Last generated value per stream channel",
			},
			[]string{"stream", "channel"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "healthtwin_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		queueDepth: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "healthtwin_queue_depth",
				Help: "Readings waiting in an in-process queue",
			},
			[]string{"queue"},
		),
	}
}

// RecordSample counts a generated sample.
func (r *Recorder) RecordSample(stream string, anomaly bool) {
	r.samples.WithLabelValues(stream, strconv.FormatBool(anomaly)).Inc()
}

// RecordMessageSent records a reading sent to a backend.
func (r *Recorder) RecordMessageSent(backend, stream string) {
	r.messagesSent.WithLabelValues(backend, stream).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastValue records the newest value of one channel.
func (r *Recorder) RecordLastValue(stream, channel string, v float64) {
	r.lastValue.WithLabelValues(stream, channel).Set(v)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordQueueDepth sets the current length of an in-process queue.
func (r *Recorder) RecordQueueDepth(queue string, n int) {
	r.queueDepth.WithLabelValues(queue).Set(float64(n))
}
