package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	APILatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "healthtwin",
			Subsystem: "api",
			Name:      "latency_seconds",
			Help:      "Latency of dashboard API endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	APIErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "healthtwin",
			Subsystem: "api",
			Name:      "errors_total",
			Help:      "Errors by dashboard API endpoint",
		},
		[]string{"endpoint"},
	)

	WSClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "healthtwin",
			Subsystem: "ws",
			Name:      "clients",
			Help:      "Connected live feed clients",
		},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(APILatency, APIErrors, WSClients)
	})
}
