package pebblestore

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	storageSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "counter_pebble_op_seconds",
		Help:    "Latency of Pebble reads, writes and batch commits",
		Buckets: []float64{0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
	}, []string{"op"})

	storageBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "counter_pebble_bytes_total",
		Help: "Bytes moved through Pebble by operation",
	}, []string{"op"})
)

// PromMetrics exports storage observations as Prometheus collectors.
type PromMetrics struct{}

func (PromMetrics) ObserveWrite(d time.Duration, bytes int) {
	storageSeconds.WithLabelValues("write").Observe(d.Seconds())
	storageBytes.WithLabelValues("write").Add(float64(bytes))
}

func (PromMetrics) ObserveRead(d time.Duration, bytes int) {
	storageSeconds.WithLabelValues("read").Observe(d.Seconds())
	storageBytes.WithLabelValues("read").Add(float64(bytes))
}

func (PromMetrics) ObserveBatchCommit(d time.Duration, numOps int, bytes int) {
	storageSeconds.WithLabelValues("commit").Observe(d.Seconds())
	storageBytes.WithLabelValues("commit").Add(float64(bytes))
}
