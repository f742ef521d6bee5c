package keylock

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics observes registry activity.
type Metrics interface {
	ObserveWait(elapsed time.Duration)
	ObserveOutcome(err error)
	IncInflight()
	DecInflight()
}

var (
	waitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "counter_keylock_wait_seconds",
		Help:    "Time an operation waited for earlier operations on the same key",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	})

	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "counter_keylock_operations_total",
		Help: "Operations run through the key lock registry by outcome",
	}, []string{"outcome"})

	inflight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "counter_keylock_inflight",
		Help: "Operations scheduled and not yet settled",
	})
)

type promMetrics struct{}

func (promMetrics) ObserveWait(d time.Duration) { waitSeconds.Observe(d.Seconds()) }

func (promMetrics) ObserveOutcome(err error) {
	if err != nil {
		operationsTotal.WithLabelValues("error").Inc()
		return
	}
	operationsTotal.WithLabelValues("ok").Inc()
}

func (promMetrics) IncInflight() { inflight.Inc() }
func (promMetrics) DecInflight() { inflight.Dec() }

// NoopMetrics discards all observations.
type NoopMetrics struct{}

func (NoopMetrics) ObserveWait(time.Duration) {}
func (NoopMetrics) ObserveOutcome(error)      {}
func (NoopMetrics) IncInflight()              {}
func (NoopMetrics) DecInflight()              {}
