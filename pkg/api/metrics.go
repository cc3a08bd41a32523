package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Grind outcomes used as the "outcome" label.
const (
	outcomeFound    = "found"
	outcomeTimeout  = "timeout"
	outcomeCanceled = "canceled"
	outcomeFailed   = "failed"
	outcomeInvalid  = "invalid"
)

// Metrics holds the Prometheus metrics exported on /metrics
type Metrics struct {
	GrindsTotal    *prometheus.CounterVec
	AttemptsTotal  prometheus.Counter
	GrindDuration  prometheus.Histogram
	GrindsInFlight prometheus.Gauge
	WorkersInUse   prometheus.Gauge
}

// NewMetrics creates the service metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	if namespace == "" {
		namespace = "seedhunter"
	}
	factory := promauto.With(reg)

	return &Metrics{
		GrindsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "grind",
			Name:      "requests_total",
			Help:      "Total number of grind requests by outcome",
		}, []string{"outcome"}),
		AttemptsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "grind",
			Name:      "attempts_total",
			Help:      "Total number of candidate addresses derived",
		}),
		GrindDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "grind",
			Name:      "duration_seconds",
			Help:      "Wall-clock duration of grind requests",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		}),
		GrindsInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "grind",
			Name:      "in_flight",
			Help:      "Number of grinds currently running",
		}),
		WorkersInUse: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "grind",
			Name:      "workers_in_use",
			Help:      "Worker goroutines held by running grinds",
		}),
	}
}
