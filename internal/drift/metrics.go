package drift

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "driftsim"

// Metrics instruments simulator runs.
type Metrics struct {
	Frames       prometheus.Counter
	Runs         *prometheus.CounterVec
	PassDuration prometheus.Histogram
	RunDuration  prometheus.Histogram
}

// NewMetrics creates the simulator collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Frames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "frames_total",
			Help:      "Frames produced by drift runs.",
		}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "runs_total",
			Help:      "Drift runs by final state.",
		}, []string{"state"}),
		PassDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "pass_duration_seconds",
			Help:      "Time to produce one frame.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of whole drift runs.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Frames, m.Runs, m.PassDuration, m.RunDuration)
	}
	return m
}
