// Package telemetry wires Prometheus metrics and OpenTelemetry tracing for
// the rebake engine and operator.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for rotbake_invocations_total.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Metrics holds Prometheus metrics for rebake invocations.
//
// All methods are safe on a nil *Metrics, so instrumentation can be left in
// place when metrics are disabled.
type Metrics struct {
	Invocations  *prometheus.CounterVec
	FramesBaked  prometheus.Counter
	BakeDuration prometheus.Histogram
}

// NewMetrics creates the metrics and registers them on reg. A nil reg
// creates unregistered collectors.
//
// Metrics:
//   - rotbake_invocations_total{outcome} - operator runs by outcome
//   - rotbake_frames_baked_total - frames resolved into rotated animations
//   - rotbake_bake_duration_seconds - wall time of one Rebake call
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Invocations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rotbake_invocations_total",
				Help: "Total number of rebake invocations",
			},
			[]string{"outcome"}, // "success" or an error code
		),
		FramesBaked: f.NewCounter(
			prometheus.CounterOpts{
				Name: "rotbake_frames_baked_total",
				Help: "Total number of frames baked into rotated animations",
			},
		),
		BakeDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "rotbake_bake_duration_seconds",
				Help:    "Duration of one rebake in seconds",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
			},
		),
	}
}

// RecordInvocation counts one invocation with the given outcome label.
func (m *Metrics) RecordInvocation(outcome string) {
	if m == nil {
		return
	}
	m.Invocations.WithLabelValues(outcome).Inc()
}

// AddFrames counts baked frames.
func (m *Metrics) AddFrames(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.FramesBaked.Add(float64(n))
}

// ObserveBake records the duration of one rebake.
func (m *Metrics) ObserveBake(d time.Duration) {
	if m == nil {
		return
	}
	m.BakeDuration.Observe(d.Seconds())
}

// WriteTextfile writes everything g gathers to path in the Prometheus text
// format, for node_exporter's textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
