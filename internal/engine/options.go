package engine

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/rotbake/internal/scene"
	"github.com/roach88/rotbake/internal/telemetry"
)

// DefaultRotation is the rotation applied when none is configured.
const DefaultRotation = 180.0

// Option configures Rebake and the Operator.
type Option func(*config)

type config struct {
	workers    int
	duplicator scene.Duplicator
	logger     *slog.Logger
	metrics    *telemetry.Metrics
	tracer     trace.Tracer
	quota      FrameQuota
	runIDs     RunIDGenerator
}

func newConfig(opts []Option) *config {
	c := &config{
		workers:    1,
		duplicator: scene.DefaultDuplicator,
		logger:     slog.Default(),
		tracer:     telemetry.Tracer(nil),
		quota:      NewFrameQuota(DefaultMaxFrames),
		runIDs:     UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithWorkers sets how many frames are resolved concurrently.
//
// Default: 1 (frames baked in order on the calling goroutine).
// Values above 1 require a reentrant Sampler.
func WithWorkers(n int) Option {
	return func(c *config) {
		if n < 1 {
			n = 1
		}
		c.workers = n
	}
}

// WithDuplicator sets how skeleton instances are created.
func WithDuplicator(d scene.Duplicator) Option {
	return func(c *config) {
		if d != nil {
			c.duplicator = d
		}
	}
}

// WithLogger sets the structured logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics records invocations, baked frames and bake durations on m.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(c *config) {
		c.metrics = m
	}
}

// WithTracerProvider traces Rebake and Operator.Run through tp.
// Default: the global provider (a no-op unless one is installed).
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *config) {
		c.tracer = telemetry.Tracer(tp)
	}
}

// WithMaxFrames sets the frame quota for one bake.
//
// Default: 100000 frames (DefaultMaxFrames)
// Use WithMaxFrames(5) for testing quota enforcement.
func WithMaxFrames(n int) Option {
	return func(c *config) {
		c.quota = NewFrameQuota(n)
	}
}

// WithRunIDGenerator sets the run ID source used by the Operator.
// Default: UUIDv7Generator.
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(c *config) {
		if g != nil {
			c.runIDs = g
		}
	}
}
