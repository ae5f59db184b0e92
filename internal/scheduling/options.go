package scheduling

import (
	"log/slog"
	"time"

	"github.com/teemow/meetbook/internal/instrumentation"
	"github.com/teemow/meetbook/internal/meet"
)

// FallbackGenerator produces meet-style links without any remote call.
type FallbackGenerator interface {
	Link() string
}

type options struct {
	logger   *slog.Logger
	metrics  *instrumentation.Metrics
	fallback FallbackGenerator
	now      func() time.Time
}

// Option configures the components in this package.
type Option func(*options)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithFallbackGenerator replaces the generator used when no real link can be created.
func WithFallbackGenerator(g FallbackGenerator) Option {
	return func(o *options) {
		if g != nil {
			o.fallback = g
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		fallback: meet.NewGenerator(nil),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
