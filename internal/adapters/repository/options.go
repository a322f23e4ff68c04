package repository

import (
	"time"

	"github.com/google/uuid"
)

type options struct {
	now                   func() time.Time
	newID                 func() string
	metricsUpdateInterval time.Duration
}

func defaultOptions() options {
	return options{
		now:                   time.Now,
		newID:                 uuid.NewString,
		metricsUpdateInterval: 5 * time.Second,
	}
}

// Option applies a configuration option to a store.
type Option func(*options)

// WithClock sets the source of CreatedAt timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithIDGenerator sets the record id generator.
func WithIDGenerator(newID func() string) Option {
	return func(o *options) {
		if newID != nil {
			o.newID = newID
		}
	}
}

// WithMetricsUpdateInterval sets the interval for background metrics updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(o *options) {
		if interval > 0 {
			o.metricsUpdateInterval = interval
		}
	}
}
