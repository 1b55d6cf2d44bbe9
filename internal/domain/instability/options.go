package instability

import (
	"github.com/okian/esmtidy/internal/adapters/workers"
	"github.com/okian/esmtidy/pkg/logger"
)

// Option applies a configuration option to the Calculator.
type Option func(*Calculator)

// WithComposites overrides the positive and negative composite column sets.
func WithComposites(positive, negative []string) Option {
	return func(c *Calculator) {
		if len(positive) > 0 {
			c.positive = positive
		}
		if len(negative) > 0 {
			c.negative = negative
		}
	}
}

// WithWorkerPool sets the pool used to fan out per-participant work.
func WithWorkerPool(pool *workers.Pool) Option {
	return func(c *Calculator) {
		if pool != nil {
			c.pool = pool
		}
	}
}

// WithLogger sets a custom logger for the Calculator.
func WithLogger(l logger.Logger) Option {
	return func(c *Calculator) {
		if l != nil {
			c.logger = l
		}
	}
}
