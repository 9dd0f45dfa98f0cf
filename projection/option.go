package projection

import (
	"time"

	"github.com/get-eventually/booking/logger"
)

// DefaultRebuildConcurrency is the number of Aggregates rebuilt in parallel
// by RebuildAll, if not specified.
const DefaultRebuildConcurrency = 4

// RetryConfig configures the exponential backoff used when a Read Model
// Store fails to upsert.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, the first one included.
	MaxAttempts  int
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
}

// DefaultRetryConfig is the RetryConfig used by a Service, if not specified.
var DefaultRetryConfig = RetryConfig{
	MaxAttempts:  3,
	InitialDelay: 100 * time.Millisecond,
	Multiplier:   2,
	MaxDelay:     2 * time.Second,
}

type options struct {
	retry       RetryConfig
	concurrency int
	logger      logger.Logger
}

// Option can be used to change the configuration of a Service.
type Option interface {
	apply(*options)
}

type option func(*options)

func (fn option) apply(opts *options) { fn(opts) }

// WithRetry overrides the retry configuration used when upserting Read Models.
//
// A MaxAttempts value of 1 or less disables retries.
func WithRetry(cfg RetryConfig) Option {
	return option(func(opts *options) {
		opts.retry = cfg
	})
}

// WithRebuildConcurrency sets the number of Aggregates RebuildAll projects
// in parallel.
func WithRebuildConcurrency(n int) Option {
	return option(func(opts *options) {
		if n > 0 {
			opts.concurrency = n
		}
	})
}

// WithLogger adds a Logger to the Service, used to report retries and
// rebuild progress.
func WithLogger(l logger.Logger) Option {
	return option(func(opts *options) {
		opts.logger = l
	})
}
