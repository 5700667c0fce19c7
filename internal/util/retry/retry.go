// Package retry provides the single bounded-retry primitive shared by every
// deployment stage. Cluster API calls and readiness checks both go through
// Bounded; nothing else in the repository hand-rolls a retry loop.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Config holds retry configuration.
type Config struct {
	Attempts   int           // total attempts, including the first
	Interval   time.Duration // delay between attempts
	MaxDelay   time.Duration // upper bound on the delay when a multiplier is set
	Multiplier float64       // 1.0 means fixed-interval polling
}

// Option is a functional option for retry configuration.
type Option func(*Config)

// Bounded executes operation up to a fixed number of attempts, sleeping
// between attempts. After the attempt budget is exhausted the last error is
// returned wrapped; the loop never runs unbounded. Context cancellation is
// respected between attempts.
//
// Errors wrapped with Fatal() are returned immediately without retrying.
func Bounded(ctx context.Context, operation func() error, opts ...Option) error {
	cfg := &Config{
		Attempts:   5,
		Interval:   2 * time.Second,
		MaxDelay:   30 * time.Second,
		Multiplier: 1.0,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}

	delay := cfg.Interval
	var lastErr error

	for attempt := 1; attempt <= cfg.Attempts; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}
		lastErr = err

		if IsFatal(err) {
			return fmt.Errorf("fatal error (not retrying): %w", err)
		}

		if attempt < cfg.Attempts {
			select {
			case <-ctx.Done():
				return fmt.Errorf("cancelled after %d attempts: %w", attempt, ctx.Err())
			case <-time.After(delay):
				if cfg.Multiplier > 1.0 {
					delay = time.Duration(float64(delay) * cfg.Multiplier)
					if delay > cfg.MaxDelay {
						delay = cfg.MaxDelay
					}
				}
			}
		}
	}

	return fmt.Errorf("operation failed after %d attempts: %w", cfg.Attempts, lastErr)
}

// Attempts sets the total number of attempts, including the first.
func Attempts(n int) Option {
	return func(c *Config) {
		c.Attempts = n
	}
}

// Interval sets the delay between attempts.
func Interval(d time.Duration) Option {
	return func(c *Config) {
		c.Interval = d
	}
}

// Backoff enables exponential backoff with the given multiplier, capped at max.
func Backoff(multiplier float64, max time.Duration) Option {
	return func(c *Config) {
		c.Multiplier = multiplier
		c.MaxDelay = max
	}
}

// FatalError wraps an error to mark it as fatal (non-retryable).
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return e.Err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Fatal marks an error as fatal. Bounded returns fatal errors immediately:
// configuration errors and immutable-field conflicts must not burn the
// attempt budget of a transient failure.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: err}
}

// IsFatal reports whether err is marked fatal.
func IsFatal(err error) bool {
	var fatalErr *FatalError
	return errors.As(err, &fatalErr)
}
