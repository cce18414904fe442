// Package retry runs an operation with exponential backoff.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/nepalihub/portal/internal/domain"
)

const (
	DefaultMaxRetries    = 3
	DefaultInitialDelay  = 1 * time.Second
	DefaultMaxDelay      = 10 * time.Second
	DefaultBackoffFactor = 2.0
)

// Config controls Do. Zero values take the defaults.
type Config struct {
	MaxRetries    int           // total attempts before giving up
	InitialDelay  time.Duration // wait before the first retry
	MaxDelay      time.Duration // ceiling on backoff
	BackoffFactor float64       // multiplier applied after each failed attempt

	// Retryable classifies failures. Defaults to domain.IsRetryable.
	Retryable func(error) bool

	// OnRetry is called before each wait with the attempt that failed (1-based)
	OnRetry func(attempt int, delay time.Duration, err error)

	// Sleep waits for d or until ctx is done. Defaults to a timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultConfig returns the standard policy: 3 attempts, 1s doubling to at most 10s
func DefaultConfig() Config {
	return Config{
		MaxRetries:    DefaultMaxRetries,
		InitialDelay:  DefaultInitialDelay,
		MaxDelay:      DefaultMaxDelay,
		BackoffFactor: DefaultBackoffFactor,
	}
}

func (c Config) withDefaults() Config {
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = DefaultInitialDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = DefaultMaxDelay
	}
	if c.BackoffFactor <= 0 {
		c.BackoffFactor = DefaultBackoffFactor
	}
	if c.Retryable == nil {
		c.Retryable = domain.IsRetryable
	}
	if c.Sleep == nil {
		c.Sleep = sleep
	}
	return c
}

// Do invokes op until it succeeds, fails with a non-retryable error, or
// MaxRetries attempts have been made. The last error is returned unchanged.
func Do[T any](ctx context.Context, op func(context.Context) (T, error), cfg Config) (T, error) {
	cfg = cfg.withDefaults()

	var zero T
	delay := min(cfg.InitialDelay, cfg.MaxDelay)

	for attempt := 1; ; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		if !cfg.Retryable(err) || attempt >= cfg.MaxRetries {
			return zero, err
		}

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, delay, err)
		}
		if serr := cfg.Sleep(ctx, delay); serr != nil {
			return zero, errors.Join(serr, err)
		}

		delay = NextDelay(delay, cfg.BackoffFactor, cfg.MaxDelay)
	}
}

// NextDelay multiplies delay by factor, clamped to max
func NextDelay(delay time.Duration, factor float64, max time.Duration) time.Duration {
	next := time.Duration(float64(delay) * factor)
	if next > max || next < 0 {
		return max
	}
	return next
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
