// Package retry re-runs failed operations with exponential backoff.
// It serves reminder delivery, where the network to Telegram blinks
// from time to time, while users who blocked the bot must never be
// retried. No external dependencies - uses only standard library.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// Retryable marks an error as transient: the operation is worth repeating.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &markedError{err: err, retryable: true}
}

// Permanent marks an error as final: repeating will not help.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &markedError{err: err, retryable: false}
}

// IsRetryable reports whether the error was marked transient.
func IsRetryable(err error) bool {
	var m *markedError
	return errors.As(err, &m) && m.retryable
}

// IsPermanent reports whether the error was marked final.
func IsPermanent(err error) bool {
	var m *markedError
	return errors.As(err, &m) && !m.retryable
}

type markedError struct {
	err       error
	retryable bool
}

func (e *markedError) Error() string { return e.err.Error() }
func (e *markedError) Unwrap() error { return e.err }

// unmark strips the marker, returning the original error.
func unmark(err error) error {
	var m *markedError
	if errors.As(err, &m) {
		return m.err
	}
	return err
}

// Config holds the retry parameters.
type Config struct {
	// MaxAttempts is the number of attempts, the first one included.
	MaxAttempts int

	// InitialDelay is the pause before the first repeat.
	InitialDelay time.Duration

	// MaxDelay caps the pause.
	MaxDelay time.Duration

	// Multiplier grows the pause after each attempt. One keeps it fixed.
	Multiplier float64

	// Jitter is the random spread fraction of the pause (0..1).
	Jitter float64
}

// Retrier runs operations with repeats per its configuration.
type Retrier struct {
	config Config
}

// New creates a Retrier, substituting defaults for zero values.
func New(config Config) *Retrier {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = 100 * time.Millisecond
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 30 * time.Second
	}
	if config.Multiplier < 1.0 {
		config.Multiplier = 2.0
	}
	if config.Jitter < 0 || config.Jitter > 1 {
		config.Jitter = 0
	}
	return &Retrier{config: config}
}

// Do runs the operation, repeating only errors marked Retryable.
// Unmarked and Permanent errors return immediately; the returned error
// is always the original one with the marker stripped.
func (r *Retrier) Do(ctx context.Context, operation func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		err := operation(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsRetryable(err) || attempt == r.config.MaxAttempts {
			return unmark(err)
		}

		select {
		case <-ctx.Done():
			return unmark(lastErr)
		case <-time.After(r.delay(attempt)):
		}
	}

	return unmark(lastErr)
}

func (r *Retrier) delay(attempt int) time.Duration {
	d := float64(r.config.InitialDelay) * math.Pow(r.config.Multiplier, float64(attempt-1))
	if d > float64(r.config.MaxDelay) {
		d = float64(r.config.MaxDelay)
	}
	if r.config.Jitter > 0 {
		d += d * r.config.Jitter * (rand.Float64()*2 - 1)
	}
	if d < 0 {
		d = 0
	}
	return time.Duration(d)
}

// ReminderRetrier repeats reminder delivery once after a short fixed
// pause. A user unreachable right now will be picked up by the next
// sweep anyway, so aggressive retrying is pointless.
func ReminderRetrier() *Retrier {
	return New(Config{
		MaxAttempts:  2,
		InitialDelay: 2 * time.Second,
		Multiplier:   1.0,
	})
}
