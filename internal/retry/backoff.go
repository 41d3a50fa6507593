// Package retry spaces out attach dials while a console is still
// coming up.
package retry

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Backoff retries a failing operation with exponentially growing
// waits.  The zero value retries until ctx ends, starting at one
// second and doubling up to a minute.
type Backoff struct {
	InitialDelay time.Duration // first wait
	MaxDelay     time.Duration // cap on a single wait
	Multiplier   float64       // growth per attempt
	MaxAttempts  int           // tries including the first; zero for no limit
	Jitter       bool          // spread each wait by ±25%

	// Retryable, when set, ends Do on the first error it rejects.
	Retryable func(error) bool
	// OnRetry runs before each wait.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// Attempts returns a jittered Backoff that makes one try plus retries
// more, waiting from initial up to max in between.
func Attempts(retries int, initial, max time.Duration) *Backoff {
	return &Backoff{
		InitialDelay: initial,
		MaxDelay:     max,
		Multiplier:   2,
		MaxAttempts:  retries + 1,
		Jitter:       true,
	}
}

// ExhaustedError is returned when every allowed attempt failed.
type ExhaustedError struct {
	Attempts int
	Err      error // the last failure
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// Do calls fn, numbering attempts from 1, until it succeeds.  It stops
// early on an error Retryable rejects, on ctx, or when MaxAttempts is
// spent.  With a single attempt allowed the error is returned as is.
func (b *Backoff) Do(ctx context.Context, fn func(attempt int) error) error {
	wait := b.InitialDelay
	if wait <= 0 {
		wait = time.Second
	}

	for attempt := 1; ; attempt++ {
		err := fn(attempt)
		switch {
		case err == nil:
			return nil
		case b.Retryable != nil && !b.Retryable(err):
			return err
		case b.MaxAttempts == 1:
			return err
		case b.MaxAttempts > 0 && attempt >= b.MaxAttempts:
			return &ExhaustedError{Attempts: attempt, Err: err}
		}

		d := b.spread(wait)
		if b.OnRetry != nil {
			b.OnRetry(attempt, err, d)
		}
		if err := sleep(ctx, d); err != nil {
			return err
		}
		wait = b.grow(wait)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("retry cancelled: %w", ctx.Err())
	case <-t.C:
		return nil
	}
}

// grow returns the wait after d.
func (b *Backoff) grow(d time.Duration) time.Duration {
	m, ceiling := b.Multiplier, b.MaxDelay
	if m <= 0 {
		m = 2
	}
	if ceiling <= 0 {
		ceiling = time.Minute
	}
	return min(time.Duration(float64(d)*m), ceiling)
}

// spread applies jitter: a uniform pick in [0.75d, 1.25d], never
// below a millisecond.
func (b *Backoff) spread(d time.Duration) time.Duration {
	if !b.Jitter {
		return d
	}
	f := 0.75 + rand.Float64()/2
	return max(time.Duration(float64(d)*f), time.Millisecond)
}
