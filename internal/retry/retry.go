// Package retry re-issues failed upstream calls with a bounded, fixed-delay
// policy filtered by failure kind.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/Clark-Hu/reactive-movies/internal/failure"
)

const (
	DefaultMaxRetries = 3
	DefaultDelay      = time.Second
)

// Policy decides whether and how often a failed call is attempted again.
type Policy struct {
	// MaxRetries is the number of attempts allowed after the first one.
	MaxRetries int
	// Delay separates consecutive attempts.
	Delay time.Duration
	// RetryTransport makes failure.Transport errors retriable alongside
	// failure.UpstreamServer.
	RetryTransport bool
}

// DefaultPolicy allows four attempts one second apart, transport included.
func DefaultPolicy() Policy {
	return Policy{MaxRetries: DefaultMaxRetries, Delay: DefaultDelay, RetryTransport: true}
}

// Retriable reports whether err is eligible for another attempt.
func (p Policy) Retriable(err error) bool {
	var perm *permanentError
	if errors.As(err, &perm) {
		return false
	}
	switch failure.KindOf(err) {
	case failure.UpstreamServer:
		return true
	case failure.Transport:
		return p.RetryTransport
	default:
		return false
	}
}

// Permanent marks err as not retriable regardless of its kind. Do returns the
// wrapped error, not the marker.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

type permanentError struct{ err error }

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Option tunes a single Do call.
type Option func(*settings)

type settings struct {
	notify func(attempt int, err error, wait time.Duration)
}

// WithNotify registers fn to be called before each retry delay. attempt is
// the 1-based number of the attempt that just failed.
func WithNotify(fn func(attempt int, err error, wait time.Duration)) Option {
	return func(s *settings) {
		s.notify = fn
	}
}

// Do runs op until it succeeds, returns a non-retriable error, or the retry
// budget is spent. On exhaustion the last error from op is returned as is, so
// callers see the same classification a single failed attempt would produce.
// Cancelling ctx abandons any pending delay.
func Do[T any](ctx context.Context, p Policy, op func(context.Context) (T, error), opts ...Option) (T, error) {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}

	maxRetries := p.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	var zero T
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		if !p.Retriable(err) || attempt > maxRetries {
			return zero, unwrapPermanent(err)
		}

		if s.notify != nil {
			s.notify(attempt, err, p.Delay)
		}
		if err := sleep(ctx, p.Delay); err != nil {
			return zero, err
		}
	}
}

func unwrapPermanent(err error) error {
	var perm *permanentError
	if errors.As(err, &perm) {
		return perm.err
	}
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
