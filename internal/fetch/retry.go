// Package fetch retries idempotent reads against the commerce backend with
// a bounded exponential backoff, and tracks load generations so that a
// superseded load cannot overwrite newer state.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	// DefaultMaxRetries is the number of retries after the first attempt.
	DefaultMaxRetries      = 3
	DefaultInitialInterval = time.Second
)

// ExhaustedError is returned once every attempt has failed.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("fetch: giving up after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// NotifyFunc observes a failed attempt before the wait that follows it.
// attempt counts from 1.
type NotifyFunc func(attempt int, err error, wait time.Duration)

type Retrier struct {
	maxRetries int
	newBackOff func() backoff.BackOff
	sleep      SleepFunc
	notify     NotifyFunc
}

type Option func(*Retrier)

func WithMaxRetries(n int) Option {
	return func(r *Retrier) {
		if n >= 0 {
			r.maxRetries = n
		}
	}
}

// WithInitialInterval keeps the doubling schedule but starts from d.
func WithInitialInterval(d time.Duration) Option {
	return func(r *Retrier) {
		if d > 0 {
			r.newBackOff = func() backoff.BackOff { return Exponential(d) }
		}
	}
}

func WithBackOff(factory func() backoff.BackOff) Option {
	return func(r *Retrier) {
		if factory != nil {
			r.newBackOff = factory
		}
	}
}

func WithSleep(sleep SleepFunc) Option {
	return func(r *Retrier) {
		if sleep != nil {
			r.sleep = sleep
		}
	}
}

func WithNotify(notify NotifyFunc) Option {
	return func(r *Retrier) {
		if notify != nil {
			r.notify = notify
		}
	}
}

// NewRetrier defaults to 3 retries waiting 1s, 2s and 4s.
func NewRetrier(opts ...Option) *Retrier {
	r := &Retrier{
		maxRetries: DefaultMaxRetries,
		newBackOff: func() backoff.BackOff { return Exponential(DefaultInitialInterval) },
		sleep:      Sleep,
		notify:     func(int, error, time.Duration) {},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// MaxAttempts is the first attempt plus the retries.
func (r *Retrier) MaxAttempts() int {
	return r.maxRetries + 1
}

// Exponential returns a jitter-free schedule of initial * 2^attempt.
func Exponential(initial time.Duration) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initial
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = time.Hour
	b.Reset()
	return b
}

// Sleep is the default SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Do runs op until it succeeds, returns a backoff.Permanent error, the
// context ends, or the retries are used up. Attempts never overlap: the
// next one starts only after the previous failed and its wait elapsed.
func Do[T any](ctx context.Context, r *Retrier, op func(ctx context.Context) (T, error)) (T, error) {
	var (
		zero      T
		attempts  int
		lastErr   error
		permanent *backoff.PermanentError
	)

	pacer := &pacedBackOff{
		ctx:      ctx,
		schedule: r.newBackOff(),
		sleep:    r.sleep,
		notify: func(wait time.Duration) {
			r.notify(attempts, lastErr, wait)
		},
	}

	v, err := backoff.Retry(ctx, func() (T, error) {
		attempts++
		v, err := op(ctx)
		if err != nil {
			lastErr = err
			errors.As(err, &permanent)
		}
		return v, err
	},
		backoff.WithBackOff(pacer),
		backoff.WithMaxTries(uint(r.MaxAttempts())),
		backoff.WithMaxElapsedTime(0),
	)
	if err == nil {
		return v, nil
	}

	switch {
	case pacer.err != nil:
		return zero, pacer.err
	case permanent != nil:
		return zero, permanent.Err
	case ctx.Err() != nil:
		return zero, ctx.Err()
	default:
		return zero, &ExhaustedError{Attempts: attempts, Last: lastErr}
	}
}

// pacedBackOff runs the wait itself through a SleepFunc and hands
// backoff.Retry a zero delay, so tests can observe and skip the waits.
type pacedBackOff struct {
	ctx      context.Context
	schedule backoff.BackOff
	sleep    SleepFunc
	notify   func(wait time.Duration)
	err      error
}

func (p *pacedBackOff) Reset() {
	p.schedule.Reset()
}

func (p *pacedBackOff) NextBackOff() time.Duration {
	wait := p.schedule.NextBackOff()
	if wait == backoff.Stop {
		return backoff.Stop
	}

	p.notify(wait)

	if err := p.sleep(p.ctx, wait); err != nil {
		p.err = err
		return backoff.Stop
	}
	return 0
}
