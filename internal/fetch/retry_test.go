package fetch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSleep struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *recordingSleep) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.waits = append(s.waits, d)
	return ctx.Err()
}

func failingOp(failures int) (func(context.Context) (string, error), *int) {
	calls := 0
	return func(context.Context) (string, error) {
		calls++
		if calls <= failures {
			return "", errors.New("boom")
		}
		return "ok", nil
	}, &calls
}

func TestDoSucceedsOnKthAttempt(t *testing.T) {
	for k := 1; k <= 4; k++ {
		rec := &recordingSleep{}
		r := NewRetrier(WithSleep(rec.sleep))
		op, calls := failingOp(k - 1)

		v, err := Do(context.Background(), r, op)

		require.NoError(t, err, "k=%d", k)
		assert.Equal(t, "ok", v)
		assert.Equal(t, k, *calls)
		assert.Len(t, rec.waits, k-1)
	}
}

func TestDoExhaustsAfterFourAttempts(t *testing.T) {
	rec := &recordingSleep{}
	r := NewRetrier(WithSleep(rec.sleep))
	op, calls := failingOp(10)

	_, err := Do(context.Background(), r, op)

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 4, exhausted.Attempts)
	assert.EqualError(t, exhausted.Last, "boom")
	assert.Contains(t, err.Error(), "4 attempts")
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, 4, *calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, rec.waits)
}

func TestDoPermanentErrorStops(t *testing.T) {
	rec := &recordingSleep{}
	r := NewRetrier(WithSleep(rec.sleep))
	sentinel := errors.New("no token")
	calls := 0

	_, err := Do(context.Background(), r, func(context.Context) (int, error) {
		calls++
		return 0, backoff.Permanent(sentinel)
	})

	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, calls)
	assert.Empty(t, rec.waits)
}

func TestDoContextCancelledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := NewRetrier(WithSleep(func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}))
	op, calls := failingOp(10)

	_, err := Do(ctx, r, op)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, *calls)
}

func TestDoNotify(t *testing.T) {
	var attempts []int
	r := NewRetrier(
		WithMaxRetries(2),
		WithInitialInterval(10*time.Millisecond),
		WithSleep(func(context.Context, time.Duration) error { return nil }),
		WithNotify(func(attempt int, err error, wait time.Duration) {
			attempts = append(attempts, attempt)
		}),
	)
	op, _ := failingOp(10)

	_, err := Do(context.Background(), r, op)

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
	assert.Equal(t, []int{1, 2}, attempts)
	assert.Equal(t, 3, r.MaxAttempts())
}

func TestDoAttemptsAreSequential(t *testing.T) {
	var mu sync.Mutex
	inFlight, maxInFlight := 0, 0
	r := NewRetrier(WithInitialInterval(time.Millisecond))

	_, _ = Do(context.Background(), r, func(context.Context) (int, error) {
		mu.Lock()
		inFlight++
		if inFlight > maxInFlight {
			maxInFlight = inFlight
		}
		mu.Unlock()

		time.Sleep(time.Millisecond)

		mu.Lock()
		inFlight--
		mu.Unlock()
		return 0, errors.New("fail")
	})

	assert.Equal(t, 1, maxInFlight)
}

func TestExponentialSchedule(t *testing.T) {
	b := Exponential(time.Second)
	got := []time.Duration{b.NextBackOff(), b.NextBackOff(), b.NextBackOff(), b.NextBackOff()}
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second}, got)
}

func TestSleepHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
	assert.NoError(t, Sleep(context.Background(), time.Millisecond))
}

func TestGeneration(t *testing.T) {
	var g Generation
	first := g.Begin()
	assert.True(t, g.IsCurrent(first))

	second := g.Begin()
	assert.Greater(t, second, first)
	assert.False(t, g.IsCurrent(first))
	assert.True(t, g.IsCurrent(second))
}

func TestDoPermanentOnLastAttemptIsUnwrapped(t *testing.T) {
	sentinel := errors.New("gone")
	r := NewRetrier(WithMaxRetries(1), WithSleep(func(context.Context, time.Duration) error { return nil }))
	calls := 0

	_, err := Do(context.Background(), r, func(context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, errors.New("flaky")
		}
		return 0, backoff.Permanent(sentinel)
	})

	assert.Same(t, sentinel, err)
	assert.Equal(t, 2, calls)
}

// oneWait allows a single one-second wait, then stops.
type oneWait struct{ used bool }

func (o *oneWait) Reset() { o.used = false }

func (o *oneWait) NextBackOff() time.Duration {
	if o.used {
		return backoff.Stop
	}
	o.used = true
	return time.Second
}

func TestDoScheduleStopExhausts(t *testing.T) {
	rec := &recordingSleep{}
	r := NewRetrier(
		WithSleep(rec.sleep),
		WithBackOff(func() backoff.BackOff { return &oneWait{} }),
	)
	op, calls := failingOp(10)

	_, err := Do(context.Background(), r, op)

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 2, exhausted.Attempts)
	assert.Equal(t, 2, *calls)
	assert.Equal(t, []time.Duration{time.Second}, rec.waits)
}
