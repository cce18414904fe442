package retry

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nepalihub/portal/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordSleep captures requested delays without waiting
func recordSleep(delays *[]time.Duration) func(context.Context, time.Duration) error {
	return func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return ctx.Err()
	}
}

func TestDo_SuccessFirstAttemptHasNoDelay(t *testing.T) {
	var delays []time.Duration
	var calls int32

	got, err := Do(context.Background(), func(context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "ok", nil
	}, Config{Sleep: recordSleep(&delays)})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, int32(1), calls)
	assert.Empty(t, delays)
}

func TestDo_AlwaysRetryableCallsMaxRetriesTimes(t *testing.T) {
	var delays []time.Duration
	var calls int

	_, err := Do(context.Background(), func(context.Context) (int, error) {
		calls++
		return 0, domain.NewError(domain.KindTransient, "op", "attempt failed")
	}, Config{
		MaxRetries:    4,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      300 * time.Millisecond,
		BackoffFactor: 2,
		Sleep:         recordSleep(&delays),
	})

	require.Error(t, err)
	assert.Equal(t, 4, calls)
	assert.Equal(t, []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		300 * time.Millisecond,
	}, delays)
}

func TestDo_ReturnsLastError(t *testing.T) {
	var calls int
	errs := []error{errors.New("first"), errors.New("second"), errors.New("third")}

	_, err := Do(context.Background(), func(context.Context) (int, error) {
		e := errs[calls]
		calls++
		return 0, e
	}, Config{Sleep: func(context.Context, time.Duration) error { return nil }})

	assert.Equal(t, 3, calls)
	assert.Same(t, errs[2], err)
}

func TestDo_NonRetryableFailsImmediately(t *testing.T) {
	var delays []time.Duration
	var calls int
	cfgErr := domain.NewError(domain.KindConfig, "youtube", "missing API key")

	_, err := Do(context.Background(), func(context.Context) (int, error) {
		calls++
		return 0, cfgErr
	}, Config{Sleep: recordSleep(&delays)})

	assert.Equal(t, 1, calls)
	assert.Same(t, cfgErr, err)
	assert.Empty(t, delays)
}

func TestDo_RecoversAfterTransientFailure(t *testing.T) {
	var calls int
	got, err := Do(context.Background(), func(context.Context) (string, error) {
		calls++
		if calls < 2 {
			return "", errors.New("flaky")
		}
		return "done", nil
	}, Config{Sleep: func(context.Context, time.Duration) error { return nil }})

	require.NoError(t, err)
	assert.Equal(t, "done", got)
	assert.Equal(t, 2, calls)
}

func TestDo_ContextCancelledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls int
	_, err := Do(ctx, func(context.Context) (int, error) {
		calls++
		return 0, errors.New("down")
	}, Config{InitialDelay: time.Hour})

	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDo_CustomClassifierAndHook(t *testing.T) {
	var retried []int
	var calls int

	_, err := Do(context.Background(), func(context.Context) (int, error) {
		calls++
		return 0, errors.New("never retry me")
	}, Config{
		Retryable: func(error) bool { return calls < 2 },
		OnRetry:   func(attempt int, _ time.Duration, _ error) { retried = append(retried, attempt) },
		Sleep:     func(context.Context, time.Duration) error { return nil },
	})

	require.Error(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []int{1}, retried)
}

func TestNextDelay(t *testing.T) {
	tests := []struct {
		delay  time.Duration
		factor float64
		max    time.Duration
		want   time.Duration
	}{
		{time.Second, 2, 10 * time.Second, 2 * time.Second},
		{8 * time.Second, 2, 10 * time.Second, 10 * time.Second},
		{10 * time.Second, 2, 10 * time.Second, 10 * time.Second},
		{time.Second, 1.5, 10 * time.Second, 1500 * time.Millisecond},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NextDelay(tt.delay, tt.factor, tt.max))
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, time.Second, cfg.InitialDelay)
	assert.Equal(t, 10*time.Second, cfg.MaxDelay)
	assert.Equal(t, 2.0, cfg.BackoffFactor)
}
