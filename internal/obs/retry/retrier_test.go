package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordBackoff struct {
	calls []int
}

func (r *recordBackoff) Next(attempt int) time.Duration {
	r.calls = append(r.calls, attempt)
	return 0
}

func TestLinear_Next(t *testing.T) {
	b := Linear{Step: 2 * time.Second}
	assert.Equal(t, 2*time.Second, b.Next(1))
	assert.Equal(t, 4*time.Second, b.Next(2))
	assert.Equal(t, 6*time.Second, b.Next(3))
	assert.Equal(t, 2*time.Second, b.Next(0))
}

func TestDoValue_SucceedsAfterKFailures(t *testing.T) {
	for k := 0; k < 4; k++ {
		t.Run(fmt.Sprintf("k=%d", k), func(t *testing.T) {
			calls := 0
			bo := &recordBackoff{}
			got, err := DoValue(context.Background(), func() (string, error) {
				calls++
				if calls <= k {
					return "", fmt.Errorf("fail %d", calls)
				}
				return "ok", nil
			}, Policy{Name: "test", Attempts: k + 2, Backoff: bo})

			require.NoError(t, err)
			assert.Equal(t, "ok", got)
			assert.Equal(t, k+1, calls)
			assert.Len(t, bo.calls, k)
		})
	}
}

func TestDoValue_AlwaysFailsReturnsLastError(t *testing.T) {
	calls := 0
	bo := &recordBackoff{}
	_, err := DoValue(context.Background(), func() (int, error) {
		calls++
		return 0, fmt.Errorf("attempt %d", calls)
	}, Policy{Attempts: 3, Backoff: bo})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, "attempt 3", err.Error())
	assert.Equal(t, []int{1, 2}, bo.calls, "no wait after the final attempt")
}

func TestDoValue_InvalidAttempts(t *testing.T) {
	for _, n := range []int{0, -1} {
		called := false
		_, err := DoValue(context.Background(), func() (int, error) {
			called = true
			return 1, nil
		}, Policy{Attempts: n})
		assert.ErrorIs(t, err, ErrInvalidAttempts)
		assert.False(t, called)
	}
}

func TestDo_NotRetryableStopsEarly(t *testing.T) {
	permanent := errors.New("permanent")
	calls := 0
	exhausted := false
	err := Do(context.Background(), func() error {
		calls++
		return permanent
	}, Policy{
		Attempts:  5,
		Backoff:   &recordBackoff{},
		Retryable: func(err error) bool { return !errors.Is(err, permanent) },
		OnExhaust: func(error) { exhausted = true },
	})

	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
	assert.True(t, exhausted)
}

func TestDo_ContextCanceledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, func() error {
		calls++
		cancel()
		return errors.New("boom")
	}, Policy{Attempts: 3, Backoff: Linear{Step: time.Hour}})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestCheckinPolicy_Shape(t *testing.T) {
	p := CheckinPolicy(nil, 3, DefaultCheckinStep, nil)
	assert.Equal(t, "checkin", p.Name)
	assert.Equal(t, 3, p.Attempts)
	assert.Equal(t, Linear{Step: 2 * time.Second}, p.Backoff)

	assert.NotPanics(t, func() {
		p.OnAttempt(0, errors.New("x"))
		p.OnExhaust(errors.New("x"))
	})
}
