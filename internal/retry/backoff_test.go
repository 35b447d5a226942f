package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoff_ZeroAttempt(t *testing.T) {
	assert.Equal(t, time.Duration(0), Backoff(100*time.Millisecond, 0))
}

func TestBackoff_FirstAttemptWithinJitterBand(t *testing.T) {
	d := Backoff(100*time.Millisecond, 1)
	assert.GreaterOrEqual(t, d, 50*time.Millisecond)
	assert.LessOrEqual(t, d, 150*time.Millisecond)
}

func TestBackoff_GrowsExponentiallyThenCaps(t *testing.T) {
	prev := time.Duration(0)
	for attempt := 1; attempt <= 5; attempt++ {
		d := Backoff(200*time.Millisecond, attempt)
		expected := 200 * time.Millisecond * time.Duration(int64(1)<<uint(attempt-1))
		assert.GreaterOrEqual(t, d, expected-expected/4)
		assert.LessOrEqual(t, d, expected+expected/4)
		prev = d
	}
	capped := Backoff(200*time.Millisecond, 40)
	assert.LessOrEqual(t, capped, maxBackoff+maxBackoff/4)
	_ = prev
}

func TestDo_StopsOnFirstSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), 3, time.Millisecond, func(error) bool { return true }, func(attempt int) error {
		calls++
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesUntilBudgetExhausted(t *testing.T) {
	calls := 0
	sentinel := errors.New("boom")
	err := Do(context.Background(), 3, time.Millisecond, func(error) bool { return true }, func(attempt int) error {
		calls++
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 3, calls)
}

func TestDo_DoesNotRetryWhenShouldRetryFalse(t *testing.T) {
	calls := 0
	sentinel := errors.New("fatal")
	err := Do(context.Background(), 3, time.Millisecond, func(error) bool { return false }, func(attempt int) error {
		calls++
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, calls)
}
