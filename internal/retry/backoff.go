// Package retry implements the exponential-backoff-with-jitter helper shared
// by the broker producer, the broker consumer, and the agent stages. Each
// caller owns its own attempt budget and base delay; this package only
// computes the wait between attempts.
package retry

import (
	"context"
	"crypto/rand"
	"math/big"
	"time"
)

const maxBackoff = 30 * time.Second

// Backoff returns the delay to wait before the given attempt (1-indexed).
// attempt <= 0 returns zero. The delay grows as baseDelay * 2^(attempt-1),
// capped at 30s, with up to +/-25% jitter so that many callers retrying at
// once do not all wake up in lockstep.
func Backoff(baseDelay time.Duration, attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	shift := attempt - 1
	if shift > 30 {
		shift = 30
	}
	backoff := baseDelay * time.Duration(int64(1)<<uint(shift))
	if backoff > maxBackoff || backoff <= 0 {
		backoff = maxBackoff
	}

	half := int64(backoff) / 2
	if half <= 0 {
		return backoff
	}
	n, err := rand.Int(rand.Reader, big.NewInt(half))
	if err != nil {
		return backoff
	}
	jitter := time.Duration(n.Int64()) - backoff/4
	result := backoff + jitter
	if result < 0 {
		result = 0
	}
	return result
}

// Sleep waits for the computed backoff delay or until ctx is cancelled,
// whichever comes first. It returns ctx.Err() if cancellation won the race.
func Sleep(ctx context.Context, baseDelay time.Duration, attempt int) error {
	d := Backoff(baseDelay, attempt)
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do runs fn up to maxAttempts times, sleeping the computed backoff between
// attempts, retrying only while shouldRetry(err) reports true. It returns the
// last error seen once attempts are exhausted or shouldRetry says stop.
func Do(ctx context.Context, maxAttempts int, baseDelay time.Duration, shouldRetry func(error) bool, fn func(attempt int) error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = fn(attempt)
		if lastErr == nil {
			return nil
		}
		if !shouldRetry(lastErr) {
			return lastErr
		}
		if attempt == maxAttempts {
			break
		}
		if err := Sleep(ctx, baseDelay, attempt); err != nil {
			return err
		}
	}
	return lastErr
}
