package calendar

import (
	"context"
	"time"
)

// RetryPolicy is exponential backoff for transient remote failures.
// Attempt n (0-based) waits BaseDelay * 2^n before retrying.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	// Sleep waits for d or until ctx ends. Tests inject a recorder.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy waits 1s, 2s and 4s
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: DefaultMaxRetries,
		BaseDelay:  DefaultBaseDelay,
		Sleep:      SleepContext,
	}
}

// Delay returns the wait before retry n
func (p RetryPolicy) Delay(n int) time.Duration {
	return p.BaseDelay * time.Duration(1<<n)
}

func (p RetryPolicy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep == nil {
		return SleepContext(ctx, d)
	}
	return p.Sleep(ctx, d)
}

// SleepContext blocks for d, returning early with ctx.Err() on cancellation
func SleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
