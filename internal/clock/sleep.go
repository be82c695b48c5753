// Package clock holds the pacing primitive shared by rate-limited stages.
package clock

import (
	"context"
	"time"
)

// SleepFunc blocks for d or until ctx is done, returning ctx.Err() in the latter case.
// Components take one so tests can pace without real delays.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the real SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Or returns fn, or Sleep when fn is nil.
func Or(fn SleepFunc) SleepFunc {
	if fn == nil {
		return Sleep
	}
	return fn
}
