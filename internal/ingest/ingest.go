package ingest

import (
	"context"
	"time"
)

// BackoffSleep waits for d unless the context is cancelled first. Returns
// false on cancellation.
func BackoffSleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		d = 200 * time.Millisecond
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
