package syncx

import (
	"context"
	"time"
)

// Sleep waits for d or until ctx is done, reporting whether the full
// duration elapsed.
func Sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// RunInterval calls fn every interval until ctx is done, optionally once up
// front. The next wait starts only after fn returns, so a slow fn never
// stacks calls.
func RunInterval(ctx context.Context, interval time.Duration, immediate bool, fn func(ctx context.Context)) {
	if ctx == nil {
		ctx = context.Background()
	}
	if fn == nil {
		<-ctx.Done()
		return
	}
	if interval <= 0 {
		interval = time.Second
	}

	if immediate {
		fn(ctx)
	}
	for Sleep(ctx, interval) {
		fn(ctx)
	}
}
