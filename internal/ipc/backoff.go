package ipc

import (
	"context"
	"math/rand"
	"time"
)

// backoff spaces out connect attempts while the daemon is still starting.
// The wait doubles per retry up to ceiling, with up to 10% jitter either way.
type backoff struct {
	initial time.Duration
	ceiling time.Duration
}

func (b backoff) delay(retry int) time.Duration {
	d := b.initial
	for i := 0; i < retry && d < b.ceiling; i++ {
		d *= 2
	}
	d = min(d, b.ceiling)
	if retry == 0 {
		return d
	}

	d += time.Duration(float64(d) * 0.1 * (2*rand.Float64() - 1))
	return min(d, b.ceiling)
}

// retry calls fn up to attempts times, waiting between calls. It returns nil
// on the first success, ctx.Err() if cancelled while waiting, and otherwise
// the last error from fn.
func (b backoff) retry(ctx context.Context, attempts int, fn func(attempt int) error) error {
	var err error
	for attempt := 0; attempt < max(attempts, 1); attempt++ {
		if attempt > 0 {
			t := time.NewTimer(b.delay(attempt - 1))
			select {
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			case <-t.C:
			}
		}

		if err = fn(attempt); err == nil {
			return nil
		}
	}
	return err
}
