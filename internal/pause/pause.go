// Package pause provides context-aware delays driven by an injectable clock.
package pause

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
)

// Func blocks for d or until ctx is done, returning ctx.Err() in the latter case.
type Func func(ctx context.Context, d time.Duration) error

// WithClock returns a Func that waits on clk.
func WithClock(clk clock.Clock) Func {
	return func(ctx context.Context, d time.Duration) error {
		if d <= 0 {
			return ctx.Err()
		}
		timer := clk.Timer(d)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		}
	}
}

// Real waits on the wall clock.
func Real() Func {
	return WithClock(clock.New())
}

// Recorder is a Func for tests: it records requested delays and returns at once.
type Recorder struct {
	Delays []time.Duration
}

// Pause implements Func.
func (r *Recorder) Pause(ctx context.Context, d time.Duration) error {
	r.Delays = append(r.Delays, d)
	return ctx.Err()
}
