package tween

import (
	"context"
	"time"
)

// DefaultFrameInterval approximates a 60Hz display.
const DefaultFrameInterval = time.Second / 60

// FrameFunc receives every rendered value. Returning an error stops the loop.
type FrameFunc func(value float64) error

// Animate emits frames of ip until the transition settles, emit fails or ctx
// is cancelled. The final settled value is always emitted unless the loop is
// cancelled first.
func Animate(ctx context.Context, ip *Interpolator, interval time.Duration, emit FrameFunc) error {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		value, more := ip.Frame()
		if err := emit(value); err != nil {
			return err
		}
		if !more {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Follow keeps animating ip for as long as ctx lives: each settled transition
// waits for the next target change. Cancelling ctx is how a consumer detaches,
// leaving no timer behind.
func Follow(ctx context.Context, ip *Interpolator, interval time.Duration, emit FrameFunc) error {
	for {
		// Taken before animating so a change during the last frame is not lost.
		changed := ip.Changed()
		if err := Animate(ctx, ip, interval, emit); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changed:
		}
	}
}
