// Package humanize injects randomized delays between automated actions.
//
// Fixed intervals are a bot fingerprint; a uniformly random wait within
// platform-plausible bounds is a deliberate defense against
// automated-behavior detection, not a performance concern. Do not "optimize"
// these waits away — the per-step ranges mirror what a person plausibly does
// between reading, typing, and clicking.
package humanize

import (
	"context"
	"math/rand"
	"time"
)

// Default ranges applied between actions, unless the operator has configured
// a global override in settings.
var (
	// BetweenPosts separates monitored posts within one polling pass.
	BetweenPosts = Range{30 * time.Second, 120 * time.Second}
	// BetweenSteps separates the individual take-actions on one match
	// (reply, connection check, connect/DM).
	BetweenSteps = Range{60 * time.Second, 180 * time.Second}
	// BeforeCheck is the shorter pause before a read-only connection check.
	BeforeCheck = Range{30 * time.Second, 90 * time.Second}
	// BetweenTargets separates watched accounts in the comment bot;
	// intentionally longer to reduce detectable regularity.
	BetweenTargets = Range{120 * time.Second, 300 * time.Second}
	// BetweenEngagements separates posts engaged within one target.
	BetweenEngagements = Range{60 * time.Second, 240 * time.Second}
	// BetweenSweepChecks separates leads within the connection sweep.
	BetweenSweepChecks = Range{30 * time.Second, 60 * time.Second}
)

// Range bounds a randomized delay.
type Range struct {
	Min time.Duration
	Max time.Duration
}

// Clamp applies an operator override: when both bounds are positive the
// override replaces the built-in range entirely.
func (r Range) Clamp(minSecs, maxSecs int) Range {
	if minSecs > 0 && maxSecs >= minSecs {
		return Range{time.Duration(minSecs) * time.Second, time.Duration(maxSecs) * time.Second}
	}
	return r
}

// Waiter suspends the calling unit of work for a random duration. Rand and
// Sleep are injectable seams so orchestrator tests run without real waits.
type Waiter struct {
	// Rand returns a non-negative pseudo-random number below its argument.
	// Defaults to math/rand.Int63n.
	Rand func(n int64) int64
	// Sleep waits for d or until ctx is done. Defaults to a timer-based wait.
	Sleep func(ctx context.Context, d time.Duration) error
}

// NewWaiter returns a Waiter with the default random source and sleeper.
func NewWaiter() *Waiter { return &Waiter{} }

// Delay blocks for a uniformly random duration in [r.Min, r.Max], or until
// the context is cancelled. A cancelled context returns its error so callers
// can abandon the rest of a pass promptly on shutdown.
func (w *Waiter) Delay(ctx context.Context, r Range) error {
	d := w.pick(r)
	if d <= 0 {
		return ctx.Err()
	}
	sleep := w.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}
	return sleep(ctx, d)
}

func (w *Waiter) pick(r Range) time.Duration {
	if r.Max <= r.Min {
		return r.Min
	}
	randn := w.Rand
	if randn == nil {
		randn = rand.Int63n
	}
	span := int64(r.Max - r.Min)
	return r.Min + time.Duration(randn(span+1))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
