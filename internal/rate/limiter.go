// Package rate provides the admission gate that caps outbound completion
// requests, retries included, across all generation workers.
//
// # Algorithms
//
// FixedWindow admits at most N requests per window (one minute for RPM
// limits). Once the window is exhausted, callers sleep until the window
// boundary and re-check.
//
// LeakyBucket spreads the same budget evenly across the window instead of
// admitting it in a burst at the start of each minute.
//
// # Thread Safety
//
// All limiters are safe for concurrent use from multiple goroutines.
//
// # Example
//
//	lim := rate.New(60, rate.PacingWindow) // 60 requests per minute
//
//	if err := lim.Acquire(ctx); err != nil {
//	    return err // context cancelled
//	}
//	// issue request
package rate

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Limiter gates outbound requests. Acquire blocks until one admission slot
// is available or ctx is done.
type Limiter interface {
	Acquire(ctx context.Context) error
	Stats() Stats
}

// Pacing selects the limiter algorithm.
type Pacing string

const (
	// PacingWindow admits up to rpm requests at the start of each minute.
	PacingWindow Pacing = "window"

	// PacingSmooth spreads rpm requests evenly over the minute.
	PacingSmooth Pacing = "smooth"
)

// Minute is the window used for requests-per-minute limits.
const Minute = 60 * time.Second

// New returns a limiter for rpm requests per minute. rpm <= 0 disables
// throttling.
func New(rpm int, pacing Pacing) Limiter {
	if rpm <= 0 {
		return Unlimited{}
	}
	if pacing == PacingSmooth {
		return NewLeakyBucket(float64(rpm) / Minute.Seconds())
	}
	return NewFixedWindow(rpm, Minute)
}

// ParsePacing validates a pacing name. Empty selects PacingWindow.
func ParsePacing(s string) (Pacing, error) {
	switch Pacing(s) {
	case "", PacingWindow:
		return PacingWindow, nil
	case PacingSmooth:
		return PacingSmooth, nil
	}
	return "", fmt.Errorf("invalid pacing %q, must be one of: %s, %s", s, PacingWindow, PacingSmooth)
}

// Unlimited admits every request immediately.
type Unlimited struct{}

// Acquire returns immediately unless ctx is already done.
func (Unlimited) Acquire(ctx context.Context) error {
	return ctx.Err()
}

// Stats is always zero; nothing is counted.
func (Unlimited) Stats() Stats { return Stats{} }

// FixedWindow is a fixed-window counter limiter.
type FixedWindow struct {
	limit  int
	window time.Duration

	mu          sync.Mutex
	count       int
	windowStart time.Time

	// Metrics
	admitted atomic.Int64
	waited   atomic.Int64 // nanoseconds spent blocked
}

// NewFixedWindow admits at most limit requests per window.
func NewFixedWindow(limit int, window time.Duration) *FixedWindow {
	if limit < 1 {
		limit = 1
	}
	if window <= 0 {
		window = Minute
	}
	return &FixedWindow{
		limit:       limit,
		window:      window,
		windowStart: time.Now(),
	}
}

// Acquire blocks until the current window has a free slot.
func (fw *FixedWindow) Acquire(ctx context.Context) error {
	start := time.Now()
	defer func() {
		fw.waited.Add(int64(time.Since(start)))
	}()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		wait, ok := fw.tryAdmit(time.Now())
		if ok {
			fw.admitted.Add(1)
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// tryAdmit takes a slot if one is free, otherwise reports how long until the
// window resets.
func (fw *FixedWindow) tryAdmit(now time.Time) (time.Duration, bool) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if now.Sub(fw.windowStart) >= fw.window {
		fw.count = 0
		fw.windowStart = now
	}
	if fw.count < fw.limit {
		fw.count++
		return 0, true
	}
	return fw.windowStart.Add(fw.window).Sub(now), false
}

// Stats returns admission counters.
func (fw *FixedWindow) Stats() Stats {
	return Stats{
		Admitted:  fw.admitted.Load(),
		TotalWait: time.Duration(fw.waited.Load()),
	}
}

// Stats contains limiter counters.
type Stats struct {
	Admitted  int64         `json:"admitted"`
	TotalWait time.Duration `json:"totalWait"`
}
