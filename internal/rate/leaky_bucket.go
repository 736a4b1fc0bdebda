package rate

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// LeakyBucket paces admissions at a fixed rate.
//
// The bucket keeps a virtual "drip" time that advances by 1/rate for every
// admission. Callers ahead of schedule sleep until their drip; callers
// behind schedule are admitted immediately, with at most maxBurst slots
// carried over from idle periods.
type LeakyBucket struct {
	rate        float64 // admissions per second
	lastDrip    time.Time
	accumulated float64
	maxBurst    float64
	mu          sync.Mutex

	admitted atomic.Int64
	waited   atomic.Int64
}

// NewLeakyBucket creates a bucket admitting rate requests per second. The
// first admission is immediate.
func NewLeakyBucket(rate float64) *LeakyBucket {
	if rate <= 0 {
		rate = 1.0
	}
	return &LeakyBucket{
		rate:        rate,
		lastDrip:    time.Now(),
		accumulated: 1.0,
		maxBurst:    1.0,
	}
}

// Next reserves the next slot and returns when it starts. The returned time
// may be now if the bucket is behind schedule. Slots are handed out at
// least 1/rate apart, however many callers share the bucket.
func (lb *LeakyBucket) Next() time.Time {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	now := time.Now()
	interval := time.Duration(float64(time.Second) / lb.rate)

	// A caller is already waiting for a future slot: queue behind it.
	if lb.lastDrip.After(now) {
		lb.accumulated = 0
		lb.lastDrip = lb.lastDrip.Add(interval)
		return lb.lastDrip
	}

	lb.accumulated += now.Sub(lb.lastDrip).Seconds() * lb.rate
	if lb.accumulated > lb.maxBurst {
		lb.accumulated = lb.maxBurst
	}

	if lb.accumulated >= 1.0 {
		lb.accumulated -= 1.0
		lb.lastDrip = now
		return now
	}

	deficit := 1.0 - lb.accumulated
	next := now.Add(time.Duration(deficit / lb.rate * float64(time.Second)))
	lb.accumulated = 0
	lb.lastDrip = next
	return next
}

// Acquire blocks until the caller's reserved slot starts.
func (lb *LeakyBucket) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	next := lb.Next()
	lb.admitted.Add(1)

	wait := time.Until(next)
	if wait <= 0 {
		return nil
	}
	lb.waited.Add(int64(wait))

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Stats returns admission counters.
func (lb *LeakyBucket) Stats() Stats {
	return Stats{
		Admitted:  lb.admitted.Load(),
		TotalWait: time.Duration(lb.waited.Load()),
	}
}
