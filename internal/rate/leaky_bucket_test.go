package rate

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestNewLeakyBucket(t *testing.T) {
	tests := []struct {
		name     string
		rate     float64
		expected float64
	}{
		{"positive rate", 100.0, 100.0},
		{"zero rate defaults to 1", 0.0, 1.0},
		{"negative rate defaults to 1", -10.0, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lb := NewLeakyBucket(tt.rate)
			if lb.rate != tt.expected {
				t.Errorf("rate = %v, want %v", lb.rate, tt.expected)
			}
		})
	}
}

func TestLeakyBucket_FirstAcquireImmediate(t *testing.T) {
	lb := NewLeakyBucket(1.0) // one per second

	start := time.Now()
	if err := lb.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if d := time.Since(start); d > 10*time.Millisecond {
		t.Errorf("first Acquire() should be immediate, took %v", d)
	}
}

func TestLeakyBucket_Next_Spacing(t *testing.T) {
	rate := 100.0 // 10ms apart
	lb := NewLeakyBucket(rate)

	_ = lb.Next()
	next := lb.Next()

	expected := time.Duration(float64(time.Second) / rate)
	actual := time.Until(next)
	if actual < expected-5*time.Millisecond || actual > expected+5*time.Millisecond {
		t.Errorf("spacing = %v, want ~%v", actual, expected)
	}
}

func TestLeakyBucket_Acquire_RespectsContext(t *testing.T) {
	lb := NewLeakyBucket(1.0)
	_ = lb.Next()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := lb.Acquire(ctx)
	if err != context.DeadlineExceeded {
		t.Errorf("Acquire() error = %v, want DeadlineExceeded", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("Acquire() took %v, should have cancelled quickly", elapsed)
	}
}

func TestLeakyBucket_ConcurrentAccess(t *testing.T) {
	lb := NewLeakyBucket(10000.0)

	var wg sync.WaitGroup
	numGoroutines := 10
	callsPerGoroutine := 50

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < callsPerGoroutine; j++ {
				_ = lb.Acquire(context.Background())
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("concurrent test timed out")
	}

	if got, want := lb.Stats().Admitted, int64(numGoroutines*callsPerGoroutine); got != want {
		t.Errorf("Admitted = %d, want %d", got, want)
	}
}

func TestLeakyBucket_SharedBucketCapsRate(t *testing.T) {
	lim := New(600, PacingSmooth) // 10 per second

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for lim.Acquire(ctx) == nil {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// Slots at 0, 100ms, ... 400ms, with one slot of scheduling slack.
	if admitted > 6 {
		t.Errorf("admitted %d in 500ms at 10/s across 8 workers, want at most 6", admitted)
	}
	if admitted < 4 {
		t.Errorf("admitted %d in 500ms at 10/s, want at least 4", admitted)
	}
}

func TestLeakyBucket_NextSpacesQueuedCallers(t *testing.T) {
	lb := NewLeakyBucket(10)

	first := lb.Next()
	second := lb.Next()
	third := lb.Next()

	if gap := second.Sub(first); gap < 90*time.Millisecond {
		t.Errorf("second slot %v after first, want ~100ms", gap)
	}
	if gap := third.Sub(second); gap < 99*time.Millisecond || gap > 101*time.Millisecond {
		t.Errorf("third slot %v after second, want 100ms", gap)
	}
}
