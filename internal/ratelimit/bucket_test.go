package ratelimit

import (
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestNewTokenBucket_Defaults(t *testing.T) {
	b, err := NewTokenBucket(0, 0)
	if err != nil {
		t.Fatalf("NewTokenBucket failed: %v", err)
	}
	if b.Capacity() != DefaultCapacity {
		t.Errorf("Capacity = %v, want %v", b.Capacity(), DefaultCapacity)
	}
	if b.FillRate() != DefaultFillRate {
		t.Errorf("FillRate = %v, want %v", b.FillRate(), DefaultFillRate)
	}
	if b.Tokens() != DefaultCapacity {
		t.Errorf("Tokens = %v, want full bucket", b.Tokens())
	}
}

func TestNewTokenBucket_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		capacity float64
		fillRate float64
	}{
		{"negative capacity", -1, 3},
		{"negative fill rate", 200, -0.5},
		{"NaN capacity", math.NaN(), 3},
		{"infinite fill rate", 200, math.Inf(1)},
		{"negative infinite capacity", math.Inf(-1), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTokenBucket(tt.capacity, tt.fillRate)
			if !errors.Is(err, ErrInvalidConfiguration) {
				t.Errorf("err = %v, want ErrInvalidConfiguration", err)
			}
		})
	}
}

func TestTokenBucket_BurstUpToCapacity(t *testing.T) {
	clock := newFakeClock()
	b, err := NewTokenBucket(200, 3, WithClock(clock.Now))
	if err != nil {
		t.Fatalf("NewTokenBucket failed: %v", err)
	}

	for i := 0; i < 200; i++ {
		if !b.Take(1) {
			t.Fatalf("take %d failed, want success", i+1)
		}
	}
	if b.Take(1) {
		t.Error("take 201 succeeded, want failure")
	}
}

func TestTokenBucket_Refill(t *testing.T) {
	clock := newFakeClock()
	b, _ := NewTokenBucket(10, 2, WithClock(clock.Now))

	if !b.Take(10) {
		t.Fatal("draining take failed")
	}
	if b.Take(1) {
		t.Fatal("take on empty bucket succeeded")
	}

	clock.Advance(1500 * time.Millisecond)
	if got := b.Tokens(); got != 3 {
		t.Errorf("Tokens after 1.5s = %v, want 3", got)
	}

	// Refill is clipped to capacity.
	clock.Advance(time.Hour)
	if got := b.Tokens(); got != 10 {
		t.Errorf("Tokens after 1h = %v, want 10", got)
	}
}

func TestTokenBucket_FailedTakeKeepsRefilledLevel(t *testing.T) {
	clock := newFakeClock()
	b, _ := NewTokenBucket(5, 1, WithClock(clock.Now))

	b.Take(5)
	clock.Advance(2 * time.Second)

	if b.Take(3) {
		t.Fatal("take(3) with 2 tokens succeeded")
	}
	if got := b.Tokens(); got != 2 {
		t.Errorf("Tokens after failed take = %v, want 2", got)
	}
	if !b.Take(2) {
		t.Error("take(2) with 2 tokens failed")
	}
	if got := b.Tokens(); got != 0 {
		t.Errorf("Tokens = %v, want 0", got)
	}
}

func TestTokenBucket_NonPositiveCount(t *testing.T) {
	b, _ := NewTokenBucket(5, 1)

	if b.Take(0) {
		t.Error("Take(0) succeeded")
	}
	if b.Take(-3) {
		t.Error("Take(-3) succeeded")
	}
	if got := b.Tokens(); got != 5 {
		t.Errorf("Tokens = %v, want 5", got)
	}
}

func TestTokenBucket_TimeUntil(t *testing.T) {
	clock := newFakeClock()
	b, _ := NewTokenBucket(4, 2, WithClock(clock.Now))

	if d, ok := b.TimeUntil(1); !ok || d != 0 {
		t.Errorf("TimeUntil(1) on full bucket = %v, %v; want 0, true", d, ok)
	}

	b.Take(4)
	if d, ok := b.TimeUntil(1); !ok || d != 500*time.Millisecond {
		t.Errorf("TimeUntil(1) on empty bucket = %v, %v; want 500ms, true", d, ok)
	}
	if d, ok := b.TimeUntil(3); !ok || d != 1500*time.Millisecond {
		t.Errorf("TimeUntil(3) = %v, %v; want 1.5s, true", d, ok)
	}
	if _, ok := b.TimeUntil(5); ok {
		t.Error("TimeUntil(5) above capacity reported ok")
	}
}

// For any deficit, waiting Δt yields min(capacity, level + Δt*fillRate).
func TestTokenBucket_RefillProperty(t *testing.T) {
	cases := []struct {
		capacity float64
		fillRate float64
		drain    int
		wait     time.Duration
	}{
		{10, 1, 10, 3 * time.Second},
		{10, 5, 7, time.Second},
		{3, 0.5, 3, 10 * time.Second},
		{200, 3, 150, 20 * time.Second},
	}

	for _, c := range cases {
		clock := newFakeClock()
		b, _ := NewTokenBucket(c.capacity, c.fillRate, WithClock(clock.Now))
		b.Take(c.drain)
		before := b.Tokens()

		clock.Advance(c.wait)

		want := math.Min(c.capacity, before+c.wait.Seconds()*c.fillRate)
		if got := b.Tokens(); math.Abs(got-want) > 1e-9 {
			t.Errorf("cap=%v rate=%v drain=%d wait=%v: tokens = %v, want %v",
				c.capacity, c.fillRate, c.drain, c.wait, got, want)
		}
	}
}

func TestTokenBucket_ConcurrentTakeNoDoubleSpend(t *testing.T) {
	clock := newFakeClock()
	b, _ := NewTokenBucket(100, 1, WithClock(clock.Now))

	var granted atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				if b.Take(1) {
					granted.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	if got := granted.Load(); got != 100 {
		t.Errorf("granted = %d, want 100", got)
	}
	if got := b.Tokens(); got != 0 {
		t.Errorf("Tokens = %v, want 0", got)
	}
}
