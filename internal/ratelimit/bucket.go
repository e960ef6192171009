package ratelimit

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"
)

// Default bucket parameters used when a value is left at zero.
const (
	DefaultCapacity = 200
	DefaultFillRate = 3
)

// ErrInvalidConfiguration is returned for a non-positive, NaN or infinite
// capacity or fill rate.
var ErrInvalidConfiguration = errors.New("ratelimit: invalid configuration")

// TokenBucket is a lazily refilled token bucket safe for concurrent use.
type TokenBucket struct {
	mu         sync.Mutex
	capacity   float64
	fillRate   float64 // tokens per second
	tokens     float64
	lastRefill time.Time
	now        func() time.Time
}

// BucketOption configures a TokenBucket.
type BucketOption func(*TokenBucket)

// WithClock replaces the time source. Intended for tests.
func WithClock(now func() time.Time) BucketOption {
	return func(b *TokenBucket) {
		b.now = now
	}
}

// NewTokenBucket creates a full bucket. Zero capacity or fill rate selects
// the default.
func NewTokenBucket(capacity, fillRate float64, opts ...BucketOption) (*TokenBucket, error) {
	if capacity == 0 {
		capacity = DefaultCapacity
	}
	if fillRate == 0 {
		fillRate = DefaultFillRate
	}
	if !validRate(capacity) {
		return nil, fmt.Errorf("%w: capacity must be a positive number, got %v", ErrInvalidConfiguration, capacity)
	}
	if !validRate(fillRate) {
		return nil, fmt.Errorf("%w: fill rate must be a positive number, got %v", ErrInvalidConfiguration, fillRate)
	}

	b := &TokenBucket{
		capacity: capacity,
		fillRate: fillRate,
		tokens:   capacity,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.lastRefill = b.now()

	return b, nil
}

func validRate(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Capacity returns the maximum number of tokens.
func (b *TokenBucket) Capacity() float64 {
	return b.capacity
}

// FillRate returns the refill rate in tokens per second.
func (b *TokenBucket) FillRate() float64 {
	return b.fillRate
}

// Take removes count tokens if available. On failure the token level is left
// at its refilled value.
func (b *TokenBucket) Take(count int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill()

	if count <= 0 {
		return false
	}

	n := float64(count)
	if b.tokens < n {
		return false
	}
	b.tokens -= n
	return true
}

// Tokens returns the current token level after refill.
func (b *TokenBucket) Tokens() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill()
	return b.tokens
}

// TimeUntil returns how long until count tokens are available. It reports
// false if count can never be satisfied.
func (b *TokenBucket) TimeUntil(count int) (time.Duration, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := float64(count)
	if count <= 0 || n > b.capacity {
		return 0, false
	}

	b.refill()

	deficit := n - b.tokens
	if deficit <= 0 {
		return 0, true
	}
	return time.Duration(math.Ceil(deficit / b.fillRate * float64(time.Second))), true
}

// refill must be called with mu held.
func (b *TokenBucket) refill() {
	now := b.now()
	elapsed := now.Sub(b.lastRefill).Seconds()
	if elapsed > 0 {
		b.tokens = math.Min(b.capacity, b.tokens+elapsed*b.fillRate)
	}
	b.lastRefill = now
}
