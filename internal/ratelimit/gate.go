package ratelimit

import (
	"container/list"
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrExceedsCapacity is returned by Admit when the bucket can never hold a
// single token.
var ErrExceedsCapacity = errors.New("ratelimit: request exceeds bucket capacity")

// minWait bounds dispatcher sleeps so float rounding cannot spin the loop.
const minWait = time.Millisecond

// Gate admits callers through a TokenBucket one token at a time, in arrival
// order.
type Gate struct {
	bucket  *TokenBucket
	logger  *slog.Logger
	observe func(wait time.Duration)

	mu      sync.Mutex
	waiters *list.List // of *waiter
	running bool       // dispatcher goroutine active
}

type waiter struct {
	ready    chan struct{}
	granted  bool
	enqueued time.Time
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithGateLogger sets the logger.
func WithGateLogger(logger *slog.Logger) GateOption {
	return func(g *Gate) {
		g.logger = logger
	}
}

// WithWaitObserver registers a hook called with the time each admitted caller
// spent waiting.
func WithWaitObserver(fn func(wait time.Duration)) GateOption {
	return func(g *Gate) {
		g.observe = fn
	}
}

// NewGate creates a Gate over bucket.
func NewGate(bucket *TokenBucket, opts ...GateOption) *Gate {
	g := &Gate{
		bucket:  bucket,
		logger:  slog.Default(),
		waiters: list.New(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Bucket returns the underlying token bucket.
func (g *Gate) Bucket() *TokenBucket {
	return g.bucket
}

// Waiting returns the number of queued callers.
func (g *Gate) Waiting() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.waiters.Len()
}

// Admit blocks until the caller may proceed or ctx is done. A cancelled caller
// consumes no token.
func (g *Gate) Admit(ctx context.Context) error {
	if g.bucket.Capacity() < 1 {
		return ErrExceedsCapacity
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	g.mu.Lock()
	// Only take directly when nobody is queued, otherwise we'd jump the line.
	if g.waiters.Len() == 0 && g.bucket.Take(1) {
		g.mu.Unlock()
		g.report(0)
		return nil
	}

	w := &waiter{
		ready:    make(chan struct{}),
		enqueued: time.Now(),
	}
	elem := g.waiters.PushBack(w)
	if !g.running {
		g.running = true
		go g.dispatch()
	}
	g.mu.Unlock()

	select {
	case <-w.ready:
		g.report(time.Since(w.enqueued))
		return nil
	case <-ctx.Done():
		g.mu.Lock()
		defer g.mu.Unlock()
		if w.granted {
			// Lost the race with the dispatcher; the token is already ours.
			g.report(time.Since(w.enqueued))
			return nil
		}
		g.waiters.Remove(elem)
		return ctx.Err()
	}
}

// dispatch releases queued waiters as tokens become available and exits once
// the queue drains.
func (g *Gate) dispatch() {
	for {
		g.mu.Lock()
		for g.waiters.Len() > 0 && g.bucket.Take(1) {
			w := g.waiters.Remove(g.waiters.Front()).(*waiter)
			w.granted = true
			close(w.ready)
		}
		if g.waiters.Len() == 0 {
			g.running = false
			g.mu.Unlock()
			return
		}
		wait, _ := g.bucket.TimeUntil(1)
		queued := g.waiters.Len()
		g.mu.Unlock()

		if wait < minWait {
			wait = minWait
		}
		g.logger.Debug("rate limit gate waiting", "queued", queued, "wait", wait)

		time.Sleep(wait)
	}
}

func (g *Gate) report(wait time.Duration) {
	if g.observe != nil {
		g.observe(wait)
	}
}
