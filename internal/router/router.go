package router

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rickgao/alpaca-sdk/internal/metrics"
)

// Handler receives one message. Handlers run on the router's dispatch
// goroutine; a slow handler delays later messages but never the socket.
type Handler func(Envelope)

// Stats contains runtime statistics.
type Stats struct {
	FramesReceived int64
	ParseErrors    int64
	Dispatched     int64 // handler invocations
	Unhandled      int64 // known events with no handler
	UnknownEvents  int64
	HandlerPanics  int64
	Queue          QueueStats
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics records per-event counts under the given stream label.
func WithMetrics(m *metrics.Metrics, stream string) Option {
	return func(r *Router) {
		r.metrics = m
		r.stream = stream
	}
}

// WithQueueSize sets the initial dispatch queue capacity.
func WithQueueSize(n int) Option {
	return func(r *Router) { r.queueSize = n }
}

// Router parses frames of one stream family and fans each message out to
// the handlers registered for its event, in registration order.
type Router struct {
	family    Family
	logger    *slog.Logger
	metrics   *metrics.Metrics
	stream    string
	queueSize int

	mu       sync.RWMutex
	handlers map[Event][]Handler

	queue   *Queue[Envelope]
	start   sync.Once
	stopped atomic.Bool
	done    chan struct{}

	received      atomic.Int64
	parseErrors   atomic.Int64
	dispatched    atomic.Int64
	unhandled     atomic.Int64
	unknown       atomic.Int64
	handlerPanics atomic.Int64
}

// New creates a router for the family. Dispatch starts with Start.
func New(family Family, opts ...Option) *Router {
	r := &Router{
		family:    family,
		logger:    slog.Default(),
		stream:    family.String(),
		queueSize: 256,
		handlers:  make(map[Event][]Handler),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "router", "family", family.String())
	r.queue = NewQueue[Envelope](r.queueSize)
	return r
}

// Family returns the router's stream family.
func (r *Router) Family() Family { return r.family }

// Add registers a handler. The same handler added twice runs twice.
func (r *Router) Add(e Event, h Handler) error {
	if !r.family.Valid(e) {
		return ErrUnknownEvent
	}
	if h == nil {
		return nil
	}
	r.mu.Lock()
	r.handlers[e] = append(r.handlers[e], h)
	r.mu.Unlock()
	return nil
}

// Remove drops every handler of the event and returns how many there were.
func (r *Router) Remove(e Event) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.handlers[e])
	delete(r.handlers, e)
	return n
}

// Handlers returns the number of handlers registered for the event.
func (r *Router) Handlers(e Event) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers[e])
}

// Start launches the dispatch goroutine. Safe to call more than once.
func (r *Router) Start() {
	r.start.Do(func() {
		go r.dispatchLoop()
	})
}

// Stop discards queued messages and stops dispatching. No handler starts
// after Stop returns. It does not wait for a running handler, so it may be
// called from inside one.
func (r *Router) Stop() {
	if !r.stopped.CompareAndSwap(false, true) {
		return
	}
	if n := r.queue.Clear(); n > 0 {
		r.logger.Debug("discarded queued messages", "count", n)
	}
	r.queue.Close()
}

// Done is closed when the dispatch goroutine has exited.
func (r *Router) Done() <-chan struct{} { return r.done }

// Route parses a frame and queues its messages for dispatch. The parsed
// envelopes are returned so the caller can react to control messages
// before handlers see them. Unknown events are logged and dropped. A
// malformed element is dropped on its own; the error reports it alongside
// the envelopes of its well-formed siblings.
func (r *Router) Route(data []byte, receivedAt time.Time) ([]Envelope, error) {
	r.received.Add(1)

	envs, err := Parse(r.family, data, receivedAt)
	if err != nil {
		n := DecodeErrors(err)
		r.parseErrors.Add(int64(n))
		for range n {
			r.metrics.StreamDrop(r.stream, "decode")
		}
		r.logger.Warn("dropping malformed messages", "dropped", n, "kept", len(envs), "error", err)
	}

	for _, env := range envs {
		if !r.family.Valid(env.Event) {
			r.unknown.Add(1)
			r.metrics.StreamDrop(r.stream, "unknown_event")
			r.logger.Debug("dropping unknown event", "event", string(env.Event))
			continue
		}
		r.metrics.StreamMessage(r.stream, string(env.Event))
		if r.stopped.Load() {
			continue
		}
		r.queue.Push(env)
	}
	return envs, err
}

// Stats returns current statistics.
func (r *Router) Stats() Stats {
	return Stats{
		FramesReceived: r.received.Load(),
		ParseErrors:    r.parseErrors.Load(),
		Dispatched:     r.dispatched.Load(),
		Unhandled:      r.unhandled.Load(),
		UnknownEvents:  r.unknown.Load(),
		HandlerPanics:  r.handlerPanics.Load(),
		Queue:          r.queue.Stats(),
	}
}

func (r *Router) dispatchLoop() {
	defer close(r.done)

	for {
		batch, ok := r.queue.PopBatch(64)
		if !ok {
			return
		}
		for _, env := range batch {
			if r.stopped.Load() {
				return
			}
			r.dispatch(env)
		}
	}
}

func (r *Router) dispatch(env Envelope) {
	r.mu.RLock()
	hs := r.handlers[env.Event]
	r.mu.RUnlock()

	if len(hs) == 0 {
		r.unhandled.Add(1)
		return
	}
	for _, h := range hs {
		if r.stopped.Load() {
			return
		}
		r.invoke(h, env)
	}
}

func (r *Router) invoke(h Handler, env Envelope) {
	defer func() {
		if p := recover(); p != nil {
			r.handlerPanics.Add(1)
			r.logger.Error("handler panicked", "event", string(env.Event), "panic", p)
		}
	}()
	h(env)
	r.dispatched.Add(1)
}
