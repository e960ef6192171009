package connection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/rickgao/alpaca-sdk/internal/auth"
	"github.com/rickgao/alpaca-sdk/internal/config"
	"github.com/rickgao/alpaca-sdk/internal/metrics"
	"github.com/rickgao/alpaca-sdk/internal/router"
)

// ErrAlreadyStarted is returned by a second Connect call.
var ErrAlreadyStarted = errors.New("stream already started")

// Manager owns one stream socket: it authenticates, keeps subscriptions in
// sync with the server, reconnects within a retry budget and dispatches
// inbound messages to handlers.
type Manager interface {
	// Connect dials and starts the session loop. A dial failure is
	// returned and also counts as a close, so a reconnect may follow.
	Connect(ctx context.Context) error

	// Subscribe registers h for event and adds the event to the active
	// set. Market data symbols default to "*". The full subscription list
	// is sent when authenticated, otherwise it is sent once authorization
	// arrives. Registering the same handler twice makes it fire twice.
	Subscribe(event router.Event, h router.Handler, symbols ...string) error

	// Unsubscribe removes every handler of event and the event itself,
	// then tells the server.
	Unsubscribe(event router.Event) error

	// Close disables reconnects and closes the socket. No handler starts
	// after Close returns. Idempotent.
	Close() error

	State() State
	Authenticated() bool

	// WaitAuthenticated blocks until the current session is authorized.
	WaitAuthenticated(ctx context.Context) error

	// Done is closed once the manager reaches its terminal state.
	Done() <-chan struct{}

	// Err returns why the manager closed: ErrRetriesExhausted or
	// ErrReconnectDisabled wrapping the last transport error, or nil after
	// a caller Close.
	Err() error

	Stats() ManagerStats
	Family() router.Family
	URL() string
}

// Option configures a Manager.
type Option func(*manager)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithMetrics records connection state, reconnects and per-event counts.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *manager) { m.metrics = mt }
}

// WithClientFactory replaces the WebSocket client constructor.
func WithClientFactory(f ClientFactory) Option {
	return func(m *manager) {
		if f != nil {
			m.newClient = f
		}
	}
}

var allStates = []string{
	StateIdle.String(), StateConnecting.String(), StateOpen.String(),
	StateAuthenticated.String(), StateReconnecting.String(), StateClosed.String(),
}

// manager implements the Manager interface.
type manager struct {
	cfg       ManagerConfig
	url       string
	family    router.Family
	authFrame []byte
	logger    *slog.Logger
	metrics   *metrics.Metrics
	newClient ClientFactory
	router    *router.Router
	backoff   backoff.BackOff

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	done   chan struct{}

	// sendMu serializes subscription frames so the post-auth flush and a
	// concurrent Subscribe never both send the same list.
	sendMu sync.Mutex

	mu            sync.Mutex
	state         State
	started       bool
	client        Client
	authenticated bool
	authCh        chan struct{} // closed when the current session is authorized
	retryCount    int
	subs          *subscriptions
	authErr       error // rejection seen on the current session
	err           error

	connects atomic.Int64
	framesIn atomic.Int64
	dropped  atomic.Int64
}

// NewManager validates the configuration and credentials and derives the
// stream URL. It does not connect.
func NewManager(cfg ManagerConfig, creds auth.Credentials, opts ...Option) (Manager, error) {
	family, err := FamilyFor(cfg.Type)
	if err != nil {
		return nil, err
	}

	url := cfg.URL
	if url == "" {
		if url, err = StreamURL(cfg.Type, cfg.Version, cfg.Feed); err != nil {
			return nil, err
		}
	}

	msg, err := creds.StreamAuth()
	if err != nil {
		return nil, err
	}
	authFrame, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode auth message: %w", err)
	}

	if cfg.RetryDelay < 0 || cfg.MaxRetryDelay < 0 {
		return nil, &config.ConfigurationError{Field: "stream.retry_delay", Reason: "must not be negative"}
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = config.DefaultRetryDelay
	}
	if cfg.MaxRetryDelay < cfg.RetryDelay {
		cfg.MaxRetryDelay = max(config.DefaultMaxRetryDelay, cfg.RetryDelay)
	}

	var bo backoff.BackOff
	switch cfg.Backoff {
	case "", config.BackoffExponential:
		exp := backoff.NewExponentialBackOff()
		exp.InitialInterval = cfg.RetryDelay
		exp.MaxInterval = cfg.MaxRetryDelay
		exp.Multiplier = 2
		exp.Reset()
		bo = exp
	case config.BackoffConstant:
		bo = backoff.NewConstantBackOff(cfg.RetryDelay)
	default:
		return nil, &config.ConfigurationError{Field: "stream.backoff", Reason: fmt.Sprintf("unknown policy %q", cfg.Backoff)}
	}

	cfg.Client.URL = url

	m := &manager{
		cfg:       cfg,
		url:       url,
		family:    family,
		authFrame: authFrame,
		logger:    slog.Default(),
		newClient: NewClient,
		backoff:   bo,
		done:      make(chan struct{}),
		authCh:    make(chan struct{}),
		subs:      newSubscriptions(family),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("component", "stream", "stream_type", cfg.Type)
	m.router = router.New(family,
		router.WithLogger(m.logger),
		router.WithMetrics(m.metrics, cfg.Type),
		router.WithQueueSize(cfg.Client.BufferSize),
	)
	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.metrics.SetStreamState(cfg.Type, StateIdle.String(), allStates)

	return m, nil
}

// Connect dials and starts the session loop.
func (m *manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	if m.state == StateClosed {
		m.mu.Unlock()
		return ErrClosed
	}
	if m.started {
		m.mu.Unlock()
		return ErrAlreadyStarted
	}
	m.started = true
	m.mu.Unlock()

	m.router.Start()
	m.logger.Info("connecting stream", "url", m.url, "family", m.family.String())

	m.wg.Add(1)
	c, err := m.dial(ctx)
	go m.run(c, err)

	return err
}

// Subscribe registers a handler and syncs the subscription list.
func (m *manager) Subscribe(event router.Event, h router.Handler, symbols ...string) error {
	if !m.family.Valid(event) {
		return fmt.Errorf("%w: %q for %s stream", router.ErrUnknownEvent, event, m.family)
	}

	m.sendMu.Lock()
	defer m.sendMu.Unlock()

	m.mu.Lock()
	if m.state == StateClosed {
		m.mu.Unlock()
		return ErrClosed
	}
	if err := m.router.Add(event, h); err != nil {
		m.mu.Unlock()
		return err
	}
	changed := m.subs.add(event, symbols)
	authed := m.authenticated
	c := m.client
	var req SubscriptionRequest
	if authed && m.subs.onWire(event) {
		req = m.subs.request()
	}
	m.mu.Unlock()

	m.logger.Debug("subscribed", "event", string(event), "symbols", symbols, "changed", changed, "queued", !authed)

	if req == nil {
		return nil
	}
	return m.send(c, req)
}

// Unsubscribe removes the event's handlers and tells the server.
func (m *manager) Unsubscribe(event router.Event) error {
	if !m.family.Valid(event) {
		return fmt.Errorf("%w: %q for %s stream", router.ErrUnknownEvent, event, m.family)
	}
	n := m.router.Remove(event)

	m.sendMu.Lock()
	defer m.sendMu.Unlock()

	m.mu.Lock()
	syms, active := m.subs.remove(event)
	authed := m.authenticated
	c := m.client
	var req SubscriptionRequest
	if active && authed {
		req = m.subs.removal(event, syms)
	}
	m.mu.Unlock()

	m.logger.Debug("unsubscribed", "event", string(event), "handlers", n)

	if req == nil {
		return nil
	}
	return m.send(c, req)
}

// Close disables reconnects and closes the socket.
func (m *manager) Close() error {
	m.mu.Lock()
	if m.state == StateClosed {
		m.mu.Unlock()
		return nil
	}
	c := m.client
	m.client = nil
	m.terminateLocked(nil)
	m.mu.Unlock()

	var err error
	if c != nil {
		err = c.Close()
	}
	m.wg.Wait()

	m.logger.Info("stream closed")
	return err
}

func (m *manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *manager) Authenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.authenticated
}

func (m *manager) WaitAuthenticated(ctx context.Context) error {
	m.mu.Lock()
	if m.state == StateClosed {
		err := m.err
		m.mu.Unlock()
		if err == nil {
			err = ErrClosed
		}
		return err
	}
	ch := m.authCh
	m.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-m.done:
		return m.WaitAuthenticated(ctx)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *manager) Done() <-chan struct{} { return m.done }

func (m *manager) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

func (m *manager) Stats() ManagerStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	dropped := m.dropped.Load()
	if m.client != nil {
		dropped += m.client.Dropped()
	}
	return ManagerStats{
		State:         m.state,
		Connects:      m.connects.Load(),
		Reconnects:    m.retryCount,
		FramesIn:      m.framesIn.Load(),
		FramesDropped: dropped,
		Subscriptions: m.subs.count(),
	}
}

func (m *manager) Family() router.Family { return m.family }
func (m *manager) URL() string           { return m.url }

// run owns the connection lifecycle: one session per successful dial,
// reconnecting after each close until the budget runs out or Close.
func (m *manager) run(c Client, err error) {
	defer m.wg.Done()

	for {
		if c != nil {
			err = m.session(c)
		}
		if m.ctx.Err() != nil {
			return
		}

		delay, ok := m.nextAttempt(err)
		if !ok {
			return
		}

		select {
		case <-m.ctx.Done():
			return
		case <-time.After(delay):
		}

		c, err = m.dial(m.ctx)
	}
}

// dial opens a socket and sends the auth frame.
func (m *manager) dial(ctx context.Context) (Client, error) {
	m.setState(StateConnecting)

	c := m.newClient(m.cfg.Client, m.logger)
	if err := c.Connect(ctx); err != nil {
		m.logger.Warn("stream dial failed", "url", m.url, "error", err)
		return nil, err
	}

	m.mu.Lock()
	if m.state == StateClosed {
		m.mu.Unlock()
		c.Close()
		return nil, ErrClosed
	}
	m.client = c
	m.authenticated = false
	m.mu.Unlock()

	m.connects.Add(1)
	m.setState(StateOpen)

	if err := c.Send(m.authFrame); err != nil {
		m.logger.Warn("failed to send auth message", "error", err)
		c.Close()
		return nil, err
	}
	return c, nil
}

// session pumps frames from one client until it fails or the manager
// closes. Frames read before the failure are still delivered.
func (m *manager) session(c Client) error {
	defer c.Close()

	for {
		select {
		case <-m.ctx.Done():
			return m.ctx.Err()
		case err := <-c.Errors():
			m.drain(c)
			m.logger.Warn("stream connection lost", "error", err)
			return err
		case msg := <-c.Messages():
			m.handleFrame(msg)
		}
	}
}

func (m *manager) drain(c Client) {
	for {
		select {
		case msg := <-c.Messages():
			m.handleFrame(msg)
		default:
			return
		}
	}
}

// handleFrame routes one frame. Text and binary frames carry the same JSON.
func (m *manager) handleFrame(msg TimestampedMessage) {
	m.framesIn.Add(1)

	// Malformed elements are counted and logged by the router; the rest
	// of the frame still applies.
	envs, _ := m.router.Route(msg.Data, msg.ReceivedAt)

	for _, env := range envs {
		switch router.Authorization(m.family, env) {
		case router.AuthAccepted:
			m.onAuthorized()
		case router.AuthRejected:
			m.logger.Error("stream authorization rejected", "reply", string(env.Raw))
			m.mu.Lock()
			m.authErr = fmt.Errorf("%w: %s", ErrUnauthorized, env.Raw)
			m.mu.Unlock()
		}
	}
}

// onAuthorized marks the session authenticated and flushes the
// subscription list exactly once.
func (m *manager) onAuthorized() {
	m.sendMu.Lock()
	defer m.sendMu.Unlock()

	m.mu.Lock()
	if m.authenticated || m.client == nil {
		m.mu.Unlock()
		return
	}
	m.authenticated = true
	close(m.authCh)
	if m.cfg.ResetRetriesOnAuth {
		m.retryCount = 0
	}
	m.backoff.Reset()
	req := m.subs.request()
	c := m.client
	m.mu.Unlock()

	m.setState(StateAuthenticated)
	m.logger.Info("stream authenticated")

	if req != nil {
		m.send(c, req)
	}
}

// nextAttempt applies the reconnect policy after a close. It returns the
// delay before the next dial, or false once the manager is terminal.
func (m *manager) nextAttempt(cause error) (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateClosed {
		return 0, false
	}

	if m.client != nil {
		m.dropped.Add(m.client.Dropped())
	}
	m.client = nil
	if m.authenticated {
		m.authenticated = false
		m.authCh = make(chan struct{})
	}
	if m.authErr != nil {
		if cause == nil {
			cause = m.authErr
		} else {
			cause = fmt.Errorf("%w: %w", m.authErr, cause)
		}
		m.authErr = nil
	}

	if !m.cfg.AutoReconnect {
		m.terminateLocked(fmt.Errorf("%w: %w", ErrReconnectDisabled, cause))
		return 0, false
	}
	if m.cfg.MaxRetries >= 0 && m.retryCount >= m.cfg.MaxRetries {
		m.terminateLocked(fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, m.retryCount, cause))
		return 0, false
	}

	m.retryCount++
	delay := m.backoff.NextBackOff()
	if delay == backoff.Stop {
		delay = m.cfg.MaxRetryDelay
	}

	m.state = StateReconnecting
	m.metrics.SetStreamState(m.cfg.Type, m.state.String(), allStates)
	m.metrics.StreamReconnect()
	m.logger.Info("scheduling reconnect",
		"attempt", m.retryCount,
		"max_retries", m.cfg.MaxRetries,
		"delay", delay,
	)
	return delay, true
}

// terminateLocked moves to the terminal state. Must be called with mu held.
func (m *manager) terminateLocked(err error) {
	m.state = StateClosed
	m.authenticated = false
	m.err = err
	m.cancel()
	m.router.Stop()
	close(m.done)
	m.metrics.SetStreamState(m.cfg.Type, m.state.String(), allStates)

	if err != nil {
		m.logger.Error("stream terminated", "error", err)
	}
}

func (m *manager) setState(s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateClosed {
		return
	}
	m.state = s
	m.metrics.SetStreamState(m.cfg.Type, s.String(), allStates)
}

// send writes a subscription frame. A failed write leaves the subscription
// active; it is sent again after the next authorization.
func (m *manager) send(c Client, req SubscriptionRequest) error {
	if c == nil {
		return ErrNotConnected
	}
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", req.Action(), err)
	}
	if err := c.Send(data); err != nil {
		m.logger.Warn("failed to send subscription", "action", req.Action(), "error", err)
		return err
	}
	m.logger.Debug("sent subscription", "action", req.Action(), "frame", string(data))
	return nil
}
