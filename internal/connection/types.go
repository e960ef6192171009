package connection

import (
	"errors"
	"fmt"
	"time"

	"github.com/rickgao/alpaca-sdk/internal/config"
)

// Errors
var (
	ErrNotConnected      = errors.New("not connected")
	ErrStaleConnection   = errors.New("connection stale (no ping)")
	ErrAlreadyClosed     = errors.New("already closed")
	ErrClosed            = errors.New("stream closed")
	ErrRetriesExhausted  = errors.New("reconnect retries exhausted")
	ErrReconnectDisabled = errors.New("connection lost and auto-reconnect is disabled")
	ErrUnauthorized      = errors.New("stream authorization rejected")
)

// TransportError is a socket-level failure: dial, read, write or heartbeat.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// TimestampedMessage wraps raw frame data with its receive timestamp.
type TimestampedMessage struct {
	Data       []byte    // Raw frame bytes
	Binary     bool      // Frame arrived as a binary frame
	ReceivedAt time.Time // Local timestamp when ReadMessage() returned
}

// ClientConfig configures a WebSocket client.
type ClientConfig struct {
	URL          string        // WebSocket URL (e.g., wss://stream.data.alpaca.markets/v2/iex)
	PingInterval time.Duration // How often the client pings the server
	PingTimeout  time.Duration // Max time without ping/pong before considering connection stale
	WriteTimeout time.Duration // Write deadline for sends
	BufferSize   int           // Message channel buffer size
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		PingInterval: 30 * time.Second,
		PingTimeout:  config.DefaultPingTimeout,
		WriteTimeout: config.DefaultWriteTimeout,
		BufferSize:   config.DefaultStreamBufferSize,
	}
}

// ManagerConfig configures a stream Manager.
type ManagerConfig struct {
	Type    string // data, data_sandbox, data_test, account, account_paper
	Version string // v2 (stocks), v1beta3/crypto/us, v1beta1/news, ...
	Feed    string // iex or sip for stocks
	URL     string // overrides the derived URL; Type still selects the family

	AutoReconnect      bool
	MaxRetries         int           // negative = unlimited
	RetryDelay         time.Duration // first reconnect delay
	MaxRetryDelay      time.Duration // cap for exponential backoff
	Backoff            string        // exponential or constant
	ResetRetriesOnAuth bool          // reset the retry counter after a successful login

	Client ClientConfig
}

// DefaultManagerConfig returns sensible defaults.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		Type:          config.DefaultStreamType,
		Version:       config.DefaultStreamVersion,
		Feed:          config.DefaultStreamFeed,
		AutoReconnect: true,
		MaxRetries:    config.DefaultMaxRetries,
		RetryDelay:    config.DefaultRetryDelay,
		MaxRetryDelay: config.DefaultMaxRetryDelay,
		Backoff:       config.DefaultBackoff,
		Client:        DefaultClientConfig(),
	}
}

// ManagerConfigFrom maps the stream section of a loaded Config.
func ManagerConfigFrom(c config.StreamConfig) ManagerConfig {
	cfg := DefaultManagerConfig()
	if c.Type != "" {
		cfg.Type = c.Type
	}
	if c.Version != "" {
		cfg.Version = c.Version
	}
	if c.Feed != "" {
		cfg.Feed = c.Feed
	}
	cfg.AutoReconnect = c.Reconnect()
	cfg.MaxRetries = c.Retries()
	if c.RetryDelay > 0 {
		cfg.RetryDelay = c.RetryDelay
	}
	if c.MaxRetryDelay > 0 {
		cfg.MaxRetryDelay = c.MaxRetryDelay
	}
	if c.Backoff != "" {
		cfg.Backoff = c.Backoff
	}
	cfg.ResetRetriesOnAuth = c.ResetRetriesOnAuth
	if c.PingTimeout > 0 {
		cfg.Client.PingTimeout = c.PingTimeout
	}
	if c.WriteTimeout > 0 {
		cfg.Client.WriteTimeout = c.WriteTimeout
	}
	if c.BufferSize > 0 {
		cfg.Client.BufferSize = c.BufferSize
	}
	return cfg
}

// State is the manager lifecycle state.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateOpen          // socket up, waiting for authorization
	StateAuthenticated // authorized, subscriptions flushed
	StateReconnecting  // closed, reconnect scheduled
	StateClosed        // terminal
)

var stateNames = [...]string{"idle", "connecting", "open", "authenticated", "reconnecting", "closed"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// ManagerStats provides statistics about the manager.
type ManagerStats struct {
	State         State
	Connects      int64 // successful dials
	Reconnects    int   // reconnect attempts scheduled (the retry counter)
	FramesIn      int64
	FramesDropped int64 // client buffer full
	Subscriptions int   // active events
}
