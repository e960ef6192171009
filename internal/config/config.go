package config

import "time"

// Config is the root configuration shared by the SDK binaries.
type Config struct {
	Credentials CredentialsConfig `yaml:"credentials"`
	REST        RESTConfig        `yaml:"rest"`
	Stream      StreamConfig      `yaml:"stream"`
	Poller      PollerConfig      `yaml:"poller"`
	Logging     LoggingConfig     `yaml:"logging"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Tracing     TracingConfig     `yaml:"tracing"`
}

// CredentialsConfig holds either a key/secret pair or an OAuth access token.
// Empty fields fall back to the APCA_* environment variables.
type CredentialsConfig struct {
	KeyID       string `yaml:"key_id"`
	SecretKey   string `yaml:"secret_key"`
	AccessToken string `yaml:"access_token"`
}

// RESTConfig holds REST client settings.
type RESTConfig struct {
	Paper      *bool           `yaml:"paper"`       // default true
	TradingURL string          `yaml:"trading_url"` // overrides Paper when set
	DataURL    string          `yaml:"data_url"`
	Timeout    time.Duration   `yaml:"timeout"`
	RateLimit  RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig sizes the client token bucket.
type RateLimitConfig struct {
	Capacity float64 `yaml:"capacity"`
	FillRate float64 `yaml:"fill_rate"` // tokens per second
}

// StreamConfig holds WebSocket stream settings.
type StreamConfig struct {
	Type               string        `yaml:"type"` // data, data_sandbox, data_test, account, account_paper
	Version            string        `yaml:"version"`
	Feed               string        `yaml:"feed"`
	AutoReconnect      *bool         `yaml:"auto_reconnect"`
	MaxRetries         *int          `yaml:"max_retries"` // negative = unlimited
	RetryDelay         time.Duration `yaml:"retry_delay"`
	MaxRetryDelay      time.Duration `yaml:"max_retry_delay"`
	Backoff            string        `yaml:"backoff"` // exponential or constant
	ResetRetriesOnAuth bool          `yaml:"reset_retries_on_auth"`
	PingTimeout        time.Duration `yaml:"ping_timeout"`
	WriteTimeout       time.Duration `yaml:"write_timeout"`
	BufferSize         int           `yaml:"buffer_size"`
}

// PollerConfig holds snapshot poller settings.
type PollerConfig struct {
	Symbols     []string      `yaml:"symbols"`
	Feed        string        `yaml:"feed"`
	Interval    time.Duration `yaml:"interval"`
	Concurrency int           `yaml:"concurrency"`
	BatchSize   int           `yaml:"batch_size"`
	Timeout     time.Duration `yaml:"timeout"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// MetricsConfig holds Prometheus settings.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Port      int    `yaml:"port"`
	Path      string `yaml:"path"`
	Namespace string `yaml:"namespace"`
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
	PrettyPrint bool   `yaml:"pretty_print"`
}

// PaperTrading reports whether the paper endpoint is selected.
func (r RESTConfig) PaperTrading() bool {
	return r.Paper == nil || *r.Paper
}

// ResolvedTradingURL returns the explicit trading URL or the one implied by
// Paper.
func (r RESTConfig) ResolvedTradingURL() string {
	if r.TradingURL != "" {
		return r.TradingURL
	}
	if r.PaperTrading() {
		return PaperTradingURL
	}
	return LiveTradingURL
}

// Reconnect reports whether auto-reconnect is enabled.
func (s StreamConfig) Reconnect() bool {
	return s.AutoReconnect == nil || *s.AutoReconnect
}

// Retries returns the configured reconnect budget.
func (s StreamConfig) Retries() int {
	if s.MaxRetries == nil {
		return DefaultMaxRetries
	}
	return *s.MaxRetries
}
