package config

import "time"

// Known REST endpoints.
const (
	LiveTradingURL  = "https://api.alpaca.markets"
	PaperTradingURL = "https://paper-api.alpaca.markets"
	MarketDataURL   = "https://data.alpaca.markets"
)

// Default values for optional configuration fields.
const (
	DefaultTimeout           = 30 * time.Second
	DefaultRateCapacity      = 200
	DefaultRateFillRate      = 3
	DefaultStreamType        = "data"
	DefaultStreamVersion     = "v2"
	DefaultStreamFeed        = "iex"
	DefaultMaxRetries        = 5
	DefaultRetryDelay        = 3 * time.Second
	DefaultMaxRetryDelay     = 30 * time.Second
	DefaultBackoff           = BackoffExponential
	DefaultPingTimeout       = 60 * time.Second
	DefaultWriteTimeout      = 5 * time.Second
	DefaultStreamBufferSize  = 1000
	DefaultPollInterval      = time.Minute
	DefaultPollConcurrency   = 4
	DefaultPollBatchSize     = 100
	DefaultPollTimeout       = 10 * time.Second
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "text"
	DefaultMetricsPort       = 9090
	DefaultMetricsPath       = "/metrics"
	DefaultMetricsNamespace  = "alpaca"

	DefaultTracingServiceName = "alpaca-sdk"
)

// Backoff policies for stream reconnects.
const (
	BackoffExponential = "exponential"
	BackoffConstant    = "constant"
)

func (c *Config) applyDefaults() {
	// REST defaults
	if c.REST.DataURL == "" {
		c.REST.DataURL = MarketDataURL
	}
	if c.REST.Timeout == 0 {
		c.REST.Timeout = DefaultTimeout
	}
	if c.REST.RateLimit.Capacity == 0 {
		c.REST.RateLimit.Capacity = DefaultRateCapacity
	}
	if c.REST.RateLimit.FillRate == 0 {
		c.REST.RateLimit.FillRate = DefaultRateFillRate
	}

	// Stream defaults
	if c.Stream.Type == "" {
		c.Stream.Type = DefaultStreamType
	}
	if c.Stream.Version == "" {
		c.Stream.Version = DefaultStreamVersion
	}
	if c.Stream.Feed == "" {
		c.Stream.Feed = DefaultStreamFeed
	}
	if c.Stream.AutoReconnect == nil {
		enabled := true
		c.Stream.AutoReconnect = &enabled
	}
	if c.Stream.MaxRetries == nil {
		retries := DefaultMaxRetries
		c.Stream.MaxRetries = &retries
	}
	if c.Stream.RetryDelay == 0 {
		c.Stream.RetryDelay = DefaultRetryDelay
	}
	if c.Stream.MaxRetryDelay == 0 {
		c.Stream.MaxRetryDelay = DefaultMaxRetryDelay
	}
	if c.Stream.Backoff == "" {
		c.Stream.Backoff = DefaultBackoff
	}
	if c.Stream.PingTimeout == 0 {
		c.Stream.PingTimeout = DefaultPingTimeout
	}
	if c.Stream.WriteTimeout == 0 {
		c.Stream.WriteTimeout = DefaultWriteTimeout
	}
	if c.Stream.BufferSize == 0 {
		c.Stream.BufferSize = DefaultStreamBufferSize
	}

	// Poller defaults
	if c.Poller.Feed == "" {
		c.Poller.Feed = c.Stream.Feed
	}
	if c.Poller.Interval == 0 {
		c.Poller.Interval = DefaultPollInterval
	}
	if c.Poller.Concurrency == 0 {
		c.Poller.Concurrency = DefaultPollConcurrency
	}
	if c.Poller.BatchSize == 0 {
		c.Poller.BatchSize = DefaultPollBatchSize
	}
	if c.Poller.Timeout == 0 {
		c.Poller.Timeout = DefaultPollTimeout
	}

	// Logging defaults
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}

	// Metrics defaults
	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultMetricsNamespace
	}

	// Tracing defaults
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = DefaultTracingServiceName
	}
}

// Default returns a Config with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}
