package config

import (
	"math"
	"slices"
)

var (
	knownStreamTypes = []string{"data", "data_sandbox", "data_test", "account", "account_paper"}
	knownFeeds       = []string{"iex", "sip"}
	knownVersions    = []string{"v2"}
	knownLogLevels   = []string{"debug", "info", "warn", "error"}
	knownLogFormats  = []string{"text", "json"}
)

// ValidateTradingURL checks that url is one of the known trading endpoints.
func ValidateTradingURL(url string) error {
	if url != LiveTradingURL && url != PaperTradingURL {
		return Errorf("rest.trading_url", "unrecognized base URL %q", url)
	}
	return nil
}

// ValidateDataURL checks that url is the market data endpoint.
func ValidateDataURL(url string) error {
	if url != MarketDataURL {
		return Errorf("rest.data_url", "unrecognized base URL %q", url)
	}
	return nil
}

// Validate checks that all values are valid. Credentials are checked by the
// auth package once environment fallbacks are resolved.
func (c *Config) Validate() error {
	if err := ValidateTradingURL(c.REST.ResolvedTradingURL()); err != nil {
		return err
	}
	if err := ValidateDataURL(c.REST.DataURL); err != nil {
		return err
	}
	if c.REST.Timeout < 0 {
		return Errorf("rest.timeout", "must be >= 0, got %v", c.REST.Timeout)
	}
	if !positive(c.REST.RateLimit.Capacity) {
		return Errorf("rest.rate_limit.capacity", "must be a positive number, got %v", c.REST.RateLimit.Capacity)
	}
	if !positive(c.REST.RateLimit.FillRate) {
		return Errorf("rest.rate_limit.fill_rate", "must be a positive number, got %v", c.REST.RateLimit.FillRate)
	}

	if !slices.Contains(knownStreamTypes, c.Stream.Type) {
		return Errorf("stream.type", "unrecognized stream type %q", c.Stream.Type)
	}
	if !slices.Contains(knownVersions, c.Stream.Version) {
		return Errorf("stream.version", "unsupported version %q", c.Stream.Version)
	}
	if !slices.Contains(knownFeeds, c.Stream.Feed) {
		return Errorf("stream.feed", "unsupported feed %q", c.Stream.Feed)
	}
	if c.Stream.RetryDelay < 0 {
		return Errorf("stream.retry_delay", "must be >= 0, got %v", c.Stream.RetryDelay)
	}
	if c.Stream.MaxRetryDelay < c.Stream.RetryDelay {
		return Errorf("stream.max_retry_delay", "(%v) cannot be less than retry_delay (%v)", c.Stream.MaxRetryDelay, c.Stream.RetryDelay)
	}
	if c.Stream.Backoff != BackoffExponential && c.Stream.Backoff != BackoffConstant {
		return Errorf("stream.backoff", "must be %q or %q, got %q", BackoffExponential, BackoffConstant, c.Stream.Backoff)
	}
	if c.Stream.BufferSize < 1 {
		return Errorf("stream.buffer_size", "must be >= 1")
	}

	if c.Poller.Concurrency < 1 {
		return Errorf("poller.concurrency", "must be >= 1")
	}
	if c.Poller.BatchSize < 1 {
		return Errorf("poller.batch_size", "must be >= 1")
	}
	if c.Poller.Interval <= 0 {
		return Errorf("poller.interval", "must be > 0")
	}

	if !slices.Contains(knownLogLevels, c.Logging.Level) {
		return Errorf("logging.level", "unknown level %q", c.Logging.Level)
	}
	if !slices.Contains(knownLogFormats, c.Logging.Format) {
		return Errorf("logging.format", "unknown format %q", c.Logging.Format)
	}

	if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
		return Errorf("metrics.port", "must be between 1 and 65535, got %d", c.Metrics.Port)
	}

	return nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}
