package api

import (
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/rickgao/alpaca-sdk/internal/auth"
	"github.com/rickgao/alpaca-sdk/internal/config"
	"github.com/rickgao/alpaca-sdk/internal/metrics"
	"github.com/rickgao/alpaca-sdk/internal/ratelimit"
)

const tracerName = "github.com/rickgao/alpaca-sdk/internal/api"

// Client provides access to the Alpaca trading and market data REST APIs.
// Every call is admitted through the client's own rate limit gate.
type Client struct {
	tradingURL string
	dataURL    string
	creds      auth.Credentials
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer

	gate     *ratelimit.Gate
	capacity float64
	fillRate float64

	paper bool
	err   error // first option error
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a REST client. Credentials must hold a key/secret pair or
// an access token. Trading calls go to the paper endpoint unless WithPaper(false)
// or WithTradingURL says otherwise.
func NewClient(creds auth.Credentials, opts ...ClientOption) (*Client, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		dataURL: config.MarketDataURL,
		creds:   creds,
		httpClient: &http.Client{
			Timeout: config.DefaultTimeout,
		},
		logger: slog.Default(),
		paper:  true,
	}

	for _, opt := range opts {
		opt(c)
	}
	if c.err != nil {
		return nil, c.err
	}

	if c.tradingURL == "" {
		c.tradingURL = config.LiveTradingURL
		if c.paper {
			c.tradingURL = config.PaperTradingURL
		}
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer(tracerName)
	}
	c.logger = c.logger.With("component", "rest")

	if c.gate == nil {
		bucket, err := ratelimit.NewTokenBucket(c.capacity, c.fillRate)
		if err != nil {
			return nil, err
		}
		c.gate = ratelimit.NewGate(bucket,
			ratelimit.WithGateLogger(c.logger),
			ratelimit.WithWaitObserver(c.metrics.ObserveGateWait),
		)
	}

	return c, nil
}

// NewClientFromConfig builds a client from a loaded Config. Credentials fall
// back to the environment; extra options are applied after the config ones.
func NewClientFromConfig(cfg *config.Config, opts ...ClientOption) (*Client, error) {
	base := []ClientOption{
		WithPaper(cfg.REST.PaperTrading()),
		WithRateLimit(cfg.REST.RateLimit.Capacity, cfg.REST.RateLimit.FillRate),
	}
	if cfg.REST.TradingURL != "" {
		base = append(base, WithTradingURL(cfg.REST.TradingURL))
	}
	if cfg.REST.DataURL != "" {
		base = append(base, WithDataURL(cfg.REST.DataURL))
	}
	if cfg.REST.Timeout > 0 {
		base = append(base, WithTimeout(cfg.REST.Timeout))
	}
	return NewClient(auth.FromConfig(cfg.Credentials), append(base, opts...)...)
}

// TradingURL returns the trading API base URL in use.
func (c *Client) TradingURL() string { return c.tradingURL }

// DataURL returns the market data API base URL in use.
func (c *Client) DataURL() string { return c.dataURL }

// Gate returns the rate limit gate shared by this client's calls.
func (c *Client) Gate() *ratelimit.Gate { return c.gate }

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithPaper selects the paper (true) or live (false) trading endpoint.
func WithPaper(paper bool) ClientOption {
	return func(c *Client) {
		c.paper = paper
	}
}

// WithTradingURL overrides the trading base URL. Only the live and paper
// endpoints are accepted.
func WithTradingURL(url string) ClientOption {
	return func(c *Client) {
		if err := config.ValidateTradingURL(url); err != nil {
			c.setErr(err)
			return
		}
		c.tradingURL = url
	}
}

// WithDataURL overrides the market data base URL.
func WithDataURL(url string) ClientOption {
	return func(c *Client) {
		if err := config.ValidateDataURL(url); err != nil {
			c.setErr(err)
			return
		}
		c.dataURL = url
	}
}

// WithRateLimit sizes the client's token bucket. Zero values keep the
// defaults of 200 tokens refilled at 3 per second.
func WithRateLimit(capacity, fillRate float64) ClientOption {
	return func(c *Client) {
		c.capacity = capacity
		c.fillRate = fillRate
	}
}

// WithGate replaces the client's gate, e.g. one built over a bucket with a
// test clock.
func WithGate(g *ratelimit.Gate) ClientOption {
	return func(c *Client) {
		c.gate = g
	}
}

// WithMetrics records request counts, latencies and rate limit waits.
func WithMetrics(m *metrics.Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithTracerProvider sets the provider used for request spans. The global
// provider is used otherwise.
func WithTracerProvider(tp trace.TracerProvider) ClientOption {
	return func(c *Client) {
		if tp != nil {
			c.tracer = tp.Tracer(tracerName)
		}
	}
}

func (c *Client) setErr(err error) {
	if c.err == nil {
		c.err = err
	}
}
