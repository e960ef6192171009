package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rickgao/alpaca-sdk/internal/auth"
	"github.com/rickgao/alpaca-sdk/internal/config"
	"github.com/rickgao/alpaca-sdk/internal/ratelimit"
	"github.com/rickgao/alpaca-sdk/internal/version"
)

var keyCreds = auth.Credentials{KeyID: "PKTEST", SecretKey: "shh"}

// hostHeader carries the host the client targeted before the test
// transport redirected it.
const hostHeader = "X-Test-Original-Host"

// rewriteTransport sends every request to target, keeping path and query.
type rewriteTransport struct {
	target *url.URL
}

func (rt rewriteTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.Header.Set(hostHeader, r.URL.Host)
	r.URL.Scheme = rt.target.Scheme
	r.URL.Host = rt.target.Host
	return http.DefaultTransport.RoundTrip(r)
}

// newTestClient returns a client whose requests all land on handler.
func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...ClientOption) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	target, _ := url.Parse(server.URL)
	hc := &http.Client{Timeout: 5 * time.Second, Transport: rewriteTransport{target: target}}

	c, err := NewClient(keyCreds, append([]ClientOption{WithHTTPClient(hc)}, opts...)...)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return c
}

func TestNewClient(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		c, err := NewClient(keyCreds)
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}
		if c.TradingURL() != config.PaperTradingURL {
			t.Errorf("TradingURL = %q, want paper", c.TradingURL())
		}
		if c.DataURL() != config.MarketDataURL {
			t.Errorf("DataURL = %q, want %q", c.DataURL(), config.MarketDataURL)
		}
		if c.httpClient.Timeout != 30*time.Second {
			t.Errorf("Timeout = %v, want %v", c.httpClient.Timeout, 30*time.Second)
		}
		if got := c.Gate().Bucket().Capacity(); got != ratelimit.DefaultCapacity {
			t.Errorf("bucket capacity = %v, want %v", got, ratelimit.DefaultCapacity)
		}
		if got := c.Gate().Bucket().FillRate(); got != ratelimit.DefaultFillRate {
			t.Errorf("bucket fill rate = %v, want %v", got, ratelimit.DefaultFillRate)
		}
	})

	t.Run("live trading", func(t *testing.T) {
		c, err := NewClient(keyCreds, WithPaper(false))
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}
		if c.TradingURL() != config.LiveTradingURL {
			t.Errorf("TradingURL = %q, want live", c.TradingURL())
		}
	})

	t.Run("explicit trading url wins over paper flag", func(t *testing.T) {
		c, err := NewClient(keyCreds, WithTradingURL(config.LiveTradingURL), WithPaper(true))
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}
		if c.TradingURL() != config.LiveTradingURL {
			t.Errorf("TradingURL = %q, want live", c.TradingURL())
		}
	})

	t.Run("unknown base url", func(t *testing.T) {
		_, err := NewClient(keyCreds, WithTradingURL("https://example.com"))
		var ce *config.ConfigurationError
		if !errors.As(err, &ce) {
			t.Fatalf("err = %v, want ConfigurationError", err)
		}

		_, err = NewClient(keyCreds, WithDataURL("https://api.alpaca.markets"))
		if !errors.As(err, &ce) {
			t.Fatalf("err = %v, want ConfigurationError", err)
		}
	})

	t.Run("missing credentials", func(t *testing.T) {
		_, err := NewClient(auth.Credentials{})
		var ce *config.ConfigurationError
		if !errors.As(err, &ce) {
			t.Fatalf("err = %v, want ConfigurationError", err)
		}
	})

	t.Run("invalid rate limit", func(t *testing.T) {
		_, err := NewClient(keyCreds, WithRateLimit(-1, 3))
		if !errors.Is(err, ratelimit.ErrInvalidConfiguration) {
			t.Fatalf("err = %v, want ErrInvalidConfiguration", err)
		}
	})

	t.Run("with options", func(t *testing.T) {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		custom := &http.Client{Timeout: 10 * time.Second}
		c, err := NewClient(keyCreds,
			WithHTTPClient(custom),
			WithTimeout(15*time.Second),
			WithLogger(logger),
			WithRateLimit(10, 1),
		)
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}
		if c.httpClient != custom || custom.Timeout != 15*time.Second {
			t.Errorf("custom HTTP client not configured: %+v", c.httpClient)
		}
		if c.Gate().Bucket().Capacity() != 10 {
			t.Errorf("capacity = %v, want 10", c.Gate().Bucket().Capacity())
		}
	})
}

func TestNewClientFromConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Credentials = config.CredentialsConfig{AccessToken: "tok"}
	paper := false
	cfg.REST.Paper = &paper
	cfg.REST.RateLimit = config.RateLimitConfig{Capacity: 50, FillRate: 5}
	cfg.REST.Timeout = 7 * time.Second

	c, err := NewClientFromConfig(cfg)
	if err != nil {
		t.Fatalf("NewClientFromConfig failed: %v", err)
	}
	if c.TradingURL() != config.LiveTradingURL {
		t.Errorf("TradingURL = %q, want live", c.TradingURL())
	}
	if c.httpClient.Timeout != 7*time.Second {
		t.Errorf("Timeout = %v, want 7s", c.httpClient.Timeout)
	}
	if c.Gate().Bucket().FillRate() != 5 {
		t.Errorf("FillRate = %v, want 5", c.Gate().Bucket().FillRate())
	}
}

func TestHTTPError(t *testing.T) {
	t.Run("Error method", func(t *testing.T) {
		err := &HTTPError{StatusCode: 403, Message: "forbidden."}
		if err.Error() != "alpaca api error 403: forbidden." {
			t.Errorf("Error() = %q", err.Error())
		}

		err = &HTTPError{StatusCode: 404}
		if err.Error() != "alpaca api error 404: Not Found" {
			t.Errorf("Error() = %q", err.Error())
		}
	})

	t.Run("IsRetryable", func(t *testing.T) {
		tests := []struct {
			code     int
			expected bool
		}{
			{500, true},
			{502, true},
			{503, true},
			{429, true},
			{400, false},
			{401, false},
			{403, false},
			{404, false},
			{422, false},
		}

		for _, tt := range tests {
			err := &HTTPError{StatusCode: tt.code}
			if got := err.IsRetryable(); got != tt.expected {
				t.Errorf("IsRetryable() for status %d = %v, want %v", tt.code, got, tt.expected)
			}
		}
	})
}

func TestExpandPath(t *testing.T) {
	tests := []struct {
		name    string
		tmpl    string
		params  []string
		want    string
		wantErr bool
	}{
		{"no placeholders", "/v2/account", nil, "/v2/account", false},
		{"one", "/v2/orders/:order_id", []string{"abc"}, "/v2/orders/abc", false},
		{"two", "/v2/watchlists/:id/:symbol", []string{"w1", "AAPL"}, "/v2/watchlists/w1/AAPL", false},
		{"escaped", "/v2/positions/:symbol", []string{"BTC/USD"}, "/v2/positions/BTC%2FUSD", false},
		{"too few", "/v2/orders/:order_id", nil, "", true},
		{"too many", "/v2/account", []string{"x"}, "", true},
		{"empty value", "/v2/orders/:order_id", []string{""}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expandPath(tt.tmpl, tt.params)
			if (err != nil) != tt.wantErr {
				t.Fatalf("expandPath error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("expandPath = %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := expandPath("/v2/orders/:order_id", nil); !errors.Is(err, ErrPathParams) {
		t.Errorf("err = %v, want ErrPathParams", err)
	}
}

func TestBuildURL(t *testing.T) {
	t.Run("omits empty options", func(t *testing.T) {
		got, err := buildURL(request{
			base:  "https://data.alpaca.markets",
			path:  "/v2/stocks/bars",
			query: StocksBarsOptions{Symbols: []string{"AAPL", "MSFT"}, Timeframe: "1Day"},
		})
		if err != nil {
			t.Fatalf("buildURL failed: %v", err)
		}
		want := "https://data.alpaca.markets/v2/stocks/bars?symbols=AAPL%2CMSFT&timeframe=1Day"
		if got != want {
			t.Errorf("buildURL = %q, want %q", got, want)
		}
	})

	t.Run("formats times and pointers", func(t *testing.T) {
		include := false
		got, err := buildURL(request{
			base:  "https://data.alpaca.markets",
			path:  "/v1beta1/news",
			query: NewsOptions{
				Start:          time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC),
				IncludeContent: &include,
			},
		})
		if err != nil {
			t.Fatalf("buildURL failed: %v", err)
		}
		u, _ := url.Parse(got)
		q := u.Query()
		if q.Get("start") != "2024-01-02T15:04:05Z" {
			t.Errorf("start = %q", q.Get("start"))
		}
		if q.Get("include_content") != "false" {
			t.Errorf("include_content = %q, want false", q.Get("include_content"))
		}
		if q.Has("end") || q.Has("limit") || q.Has("symbols") {
			t.Errorf("unexpected empty params in %q", got)
		}
	})

	t.Run("url values pass through", func(t *testing.T) {
		got, err := buildURL(request{
			base:   "https://paper-api.alpaca.markets/",
			path:   "/v2/positions/:symbol",
			params: []string{"AAPL"},
			query:  url.Values{"qty": {"1.5"}},
		})
		if err != nil {
			t.Fatalf("buildURL failed: %v", err)
		}
		if got != "https://paper-api.alpaca.markets/v2/positions/AAPL?qty=1.5" {
			t.Errorf("buildURL = %q", got)
		}
	})
}

func TestDo(t *testing.T) {
	t.Run("key and secret headers", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get(auth.HeaderKeyID) != "PKTEST" || r.Header.Get(auth.HeaderSecretKey) != "shh" {
				t.Errorf("auth headers = %q/%q", r.Header.Get(auth.HeaderKeyID), r.Header.Get(auth.HeaderSecretKey))
			}
			if r.Header.Get("Authorization") != "" {
				t.Errorf("Authorization should be empty, got %q", r.Header.Get("Authorization"))
			}
			if r.Header.Get("Accept") != "application/json" {
				t.Errorf("Accept = %q", r.Header.Get("Accept"))
			}
			if r.Header.Get("User-Agent") != version.UserAgent() {
				t.Errorf("User-Agent = %q", r.Header.Get("User-Agent"))
			}
			if r.Header.Get(hostHeader) != "paper-api.alpaca.markets" {
				t.Errorf("host = %q, want paper trading host", r.Header.Get(hostHeader))
			}
			w.Write([]byte(`{"status": "ok"}`))
		})

		body, err := c.do(context.Background(), c.trading(http.MethodGet, "/v2/account"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(body) != `{"status": "ok"}` {
			t.Errorf("body = %q", body)
		}
	})

	t.Run("bearer token", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer tok" {
				t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
			}
			if r.Header.Get(auth.HeaderKeyID) != "" {
				t.Errorf("key header should be empty")
			}
			w.Write([]byte(`{}`))
		}))
		defer server.Close()

		target, _ := url.Parse(server.URL)
		c, err := NewClient(auth.Credentials{AccessToken: "tok"},
			WithHTTPClient(&http.Client{Transport: rewriteTransport{target: target}}))
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}
		if _, err := c.do(context.Background(), c.data("/v2/stocks/meta/exchanges")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("json body", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPatch {
				t.Errorf("method = %s", r.Method)
			}
			if r.Header.Get("Content-Type") != "application/json" {
				t.Errorf("Content-Type = %q", r.Header.Get("Content-Type"))
			}
			body, _ := io.ReadAll(r.Body)
			if string(body) != `{"no_shorting":true}` {
				t.Errorf("body = %s", body)
			}
			w.Write([]byte(`{"no_shorting":true}`))
		})

		yes := true
		cfg, err := c.UpdateAccountConfigurations(context.Background(), AccountConfigurationsPatch{NoShorting: &yes})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !cfg.NoShorting {
			t.Error("NoShorting = false, want true")
		}
	})

	t.Run("4xx returns HTTPError", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"code":40310000,"message":"insufficient buying power"}`))
		})

		_, err := c.GetAccount(context.Background())
		var herr *HTTPError
		if !errors.As(err, &herr) {
			t.Fatalf("expected *HTTPError, got %T: %v", err, err)
		}
		if herr.StatusCode != 403 || herr.Code != 40310000 {
			t.Errorf("StatusCode/Code = %d/%d", herr.StatusCode, herr.Code)
		}
		if herr.Message != "insufficient buying power" {
			t.Errorf("Message = %q", herr.Message)
		}
		if !strings.Contains(herr.Body, "40310000") {
			t.Errorf("Body = %q, want raw text", herr.Body)
		}
	})

	t.Run("5xx with text body", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte("upstream unavailable\n"))
		})

		_, err := c.GetClock(context.Background())
		var herr *HTTPError
		if !errors.As(err, &herr) {
			t.Fatalf("expected *HTTPError, got %v", err)
		}
		if herr.Message != "upstream unavailable" || !herr.IsRetryable() {
			t.Errorf("HTTPError = %+v", herr)
		}
	})

	t.Run("no automatic retry", func(t *testing.T) {
		var attempts int32
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&attempts, 1)
			w.WriteHeader(http.StatusServiceUnavailable)
		})

		if _, err := c.GetClock(context.Background()); err == nil {
			t.Fatal("expected error, got nil")
		}
		if attempts != 1 {
			t.Errorf("attempts = %d, want 1", attempts)
		}
	})

	t.Run("empty 2xx body is an empty result", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})

		clock, err := c.GetClock(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if clock == nil || clock.IsOpen {
			t.Errorf("clock = %+v, want zero value", clock)
		}
	})

	t.Run("unparsable 2xx body is an empty result", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>ok</html>`))
		})

		orders, err := c.GetOrders(context.Background(), OrdersOptions{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(orders) != 0 {
			t.Errorf("orders = %v, want empty", orders)
		}
	})

	t.Run("context cancellation", func(t *testing.T) {
		var hits int32
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&hits, 1)
		})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := c.GetAccount(ctx)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
		if hits != 0 {
			t.Errorf("server hit %d times, want 0", hits)
		}
	})

	t.Run("bad path params never reach the server", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("unexpected request")
		})

		if _, err := c.GetOrder(context.Background(), ""); err == nil {
			t.Fatal("expected error for empty order id")
		}
	})
}

// Calls beyond the bucket's capacity wait for a refill instead of failing.
func TestClient_RateLimited(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"is_open":true}`))
	}, WithRateLimit(2, 10))

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := c.GetClock(context.Background()); err != nil {
			t.Fatalf("call %d: %v", i+1, err)
		}
	}
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("three calls took %v, want the third to wait ~100ms", elapsed)
	}
}
