package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-querystring/query"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/rickgao/alpaca-sdk/internal/version"
)

// ErrPathParams is returned when the number of path values does not match
// the placeholders in the path template.
var ErrPathParams = errors.New("path parameter count mismatch")

// HTTPError is a non-2xx response from the API.
type HTTPError struct {
	StatusCode int
	Method     string
	URL        string
	Body       string // raw response text
	Code       int    // Alpaca error code, when the body carries one
	Message    string
}

func (e *HTTPError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("alpaca api error %d: %s", e.StatusCode, msg)
}

// IsRetryable reports whether the request may succeed if repeated. The client
// never retries on its own.
func (e *HTTPError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// request describes one REST call.
type request struct {
	method string
	base   string   // trading or market data base URL
	path   string   // may hold :name placeholders, e.g. /v2/orders/:order_id
	params []string // placeholder values, in order
	query  any      // tagged options struct or url.Values
	body   any
	accept string // defaults to application/json
}

func (c *Client) trading(method, path string, params ...string) request {
	return request{method: method, base: c.tradingURL, path: path, params: params}
}

func (c *Client) data(path string, params ...string) request {
	return request{method: http.MethodGet, base: c.dataURL, path: path, params: params}
}

func (r request) withQuery(q any) request {
	r.query = q
	return r
}

func (r request) withBody(b any) request {
	r.body = b
	return r
}

// call performs req and decodes the response into a T. An empty or
// unparsable 2xx body yields the zero T.
func call[T any](ctx context.Context, c *Client, req request) (T, error) {
	var out T
	body, err := c.do(ctx, req)
	if err != nil {
		return out, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(body, &out); err != nil {
		c.logger.Debug("discarding unparsable response", "path", req.path, "error", err)
		var zero T
		return zero, nil
	}
	return out, nil
}

// do admits the call through the gate, sends it and returns the body of a
// 2xx response.
func (c *Client) do(ctx context.Context, req request) ([]byte, error) {
	target, err := buildURL(req)
	if err != nil {
		return nil, err
	}

	ctx, span := c.tracer.Start(ctx, req.method+" "+req.path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			semconv.HTTPRequestMethodKey.String(req.method),
			semconv.URLFull(target),
			attribute.String("alpaca.path", req.path),
		),
	)
	defer span.End()

	admitStart := time.Now()
	if err := c.gate.Admit(ctx); err != nil {
		span.SetStatus(codes.Error, "rate limit admission")
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	span.AddEvent("admitted", trace.WithAttributes(
		attribute.Int64("alpaca.gate_wait_ms", time.Since(admitStart).Milliseconds()),
	))

	var payload io.Reader
	if req.body != nil {
		data, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		payload = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, payload)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	accept := req.accept
	if accept == "" {
		accept = "application/json"
	}
	httpReq.Header.Set("Accept", accept)
	httpReq.Header.Set("User-Agent", version.UserAgent())
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	c.creds.Apply(httpReq.Header)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.metrics.ObserveRequest(req.method, 0, time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	c.metrics.ObserveRequest(req.method, resp.StatusCode, time.Since(start))
	span.SetAttributes(semconv.HTTPResponseStatusCode(resp.StatusCode))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug("rest request",
		"method", req.method,
		"path", req.path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		herr := newHTTPError(req.method, target, resp.StatusCode, body)
		span.SetStatus(codes.Error, herr.Error())
		return nil, herr
	}

	return body, nil
}

func newHTTPError(method, target string, status int, body []byte) *HTTPError {
	e := &HTTPError{
		StatusCode: status,
		Method:     method,
		URL:        target,
		Body:       string(body),
	}
	var payload struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil {
		e.Code = payload.Code
		e.Message = payload.Message
	}
	if e.Message == "" {
		e.Message = strings.TrimSpace(string(body))
	}
	return e
}

// buildURL joins base and the expanded path and appends the encoded query.
func buildURL(req request) (string, error) {
	path, err := expandPath(req.path, req.params)
	if err != nil {
		return "", err
	}

	values, err := encodeQuery(req.query)
	if err != nil {
		return "", err
	}

	target := strings.TrimSuffix(req.base, "/") + path
	if len(values) > 0 {
		target += "?" + values.Encode()
	}
	return target, nil
}

// expandPath substitutes :name segments with path-escaped params, in order.
func expandPath(tmpl string, params []string) (string, error) {
	segments := strings.Split(tmpl, "/")
	next := 0
	for i, seg := range segments {
		if !strings.HasPrefix(seg, ":") {
			continue
		}
		if next >= len(params) {
			return "", fmt.Errorf("%w: %s wants more than %d", ErrPathParams, tmpl, len(params))
		}
		if params[next] == "" {
			return "", fmt.Errorf("%s: empty value for %s", tmpl, seg)
		}
		segments[i] = url.PathEscape(params[next])
		next++
	}
	if next != len(params) {
		return "", fmt.Errorf("%w: %s takes %d, got %d", ErrPathParams, tmpl, next, len(params))
	}
	return strings.Join(segments, "/"), nil
}

func encodeQuery(q any) (url.Values, error) {
	switch v := q.(type) {
	case nil:
		return nil, nil
	case url.Values:
		return v, nil
	default:
		values, err := query.Values(q)
		if err != nil {
			return nil, fmt.Errorf("encode query: %w", err)
		}
		return values, nil
	}
}
