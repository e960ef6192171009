package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the SDK collectors. A nil *Metrics is valid and records
// nothing, so components can take it unconditionally.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	GateWait        prometheus.Histogram

	StreamState      *prometheus.GaugeVec
	StreamMessages   *prometheus.CounterVec
	StreamDropped    *prometheus.CounterVec
	StreamReconnects prometheus.Counter

	PollCycles   prometheus.Counter
	PollFailures prometheus.Counter
}

// New registers the SDK collectors on reg under namespace. A nil reg uses the
// default registerer.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rest",
			Name:      "requests_total",
			Help:      "REST requests by method and status code",
		}, []string{"method", "code"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rest",
			Name:      "request_duration_seconds",
			Help:      "REST request latency after admission",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		GateWait: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rest",
			Name:      "rate_limit_wait_seconds",
			Help:      "Time spent waiting for a rate limit token",
			Buckets:   []float64{0, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}),
		StreamState: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "state",
			Help:      "1 for the current connection state of each stream",
		}, []string{"stream", "state"}),
		StreamMessages: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "messages_total",
			Help:      "Inbound stream messages dispatched by event",
		}, []string{"stream", "event"}),
		StreamDropped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "dropped_total",
			Help:      "Inbound stream messages dropped by reason",
		}, []string{"stream", "reason"}),
		StreamReconnects: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "reconnects_total",
			Help:      "Stream reconnect attempts",
		}),
		PollCycles: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "cycles_total",
			Help:      "Completed snapshot poll cycles",
		}),
		PollFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "failures_total",
			Help:      "Failed snapshot batch requests",
		}),
	}
}

// ObserveRequest records a completed REST call. code is 0 for transport errors.
func (m *Metrics) ObserveRequest(method string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	m.RequestDuration.WithLabelValues(method).Observe(d.Seconds())
}

// ObserveGateWait records time spent in the rate limiter.
func (m *Metrics) ObserveGateWait(d time.Duration) {
	if m == nil {
		return
	}
	m.GateWait.Observe(d.Seconds())
}

// SetStreamState marks state as the current state of stream.
func (m *Metrics) SetStreamState(stream, state string, all []string) {
	if m == nil {
		return
	}
	for _, s := range all {
		v := 0.0
		if s == state {
			v = 1
		}
		m.StreamState.WithLabelValues(stream, s).Set(v)
	}
}

// StreamMessage counts a dispatched message.
func (m *Metrics) StreamMessage(stream, event string) {
	if m == nil {
		return
	}
	m.StreamMessages.WithLabelValues(stream, event).Inc()
}

// StreamDrop counts a dropped message.
func (m *Metrics) StreamDrop(stream, reason string) {
	if m == nil {
		return
	}
	m.StreamDropped.WithLabelValues(stream, reason).Inc()
}

// StreamReconnect counts a reconnect attempt.
func (m *Metrics) StreamReconnect() {
	if m == nil {
		return
	}
	m.StreamReconnects.Inc()
}

// PollCycle counts a completed poll cycle and its failed batches.
func (m *Metrics) PollCycle(failures int) {
	if m == nil {
		return
	}
	m.PollCycles.Inc()
	m.PollFailures.Add(float64(failures))
}
