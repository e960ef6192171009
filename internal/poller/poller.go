package poller

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/alpaca-sdk/internal/api"
	"github.com/rickgao/alpaca-sdk/internal/config"
	"github.com/rickgao/alpaca-sdk/internal/metrics"
	"github.com/rickgao/alpaca-sdk/internal/model"
)

// SnapshotFetcher is the part of *api.Client the poller needs.
type SnapshotFetcher interface {
	GetStocksSnapshots(ctx context.Context, opts api.LatestOptions) (map[string]model.Snapshot, error)
}

// SymbolSource provides the symbols to poll. It is consulted every cycle.
type SymbolSource interface {
	Symbols() []string
}

// StaticSymbols is a fixed SymbolSource.
type StaticSymbols []string

func (s StaticSymbols) Symbols() []string { return s }

// SnapshotHandler receives fetched snapshots.
type SnapshotHandler interface {
	HandleSnapshot(symbol string, snapshot model.Snapshot) error
}

// SnapshotHandlerFunc is a function adapter for SnapshotHandler.
type SnapshotHandlerFunc func(string, model.Snapshot) error

func (f SnapshotHandlerFunc) HandleSnapshot(symbol string, s model.Snapshot) error {
	return f(symbol, s)
}

// Config holds poller configuration.
type Config struct {
	Interval    time.Duration // Poll interval (default: 1m)
	Concurrency int           // Max batches in flight (default: 4)
	BatchSize   int           // Symbols per request (default: 100)
	Timeout     time.Duration // Per-request timeout (default: 10s)
	Feed        string        // iex, sip, ... empty uses the account default
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval:    config.DefaultPollInterval,
		Concurrency: config.DefaultPollConcurrency,
		BatchSize:   config.DefaultPollBatchSize,
		Timeout:     config.DefaultPollTimeout,
	}
}

// ConfigFrom converts the file configuration.
func ConfigFrom(c config.PollerConfig) Config {
	return Config{
		Interval:    c.Interval,
		Concurrency: c.Concurrency,
		BatchSize:   c.BatchSize,
		Timeout:     c.Timeout,
		Feed:        c.Feed,
	}
}

// CycleStats summarises one poll cycle.
type CycleStats struct {
	Symbols  int
	Batches  int
	Fetched  int64
	Failures int64
	Duration time.Duration
}

// Poller periodically fetches snapshots via the REST API.
type Poller struct {
	cfg     Config
	client  SnapshotFetcher
	symbols SymbolSource
	handler SnapshotHandler
	logger  *slog.Logger
	metrics *metrics.Metrics

	last atomic.Pointer[CycleStats]

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a Poller.
type Option func(*Poller)

// WithLogger sets the logger. slog.Default is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(p *Poller) { p.logger = l }
}

// WithMetrics records cycles and failed batches.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Poller) { p.metrics = m }
}

// New creates a new Poller. Non-positive settings fall back to DefaultConfig.
func New(cfg Config, client SnapshotFetcher, symbols SymbolSource, handler SnapshotHandler, opts ...Option) *Poller {
	def := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}

	p := &Poller{
		cfg:     cfg,
		client:  client,
		symbols: symbols,
		handler: handler,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("component", "poller")
	return p
}

// Start begins the polling loop. The first cycle runs immediately.
func (p *Poller) Start(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.run()

	p.logger.Info("snapshot poller started",
		"interval", p.cfg.Interval,
		"concurrency", p.cfg.Concurrency,
		"batch_size", p.cfg.BatchSize,
	)

	return nil
}

// Stop cancels in-flight requests and waits for the loop to exit.
func (p *Poller) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("snapshot poller stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LastCycle returns the stats of the most recent completed cycle, or nil
// before the first one finishes.
func (p *Poller) LastCycle() *CycleStats {
	return p.last.Load()
}

func (p *Poller) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	p.pollAll(p.ctx)

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.pollAll(p.ctx)
		}
	}
}

// pollAll fetches every batch with bounded concurrency. A failed batch does
// not cancel the others.
func (p *Poller) pollAll(ctx context.Context) CycleStats {
	start := time.Now()

	symbols := p.symbols.Symbols()
	if len(symbols) == 0 {
		p.logger.Debug("no symbols to poll")
		return CycleStats{}
	}

	batches := chunk(symbols, p.cfg.BatchSize)

	var g errgroup.Group
	g.SetLimit(p.cfg.Concurrency)
	var fetched, failures atomic.Int64

	for _, batch := range batches {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			n, err := p.pollBatch(ctx, batch)
			fetched.Add(int64(n))
			if err != nil {
				p.logger.Warn("failed to poll batch",
					"first", batch[0],
					"size", len(batch),
					"err", err,
				)
				failures.Add(1)
			}
			return nil
		})
	}
	g.Wait()

	stats := CycleStats{
		Symbols:  len(symbols),
		Batches:  len(batches),
		Fetched:  fetched.Load(),
		Failures: failures.Load(),
		Duration: time.Since(start),
	}
	p.last.Store(&stats)
	p.metrics.PollCycle(int(stats.Failures))

	p.logger.Info("poll cycle complete",
		"symbols", stats.Symbols,
		"batches", stats.Batches,
		"fetched", stats.Fetched,
		"errors", stats.Failures,
		"duration", stats.Duration,
	)
	return stats
}

// pollBatch fetches one batch and hands each snapshot to the handler. It
// returns how many snapshots were handled.
func (p *Poller) pollBatch(ctx context.Context, batch []string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	snaps, err := p.client.GetStocksSnapshots(ctx, api.LatestOptions{Symbols: batch, Feed: p.cfg.Feed})
	if err != nil {
		return 0, err
	}

	handled := 0
	for _, sym := range batch {
		snap, ok := snaps[sym]
		if !ok {
			continue
		}
		if p.handler != nil {
			if err := p.handler.HandleSnapshot(sym, snap); err != nil {
				return handled, err
			}
		}
		handled++
	}
	return handled, nil
}

func chunk(symbols []string, size int) [][]string {
	out := make([][]string, 0, (len(symbols)+size-1)/size)
	for len(symbols) > size {
		out = append(out, symbols[:size:size])
		symbols = symbols[size:]
	}
	return append(out, symbols)
}
