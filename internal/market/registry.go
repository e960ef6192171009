package market

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rickgao/alpaca-sdk/internal/api"
	"github.com/rickgao/alpaca-sdk/internal/model"
)

// ChangeBufferSize is the capacity of the AssetChange channel.
const ChangeBufferSize = 1000

// Change event types.
const (
	ChangeAdded   = "added"
	ChangeUpdated = "status_change"
	ChangeRemoved = "removed"
)

// AssetSource is the part of *api.Client the registry needs.
type AssetSource interface {
	GetAssets(ctx context.Context, opts api.AssetsOptions) ([]model.Asset, error)
	GetClock(ctx context.Context) (*model.Clock, error)
}

// Registry tracks the asset universe.
type Registry interface {
	// Start loads the asset list (blocking) and starts reconciliation.
	Start(ctx context.Context) error

	// Stop gracefully shuts down.
	Stop(ctx context.Context) error

	// Active returns the assets that pass the configured filter.
	Active() []model.Asset

	// Get returns a known asset by symbol.
	Get(symbol string) (model.Asset, bool)

	// Symbols returns the active symbols in sorted order.
	Symbols() []string

	// Changes returns a channel of asset state changes. When the buffer is
	// full the oldest change is dropped.
	Changes() <-chan AssetChange

	// MarketOpen reports the clock state seen at the last sync.
	MarketOpen() bool

	// LastSync returns when the asset list was last fetched.
	LastSync() time.Time
}

// AssetChange is an asset entering, changing state in or leaving the active
// set.
type AssetChange struct {
	Symbol    string
	EventType string       // added, status_change, removed
	OldActive bool         // for status_change
	NewActive bool         //
	Asset     *model.Asset // nil for removed
}

// Config holds registry configuration.
type Config struct {
	ReconcileInterval  time.Duration
	InitialLoadTimeout time.Duration
	AssetClass         string // us_equity, us_option or crypto; empty for all
	Exchange           string

	// Filter selects the active set. Tradable is used when nil.
	Filter func(model.Asset) bool
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ReconcileInterval:  15 * time.Minute,
		InitialLoadTimeout: time.Minute,
		AssetClass:         "us_equity",
	}
}

// Tradable selects active, tradable assets.
func Tradable(a model.Asset) bool {
	return a.Status == "active" && a.Tradable
}

type registry struct {
	cfg    Config
	source AssetSource
	logger *slog.Logger

	state *registryState

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRegistry creates a new asset registry.
func NewRegistry(cfg Config, source AssetSource, logger *slog.Logger) Registry {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.ReconcileInterval <= 0 {
		cfg.ReconcileInterval = def.ReconcileInterval
	}
	if cfg.InitialLoadTimeout <= 0 {
		cfg.InitialLoadTimeout = def.InitialLoadTimeout
	}
	if cfg.Filter == nil {
		cfg.Filter = Tradable
	}

	return &registry{
		cfg:    cfg,
		source: source,
		logger: logger.With("component", "asset_registry"),
		state:  newState(cfg.Filter),
	}
}

func (r *registry) Start(ctx context.Context) error {
	r.ctx, r.cancel = context.WithCancel(ctx)

	loadCtx, cancel := context.WithTimeout(r.ctx, r.cfg.InitialLoadTimeout)
	err := r.initialSync(loadCtx)
	cancel()
	if err != nil {
		r.cancel()
		return err
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.reconciliationLoop(r.ctx)
	}()

	r.logger.Info("asset registry started",
		"active_assets", r.state.activeCount(),
		"total_assets", r.state.count(),
	)

	return nil
}

func (r *registry) Stop(ctx context.Context) error {
	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("asset registry stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *registry) Active() []model.Asset {
	return r.state.getActive()
}

func (r *registry) Get(symbol string) (model.Asset, bool) {
	return r.state.get(symbol)
}

func (r *registry) Symbols() []string {
	return r.state.symbols()
}

func (r *registry) Changes() <-chan AssetChange {
	return r.state.changes
}

func (r *registry) MarketOpen() bool {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()
	return r.state.marketOpen
}

func (r *registry) LastSync() time.Time {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()
	return r.state.lastSyncAt
}
