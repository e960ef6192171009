package market

import (
	"context"
	"fmt"
	"time"

	"github.com/rickgao/alpaca-sdk/internal/api"
	"github.com/rickgao/alpaca-sdk/internal/model"
)

func (r *registry) fetch(ctx context.Context) ([]model.Asset, error) {
	return r.source.GetAssets(ctx, api.AssetsOptions{
		AssetClass: r.cfg.AssetClass,
		Exchange:   r.cfg.Exchange,
	})
}

// initialSync loads the asset list on startup. Every active asset is
// announced as added.
func (r *registry) initialSync(ctx context.Context) error {
	r.checkClock(ctx)

	r.logger.Info("starting initial asset sync", "class", r.cfg.AssetClass)
	start := time.Now()

	assets, err := r.fetch(ctx)
	if err != nil {
		return fmt.Errorf("initial asset sync: %w", err)
	}

	r.state.mu.Lock()
	for _, a := range assets {
		if r.state.upsertLocked(a) {
			r.state.notifyChange(AssetChange{
				Symbol:    a.Symbol,
				EventType: ChangeAdded,
				NewActive: true,
				Asset:     &a,
			})
		}
	}
	r.state.lastSyncAt = time.Now()
	active := len(r.state.activeSet)
	r.state.mu.Unlock()

	r.logger.Info("initial sync complete",
		"total_assets", len(assets),
		"active_assets", active,
		"duration", time.Since(start),
	)

	return nil
}

// checkClock records whether the market is open. Failures are logged only.
func (r *registry) checkClock(ctx context.Context) {
	clock, err := r.source.GetClock(ctx)
	if err != nil {
		r.logger.Warn("failed to get market clock", "err", err)
		return
	}

	r.state.mu.Lock()
	r.state.marketOpen = clock.IsOpen
	r.state.mu.Unlock()

	if !clock.IsOpen {
		r.logger.Info("market is closed", "next_open", clock.NextOpen)
	}
}

func (r *registry) reconciliationLoop(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.ReconcileInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.reconcile(ctx)
		}
	}
}

// reconcile refetches the asset list and emits the differences.
func (r *registry) reconcile(ctx context.Context) {
	start := time.Now()
	r.checkClock(ctx)

	assets, err := r.fetch(ctx)
	if err != nil {
		r.logger.Error("reconciliation failed fetching assets", "err", err)
		return
	}

	seen := make(map[string]struct{}, len(assets))
	var added, changed, removed int

	r.state.mu.Lock()
	for _, a := range assets {
		seen[a.Symbol] = struct{}{}

		_, known := r.state.assets[a.Symbol]
		wasActive := r.state.isActive(a.Symbol)
		nowActive := r.state.upsertLocked(a)

		switch {
		case !known && nowActive:
			r.state.notifyChange(AssetChange{Symbol: a.Symbol, EventType: ChangeAdded, NewActive: true, Asset: &a})
			added++
		case known && wasActive != nowActive:
			r.state.notifyChange(AssetChange{
				Symbol:    a.Symbol,
				EventType: ChangeUpdated,
				OldActive: wasActive,
				NewActive: nowActive,
				Asset:     &a,
			})
			changed++
		}
	}

	for sym := range r.state.assets {
		if _, ok := seen[sym]; ok {
			continue
		}
		if r.state.removeLocked(sym) {
			r.state.notifyChange(AssetChange{Symbol: sym, EventType: ChangeRemoved, OldActive: true})
			removed++
		}
	}
	r.state.lastSyncAt = time.Now()
	r.state.mu.Unlock()

	if added > 0 || changed > 0 || removed > 0 {
		r.logger.Info("reconciliation found changes",
			"added", added,
			"changed", changed,
			"removed", removed,
			"duration", time.Since(start),
		)
	} else {
		r.logger.Debug("reconciliation complete",
			"total_assets", len(assets),
			"duration", time.Since(start),
		)
	}
}
