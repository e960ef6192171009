package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rickgao/alpaca-sdk/internal/api"
	"github.com/rickgao/alpaca-sdk/internal/config"
	"github.com/rickgao/alpaca-sdk/internal/logging"
	"github.com/rickgao/alpaca-sdk/internal/market"
	"github.com/rickgao/alpaca-sdk/internal/metrics"
	"github.com/rickgao/alpaca-sdk/internal/model"
	"github.com/rickgao/alpaca-sdk/internal/poller"
	"github.com/rickgao/alpaca-sdk/internal/tracing"
	"github.com/rickgao/alpaca-sdk/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/alpaca.example.yaml", "path to config file")
	envFile := flag.String("env", ".env", "dotenv file loaded before the config")
	flag.Parse()

	if err := config.LoadDotEnv(*envFile); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.Logging, nil)
	logger.Info("starting snapshot poller",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing, os.Stderr)
	if err != nil {
		logger.Error("failed to init tracing", "error", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(cfg.Metrics.Namespace, reg)
	}

	client, err := api.NewClientFromConfig(cfg,
		api.WithLogger(logger),
		api.WithMetrics(m),
	)
	if err != nil {
		logger.Error("failed to create api client", "error", err)
		os.Exit(1)
	}

	clock, err := client.GetClock(ctx)
	if err != nil {
		logger.Error("failed to get market clock", "error", err)
		os.Exit(1)
	}
	logger.Info("market clock",
		"is_open", clock.IsOpen,
		"next_open", clock.NextOpen,
		"next_close", clock.NextClose,
	)

	// Without a configured symbol list, follow every tradable US equity.
	var symbols poller.SymbolSource = poller.StaticSymbols(cfg.Poller.Symbols)
	if len(cfg.Poller.Symbols) == 0 {
		registry := market.NewRegistry(market.DefaultConfig(), client, logger)
		if err := registry.Start(ctx); err != nil {
			logger.Error("failed to start asset registry", "error", err)
			os.Exit(1)
		}
		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer stopCancel()
			registry.Stop(stopCtx)
		}()
		symbols = registry
	}

	store := newSnapshotStore()
	p := poller.New(poller.ConfigFrom(cfg.Poller), client, symbols, store,
		poller.WithLogger(logger),
		poller.WithMetrics(m),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler:           newHandler(cfg.Metrics.Path, reg, p, store, client),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("starting http server", "port", cfg.Metrics.Port)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("http server error", "error", err)
		}
	}()

	if err := p.Start(ctx); err != nil {
		logger.Error("failed to start poller", "error", err)
		os.Exit(1)
	}

	logger.Info("poller running",
		"symbols", len(symbols.Symbols()),
		"health_url", fmt.Sprintf("http://localhost:%d/health", cfg.Metrics.Port),
	)

	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	p.Stop(shutdownCtx)
	server.Shutdown(shutdownCtx)
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("tracing shutdown", "error", err)
	}

	logger.Info("poller stopped")
}

// snapshotStore keeps the latest snapshot per symbol.
type snapshotStore struct {
	mu    sync.RWMutex
	snaps map[string]model.Snapshot
}

func newSnapshotStore() *snapshotStore {
	return &snapshotStore{snaps: make(map[string]model.Snapshot)}
}

func (s *snapshotStore) HandleSnapshot(symbol string, snap model.Snapshot) error {
	s.mu.Lock()
	s.snaps[symbol] = snap
	s.mu.Unlock()
	if snap.LatestTrade != nil {
		slog.Debug("snapshot", "symbol", symbol, "price", snap.LatestTrade.Price)
	}
	return nil
}

func (s *snapshotStore) copy() map[string]model.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]model.Snapshot, len(s.snaps))
	for k, v := range s.snaps {
		out[k] = v
	}
	return out
}

func newHandler(metricsPath string, reg *prometheus.Registry, p *poller.Poller, store *snapshotStore, client *api.Client) http.Handler {
	mux := http.NewServeMux()

	mux.Handle(metricsPath, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		health := struct {
			Status     string         `json:"status"`
			Components map[string]any `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]any),
		}

		last := p.LastCycle()
		switch {
		case last == nil:
			health.Status = "starting"
		case last.Failures > 0 && last.Fetched == 0:
			health.Status = "unhealthy"
		case last.Failures > 0:
			health.Status = "degraded"
		}
		if last != nil {
			health.Components["poller"] = map[string]any{
				"symbols":  last.Symbols,
				"fetched":  last.Fetched,
				"failures": last.Failures,
				"duration": last.Duration.String(),
			}
		}
		health.Components["rate_limit"] = map[string]any{
			"tokens":  client.Gate().Bucket().Tokens(),
			"waiting": client.Gate().Waiting(),
		}

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})

	mux.HandleFunc("/debug/snapshots", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(store.copy())
	})

	return mux
}
