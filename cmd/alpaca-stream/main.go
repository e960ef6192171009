// alpaca-stream connects to an Alpaca WebSocket stream and prints events to
// the console.
//
// Usage:
//
//	go run ./cmd/alpaca-stream --config configs/alpaca.example.yaml --events trades,quotes --symbols AAPL,MSFT
//
// Credentials come from the config file or APCA_API_KEY_ID / APCA_API_SECRET_KEY.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rickgao/alpaca-sdk/internal/auth"
	"github.com/rickgao/alpaca-sdk/internal/config"
	"github.com/rickgao/alpaca-sdk/internal/connection"
	"github.com/rickgao/alpaca-sdk/internal/logging"
	"github.com/rickgao/alpaca-sdk/internal/model"
	"github.com/rickgao/alpaca-sdk/internal/router"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	events := flag.String("events", "trades", "comma separated events or channels to subscribe to")
	symbols := flag.String("symbols", "*", "comma separated symbols for market data events")
	verbose := flag.Bool("verbose", false, "print full message JSON")
	flag.Parse()

	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.LoadAndValidate(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "failed to load config:", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	logger := logging.Setup(cfg.Logging, os.Stderr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	creds := auth.FromConfig(cfg.Credentials)
	logger.Info("using credentials", "auth", creds.Redacted())

	mgr, err := connection.NewManager(connection.ManagerConfigFrom(cfg.Stream), creds,
		connection.WithLogger(logger),
	)
	if err != nil {
		logger.Error("failed to create connection manager", "error", err)
		os.Exit(1)
	}
	defer mgr.Close()

	syms := splitList(*symbols)
	for _, name := range splitList(*events) {
		ev, err := router.ParseEvent(mgr.Family(), name)
		if err != nil {
			logger.Error("invalid event", "error", err)
			os.Exit(1)
		}
		if err := mgr.Subscribe(ev, printer(*verbose), syms...); err != nil {
			logger.Error("failed to subscribe", "event", ev, "error", err)
			os.Exit(1)
		}
	}

	logger.Info("connecting", "url", mgr.URL(), "family", mgr.Family())
	if err := mgr.Connect(ctx); err != nil {
		logger.Warn("initial connect failed", "error", err)
	}

	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stats := mgr.Stats()
				logger.Info("stats",
					"state", stats.State,
					"connects", stats.Connects,
					"reconnects", stats.Reconnects,
					"frames_in", stats.FramesIn,
					"frames_dropped", stats.FramesDropped,
					"subscriptions", stats.Subscriptions,
				)
			}
		}
	}()

	logger.Info("streaming started - press Ctrl+C to stop")

	select {
	case <-ctx.Done():
		logger.Info("shutting down...")
	case <-mgr.Done():
		logger.Error("stream closed", "error", mgr.Err())
		os.Exit(1)
	}

	mgr.Close()
	logger.Info("shutdown complete")
}

func printer(verbose bool) router.Handler {
	return func(env router.Envelope) {
		if verbose {
			fmt.Printf("[%s] %s\n", env.Event, env.Raw)
			return
		}
		fmt.Println(summarize(env))
	}
}

func summarize(env router.Envelope) string {
	switch env.Event {
	case router.EventTradeUpdates:
		if u, err := router.Decode[model.TradeUpdate](env); err == nil {
			return fmt.Sprintf("[ORDER] event=%s symbol=%s status=%s", u.Event, u.Order.Symbol, u.Order.Status)
		}
	case router.EventTrades:
		if t, err := router.Decode[model.StreamTrade](env); err == nil {
			return fmt.Sprintf("[TRADE] symbol=%s price=%v size=%v", t.Symbol, t.Price, t.Size)
		}
	case router.EventQuotes:
		if q, err := router.Decode[model.StreamQuote](env); err == nil {
			return fmt.Sprintf("[QUOTE] symbol=%s bid=%v ask=%v", q.Symbol, q.BidPrice, q.AskPrice)
		}
	case router.EventBars, router.EventDailyBars, router.EventUpdatedBars:
		if b, err := router.Decode[model.StreamBar](env); err == nil {
			return fmt.Sprintf("[BAR] symbol=%s close=%v volume=%v", b.Symbol, b.Close, b.Volume)
		}
	}
	return fmt.Sprintf("[%s] %s", strings.ToUpper(string(env.Event)), env.Raw)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
