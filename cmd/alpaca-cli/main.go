// alpaca-cli runs read-only calls against the Alpaca REST API through the
// rate-limited client.
//
// Usage:
//
//	alpaca-cli [flags] [check|clock|account|positions|orders|bars]
//
// check (the default) fetches the clock, account, tradable assets and latest
// trades in parallel and prints a summary.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/alpaca-sdk/internal/api"
	"github.com/rickgao/alpaca-sdk/internal/config"
	"github.com/rickgao/alpaca-sdk/internal/logging"
	"github.com/rickgao/alpaca-sdk/internal/model"
	"github.com/rickgao/alpaca-sdk/internal/tracing"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	symbols := flag.String("symbols", "AAPL,MSFT", "comma separated symbols for market data calls")
	timeframe := flag.String("timeframe", "1Day", "bar timeframe for the bars command")
	timeout := flag.Duration("timeout", 30*time.Second, "overall deadline")
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

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing, os.Stderr)
	if err != nil {
		logger.Error("failed to init tracing", "error", err)
		os.Exit(1)
	}
	defer shutdownTracing(context.Background())

	client, err := api.NewClientFromConfig(cfg, api.WithLogger(logger))
	if err != nil {
		logger.Error("failed to create api client", "error", err)
		os.Exit(1)
	}

	cmd := "check"
	if flag.NArg() > 0 {
		cmd = flag.Arg(0)
	}
	syms := splitList(*symbols)

	var out any
	switch cmd {
	case "check":
		out, err = check(ctx, client, syms)
	case "clock":
		out, err = client.GetClock(ctx)
	case "account":
		out, err = client.GetAccount(ctx)
	case "positions":
		out, err = client.GetPositions(ctx)
	case "orders":
		out, err = client.GetOrders(ctx, api.OrdersOptions{Status: "open"})
	case "bars":
		out, err = client.GetAllStocksBars(ctx, api.StocksBarsOptions{
			Symbols:   syms,
			Timeframe: *timeframe,
			Start:     time.Now().AddDate(0, 0, -7),
		})
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", cmd)
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Error("request failed", "command", cmd, "error", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(out)
}

type summary struct {
	Clock          *model.Clock           `json:"clock"`
	AccountStatus  string                 `json:"account_status"`
	BuyingPower    string                 `json:"buying_power"`
	TradableAssets int                    `json:"tradable_assets"`
	LatestTrades   map[string]model.Trade `json:"latest_trades"`
	Elapsed        string                 `json:"elapsed"`
}

// check issues the smoke-test calls concurrently; the client's gate keeps
// them within the rate limit.
func check(ctx context.Context, client *api.Client, symbols []string) (*summary, error) {
	start := time.Now()
	var s summary

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		clock, err := client.GetClock(ctx)
		s.Clock = clock
		return err
	})
	g.Go(func() error {
		acct, err := client.GetAccount(ctx)
		if err != nil {
			return err
		}
		s.AccountStatus = acct.Status
		s.BuyingPower = acct.BuyingPower.String()
		return nil
	})
	g.Go(func() error {
		assets, err := client.GetAssets(ctx, api.AssetsOptions{Status: "active"})
		if err != nil {
			return err
		}
		for _, a := range assets {
			if a.Tradable {
				s.TradableAssets++
			}
		}
		return nil
	})
	g.Go(func() error {
		trades, err := client.GetStocksTradesLatest(ctx, api.LatestOptions{Symbols: symbols})
		if err != nil {
			return err
		}
		s.LatestTrades = trades.Trades
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	s.Elapsed = time.Since(start).Round(time.Millisecond).String()
	return &s, nil
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
