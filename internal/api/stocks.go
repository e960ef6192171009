package api

import (
	"context"
	"fmt"
	"time"

	"github.com/rickgao/alpaca-sdk/internal/model"
)

// Stock data feeds.
const (
	FeedIEX = "iex"
	FeedSIP = "sip"
	FeedOTC = "otc"
)

// StocksBarsOptions filters GetStocksBars.
type StocksBarsOptions struct {
	Symbols    []string  `url:"symbols,comma"`
	Timeframe  string    `url:"timeframe"` // e.g. 1Min, 15Min, 1Hour, 1Day
	Start      time.Time `url:"start,omitempty"`
	End        time.Time `url:"end,omitempty"`
	Limit      int       `url:"limit,omitempty"`
	Adjustment string    `url:"adjustment,omitempty"` // raw, split, dividend, all
	AsOf       string    `url:"asof,omitempty"`
	Feed       string    `url:"feed,omitempty"`
	Currency   string    `url:"currency,omitempty"`
	PageToken  string    `url:"page_token,omitempty"`
	Sort       string    `url:"sort,omitempty"` // asc or desc
}

// StocksTicksOptions filters the historical trades, quotes and auctions
// endpoints.
type StocksTicksOptions struct {
	Symbols   []string  `url:"symbols,comma"`
	Start     time.Time `url:"start,omitempty"`
	End       time.Time `url:"end,omitempty"`
	Limit     int       `url:"limit,omitempty"`
	AsOf      string    `url:"asof,omitempty"`
	Feed      string    `url:"feed,omitempty"`
	Currency  string    `url:"currency,omitempty"`
	PageToken string    `url:"page_token,omitempty"`
	Sort      string    `url:"sort,omitempty"`
}

// LatestOptions selects symbols for the latest-value and snapshot endpoints.
type LatestOptions struct {
	Symbols  []string `url:"symbols,comma"`
	Feed     string   `url:"feed,omitempty"`
	Currency string   `url:"currency,omitempty"`
}

// GetStocksBars fetches one page of historical bars.
func (c *Client) GetStocksBars(ctx context.Context, opts StocksBarsOptions) (*model.MultiBars, error) {
	bars, err := call[model.MultiBars](ctx, c, c.data("/v2/stocks/bars").withQuery(opts))
	if err != nil {
		return nil, fmt.Errorf("get stock bars: %w", err)
	}
	return &bars, nil
}

// GetAllStocksBars follows page tokens and merges every page by symbol.
func (c *Client) GetAllStocksBars(ctx context.Context, opts StocksBarsOptions) (map[string][]model.Bar, error) {
	all := make(map[string][]model.Bar)
	if opts.Limit == 0 {
		opts.Limit = 10000 // Max page size
	}

	for {
		page, err := c.GetStocksBars(ctx, opts)
		if err != nil {
			return nil, err
		}

		for sym, bars := range page.Bars {
			all[sym] = append(all[sym], bars...)
		}

		if page.NextPageToken == nil || *page.NextPageToken == "" {
			break
		}
		opts.PageToken = *page.NextPageToken
	}

	return all, nil
}

func (c *Client) GetStocksBarsLatest(ctx context.Context, opts LatestOptions) (*model.LatestBars, error) {
	bars, err := call[model.LatestBars](ctx, c, c.data("/v2/stocks/bars/latest").withQuery(opts))
	if err != nil {
		return nil, fmt.Errorf("get latest stock bars: %w", err)
	}
	return &bars, nil
}

func (c *Client) GetStocksTrades(ctx context.Context, opts StocksTicksOptions) (*model.MultiTrades, error) {
	trades, err := call[model.MultiTrades](ctx, c, c.data("/v2/stocks/trades").withQuery(opts))
	if err != nil {
		return nil, fmt.Errorf("get stock trades: %w", err)
	}
	return &trades, nil
}

func (c *Client) GetStocksTradesLatest(ctx context.Context, opts LatestOptions) (*model.LatestTrades, error) {
	trades, err := call[model.LatestTrades](ctx, c, c.data("/v2/stocks/trades/latest").withQuery(opts))
	if err != nil {
		return nil, fmt.Errorf("get latest stock trades: %w", err)
	}
	return &trades, nil
}

func (c *Client) GetStocksQuotes(ctx context.Context, opts StocksTicksOptions) (*model.MultiQuotes, error) {
	quotes, err := call[model.MultiQuotes](ctx, c, c.data("/v2/stocks/quotes").withQuery(opts))
	if err != nil {
		return nil, fmt.Errorf("get stock quotes: %w", err)
	}
	return &quotes, nil
}

func (c *Client) GetStocksQuotesLatest(ctx context.Context, opts LatestOptions) (*model.LatestQuotes, error) {
	quotes, err := call[model.LatestQuotes](ctx, c, c.data("/v2/stocks/quotes/latest").withQuery(opts))
	if err != nil {
		return nil, fmt.Errorf("get latest stock quotes: %w", err)
	}
	return &quotes, nil
}

// GetStocksSnapshots returns the latest trade, quote and bars per symbol.
// Unknown symbols are absent from the map.
func (c *Client) GetStocksSnapshots(ctx context.Context, opts LatestOptions) (map[string]model.Snapshot, error) {
	snaps, err := call[map[string]model.Snapshot](ctx, c, c.data("/v2/stocks/snapshots").withQuery(opts))
	if err != nil {
		return nil, fmt.Errorf("get stock snapshots: %w", err)
	}
	return snaps, nil
}

func (c *Client) GetStocksAuctions(ctx context.Context, opts StocksTicksOptions) (*model.MultiAuctions, error) {
	auctions, err := call[model.MultiAuctions](ctx, c, c.data("/v2/stocks/auctions").withQuery(opts))
	if err != nil {
		return nil, fmt.Errorf("get stock auctions: %w", err)
	}
	return &auctions, nil
}

type conditionsQuery struct {
	Tape string `url:"tape,omitempty"`
}

// GetStocksConditions maps condition codes to descriptions. tickType is
// trade or quote; tape is A, B or C.
func (c *Client) GetStocksConditions(ctx context.Context, tickType, tape string) (map[string]string, error) {
	req := c.data("/v2/stocks/meta/conditions/:ticktype", tickType).withQuery(conditionsQuery{Tape: tape})
	conds, err := call[map[string]string](ctx, c, req)
	if err != nil {
		return nil, fmt.Errorf("get %s conditions: %w", tickType, err)
	}
	return conds, nil
}

func (c *Client) GetStocksExchangeCodes(ctx context.Context) (model.ExchangeCodes, error) {
	codes, err := call[model.ExchangeCodes](ctx, c, c.data("/v2/stocks/meta/exchanges"))
	if err != nil {
		return nil, fmt.Errorf("get exchange codes: %w", err)
	}
	return codes, nil
}
