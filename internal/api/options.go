package api

import (
	"context"
	"fmt"
	"time"

	"github.com/rickgao/alpaca-sdk/internal/model"
)

// OptionsBarsOptions filters GetOptionsBars.
type OptionsBarsOptions struct {
	Symbols   []string  `url:"symbols,comma"`
	Timeframe string    `url:"timeframe"`
	Start     time.Time `url:"start,omitempty"`
	End       time.Time `url:"end,omitempty"`
	Limit     int       `url:"limit,omitempty"`
	PageToken string    `url:"page_token,omitempty"`
	Sort      string    `url:"sort,omitempty"`
}

// OptionsTradesOptions filters GetOptionsTrades.
type OptionsTradesOptions struct {
	Symbols   []string  `url:"symbols,comma"`
	Start     time.Time `url:"start,omitempty"`
	End       time.Time `url:"end,omitempty"`
	Limit     int       `url:"limit,omitempty"`
	PageToken string    `url:"page_token,omitempty"`
	Sort      string    `url:"sort,omitempty"`
}

// OptionsLatestOptions selects contracts for the latest-value endpoints.
type OptionsLatestOptions struct {
	Symbols []string `url:"symbols,comma"`
	Feed    string   `url:"feed,omitempty"` // opra or indicative
}

// OptionsSnapshotsOptions selects contracts for GetOptionsSnapshots.
type OptionsSnapshotsOptions struct {
	Symbols   []string `url:"symbols,comma"`
	Feed      string   `url:"feed,omitempty"`
	Limit     int      `url:"limit,omitempty"`
	PageToken string   `url:"page_token,omitempty"`
}

func (c *Client) GetOptionsBars(ctx context.Context, opts OptionsBarsOptions) (*model.MultiBars, error) {
	bars, err := call[model.MultiBars](ctx, c, c.data("/v1beta1/options/bars").withQuery(opts))
	if err != nil {
		return nil, fmt.Errorf("get option bars: %w", err)
	}
	return &bars, nil
}

func (c *Client) GetOptionsTrades(ctx context.Context, opts OptionsTradesOptions) (*model.MultiTrades, error) {
	trades, err := call[model.MultiTrades](ctx, c, c.data("/v1beta1/options/trades").withQuery(opts))
	if err != nil {
		return nil, fmt.Errorf("get option trades: %w", err)
	}
	return &trades, nil
}

func (c *Client) GetOptionsTradesLatest(ctx context.Context, opts OptionsLatestOptions) (*model.LatestTrades, error) {
	trades, err := call[model.LatestTrades](ctx, c, c.data("/v1beta1/options/trades/latest").withQuery(opts))
	if err != nil {
		return nil, fmt.Errorf("get latest option trades: %w", err)
	}
	return &trades, nil
}

func (c *Client) GetOptionsQuotesLatest(ctx context.Context, opts OptionsLatestOptions) (*model.LatestQuotes, error) {
	quotes, err := call[model.LatestQuotes](ctx, c, c.data("/v1beta1/options/quotes/latest").withQuery(opts))
	if err != nil {
		return nil, fmt.Errorf("get latest option quotes: %w", err)
	}
	return &quotes, nil
}

func (c *Client) GetOptionsSnapshots(ctx context.Context, opts OptionsSnapshotsOptions) (*model.Snapshots, error) {
	snaps, err := call[model.Snapshots](ctx, c, c.data("/v1beta1/options/snapshots").withQuery(opts))
	if err != nil {
		return nil, fmt.Errorf("get option snapshots: %w", err)
	}
	return &snaps, nil
}

// GetOptionsExchanges maps option exchange codes to names.
func (c *Client) GetOptionsExchanges(ctx context.Context) (model.ExchangeCodes, error) {
	codes, err := call[model.ExchangeCodes](ctx, c, c.data("/v1beta1/options/meta/exchanges"))
	if err != nil {
		return nil, fmt.Errorf("get option exchanges: %w", err)
	}
	return codes, nil
}
