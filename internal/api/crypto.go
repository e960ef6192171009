package api

import (
	"context"
	"fmt"
	"time"

	"github.com/rickgao/alpaca-sdk/internal/model"
)

// DefaultCryptoLocation is the crypto market data location used when none is
// given.
const DefaultCryptoLocation = "us"

// CryptoBarsOptions filters GetCryptoBars.
type CryptoBarsOptions struct {
	Symbols   []string  `url:"symbols,comma"`
	Timeframe string    `url:"timeframe"`
	Start     time.Time `url:"start,omitempty"`
	End       time.Time `url:"end,omitempty"`
	Limit     int       `url:"limit,omitempty"`
	PageToken string    `url:"page_token,omitempty"`
	Sort      string    `url:"sort,omitempty"`
}

// CryptoTicksOptions filters historical crypto trades and quotes.
type CryptoTicksOptions struct {
	Symbols   []string  `url:"symbols,comma"`
	Start     time.Time `url:"start,omitempty"`
	End       time.Time `url:"end,omitempty"`
	Limit     int       `url:"limit,omitempty"`
	PageToken string    `url:"page_token,omitempty"`
	Sort      string    `url:"sort,omitempty"`
}

type symbolsQuery struct {
	Symbols []string `url:"symbols,comma"`
}

func cryptoLoc(loc string) string {
	if loc == "" {
		return DefaultCryptoLocation
	}
	return loc
}

func (c *Client) GetCryptoBars(ctx context.Context, loc string, opts CryptoBarsOptions) (*model.MultiBars, error) {
	req := c.data("/v1beta3/crypto/:loc/bars", cryptoLoc(loc)).withQuery(opts)
	bars, err := call[model.MultiBars](ctx, c, req)
	if err != nil {
		return nil, fmt.Errorf("get crypto bars: %w", err)
	}
	return &bars, nil
}

func (c *Client) GetCryptoBarsLatest(ctx context.Context, loc string, symbols []string) (*model.LatestBars, error) {
	req := c.data("/v1beta3/crypto/:loc/latest/bars", cryptoLoc(loc)).withQuery(symbolsQuery{symbols})
	bars, err := call[model.LatestBars](ctx, c, req)
	if err != nil {
		return nil, fmt.Errorf("get latest crypto bars: %w", err)
	}
	return &bars, nil
}

func (c *Client) GetCryptoTrades(ctx context.Context, loc string, opts CryptoTicksOptions) (*model.MultiTrades, error) {
	req := c.data("/v1beta3/crypto/:loc/trades", cryptoLoc(loc)).withQuery(opts)
	trades, err := call[model.MultiTrades](ctx, c, req)
	if err != nil {
		return nil, fmt.Errorf("get crypto trades: %w", err)
	}
	return &trades, nil
}

func (c *Client) GetCryptoTradesLatest(ctx context.Context, loc string, symbols []string) (*model.LatestTrades, error) {
	req := c.data("/v1beta3/crypto/:loc/latest/trades", cryptoLoc(loc)).withQuery(symbolsQuery{symbols})
	trades, err := call[model.LatestTrades](ctx, c, req)
	if err != nil {
		return nil, fmt.Errorf("get latest crypto trades: %w", err)
	}
	return &trades, nil
}

func (c *Client) GetCryptoQuotes(ctx context.Context, loc string, opts CryptoTicksOptions) (*model.MultiQuotes, error) {
	req := c.data("/v1beta3/crypto/:loc/quotes", cryptoLoc(loc)).withQuery(opts)
	quotes, err := call[model.MultiQuotes](ctx, c, req)
	if err != nil {
		return nil, fmt.Errorf("get crypto quotes: %w", err)
	}
	return &quotes, nil
}

func (c *Client) GetCryptoQuotesLatest(ctx context.Context, loc string, symbols []string) (*model.LatestQuotes, error) {
	req := c.data("/v1beta3/crypto/:loc/latest/quotes", cryptoLoc(loc)).withQuery(symbolsQuery{symbols})
	quotes, err := call[model.LatestQuotes](ctx, c, req)
	if err != nil {
		return nil, fmt.Errorf("get latest crypto quotes: %w", err)
	}
	return &quotes, nil
}

func (c *Client) GetCryptoOrderbooksLatest(ctx context.Context, loc string, symbols []string) (*model.LatestOrderbooks, error) {
	req := c.data("/v1beta3/crypto/:loc/latest/orderbooks", cryptoLoc(loc)).withQuery(symbolsQuery{symbols})
	books, err := call[model.LatestOrderbooks](ctx, c, req)
	if err != nil {
		return nil, fmt.Errorf("get latest crypto orderbooks: %w", err)
	}
	return &books, nil
}

func (c *Client) GetCryptoSnapshots(ctx context.Context, loc string, symbols []string) (*model.Snapshots, error) {
	req := c.data("/v1beta3/crypto/:loc/snapshots", cryptoLoc(loc)).withQuery(symbolsQuery{symbols})
	snaps, err := call[model.Snapshots](ctx, c, req)
	if err != nil {
		return nil, fmt.Errorf("get crypto snapshots: %w", err)
	}
	return &snaps, nil
}
