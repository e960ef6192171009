package api

import (
	"context"
	"fmt"
	"time"

	"github.com/rickgao/alpaca-sdk/internal/model"
)

// MostActivesOptions ranks stocks by volume or trades.
type MostActivesOptions struct {
	By  string `url:"by,omitempty"` // volume or trades
	Top int    `url:"top,omitempty"`
}

func (c *Client) GetMostActives(ctx context.Context, opts MostActivesOptions) (*model.MostActives, error) {
	ma, err := call[model.MostActives](ctx, c, c.data("/v1beta1/screener/stocks/most-actives").withQuery(opts))
	if err != nil {
		return nil, fmt.Errorf("get most actives: %w", err)
	}
	return &ma, nil
}

type topQuery struct {
	Top int `url:"top,omitempty"`
}

// GetMarketMovers returns the top gainers and losers. marketType is stocks or
// crypto.
func (c *Client) GetMarketMovers(ctx context.Context, marketType string, top int) (*model.Movers, error) {
	req := c.data("/v1beta1/screener/:market_type/movers", marketType).withQuery(topQuery{Top: top})
	movers, err := call[model.Movers](ctx, c, req)
	if err != nil {
		return nil, fmt.Errorf("get %s movers: %w", marketType, err)
	}
	return &movers, nil
}

// ForexRatesOptions filters GetForexRates. Pairs look like USDJPY.
type ForexRatesOptions struct {
	CurrencyPairs []string  `url:"currency_pairs,comma"`
	Timeframe     string    `url:"timeframe,omitempty"`
	Start         time.Time `url:"start,omitempty"`
	End           time.Time `url:"end,omitempty"`
	Limit         int       `url:"limit,omitempty"`
	Sort          string    `url:"sort,omitempty"`
	PageToken     string    `url:"page_token,omitempty"`
}

func (c *Client) GetForexRates(ctx context.Context, opts ForexRatesOptions) (*model.ForexRates, error) {
	rates, err := call[model.ForexRates](ctx, c, c.data("/v1beta1/forex/rates").withQuery(opts))
	if err != nil {
		return nil, fmt.Errorf("get forex rates: %w", err)
	}
	return &rates, nil
}

type pairsQuery struct {
	CurrencyPairs []string `url:"currency_pairs,comma"`
}

func (c *Client) GetLatestForexRates(ctx context.Context, pairs []string) (*model.LatestForexRates, error) {
	req := c.data("/v1beta1/forex/latest/rates").withQuery(pairsQuery{CurrencyPairs: pairs})
	rates, err := call[model.LatestForexRates](ctx, c, req)
	if err != nil {
		return nil, fmt.Errorf("get latest forex rates: %w", err)
	}
	return &rates, nil
}
