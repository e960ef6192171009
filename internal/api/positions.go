package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/rickgao/alpaca-sdk/internal/model"
)

// GetPositions lists open positions.
func (c *Client) GetPositions(ctx context.Context) ([]model.Position, error) {
	pos, err := call[[]model.Position](ctx, c, c.trading(http.MethodGet, "/v2/positions"))
	if err != nil {
		return nil, fmt.Errorf("get positions: %w", err)
	}
	return pos, nil
}

// GetPosition fetches the open position for a symbol or asset ID.
func (c *Client) GetPosition(ctx context.Context, symbolOrAssetID string) (*model.Position, error) {
	p, err := call[model.Position](ctx, c, c.trading(http.MethodGet, "/v2/positions/:symbol_or_asset_id", symbolOrAssetID))
	if err != nil {
		return nil, fmt.Errorf("get position %s: %w", symbolOrAssetID, err)
	}
	return &p, nil
}

// ClosePositionOptions closes part of a position. Set at most one field; with
// neither the whole position is closed.
type ClosePositionOptions struct {
	Qty        *decimal.Decimal
	Percentage *decimal.Decimal
}

func (o ClosePositionOptions) values() url.Values {
	v := url.Values{}
	if o.Qty != nil {
		v.Set("qty", o.Qty.String())
	}
	if o.Percentage != nil {
		v.Set("percentage", o.Percentage.String())
	}
	return v
}

// ClosePosition liquidates a position and returns the closing order.
func (c *Client) ClosePosition(ctx context.Context, symbolOrAssetID string, opts ClosePositionOptions) (*model.Order, error) {
	req := c.trading(http.MethodDelete, "/v2/positions/:symbol_or_asset_id", symbolOrAssetID).
		withQuery(opts.values())
	o, err := call[model.Order](ctx, c, req)
	if err != nil {
		return nil, fmt.Errorf("close position %s: %w", symbolOrAssetID, err)
	}
	return &o, nil
}

type closePositionsQuery struct {
	CancelOrders bool `url:"cancel_orders,omitempty"`
}

// ClosePositions liquidates every position, optionally cancelling open
// orders first.
func (c *Client) ClosePositions(ctx context.Context, cancelOrders bool) ([]model.OrderResult, error) {
	req := c.trading(http.MethodDelete, "/v2/positions").withQuery(closePositionsQuery{CancelOrders: cancelOrders})
	res, err := call[[]model.OrderResult](ctx, c, req)
	if err != nil {
		return nil, fmt.Errorf("close positions: %w", err)
	}
	return res, nil
}

// ExercisePosition exercises a held option contract.
func (c *Client) ExercisePosition(ctx context.Context, symbolOrContractID string) error {
	req := c.trading(http.MethodPost, "/v2/positions/:symbol_or_contract_id/exercise", symbolOrContractID)
	if _, err := c.do(ctx, req); err != nil {
		return fmt.Errorf("exercise %s: %w", symbolOrContractID, err)
	}
	return nil
}
