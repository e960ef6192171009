package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rickgao/alpaca-sdk/internal/model"
)

// Order sides, types and time-in-force values.
const (
	SideBuy  = "buy"
	SideSell = "sell"

	OrderMarket       = "market"
	OrderLimit        = "limit"
	OrderStop         = "stop"
	OrderStopLimit    = "stop_limit"
	OrderTrailingStop = "trailing_stop"

	TimeInForceDay = "day"
	TimeInForceGTC = "gtc"
	TimeInForceOPG = "opg"
	TimeInForceCLS = "cls"
	TimeInForceIOC = "ioc"
	TimeInForceFOK = "fok"
)

// TakeProfit is the take-profit leg of a bracket or OCO order.
type TakeProfit struct {
	LimitPrice *decimal.Decimal `json:"limit_price,omitempty"`
}

// StopLoss is the stop-loss leg of a bracket or OCO order.
type StopLoss struct {
	StopPrice  *decimal.Decimal `json:"stop_price,omitempty"`
	LimitPrice *decimal.Decimal `json:"limit_price,omitempty"`
}

// CreateOrderRequest is the body of POST /v2/orders. Exactly one of Qty and
// Notional is expected.
type CreateOrderRequest struct {
	Symbol         string           `json:"symbol"`
	Qty            *decimal.Decimal `json:"qty,omitempty"`
	Notional       *decimal.Decimal `json:"notional,omitempty"`
	Side           string           `json:"side"`
	Type           string           `json:"type"`
	TimeInForce    string           `json:"time_in_force"`
	LimitPrice     *decimal.Decimal `json:"limit_price,omitempty"`
	StopPrice      *decimal.Decimal `json:"stop_price,omitempty"`
	TrailPrice     *decimal.Decimal `json:"trail_price,omitempty"`
	TrailPercent   *decimal.Decimal `json:"trail_percent,omitempty"`
	ExtendedHours  bool             `json:"extended_hours,omitempty"`
	ClientOrderID  string           `json:"client_order_id,omitempty"`
	OrderClass     string           `json:"order_class,omitempty"` // simple, bracket, oco, oto
	TakeProfit     *TakeProfit      `json:"take_profit,omitempty"`
	StopLoss       *StopLoss        `json:"stop_loss,omitempty"`
	PositionIntent string           `json:"position_intent,omitempty"`
}

// CreateOrder submits an order. A missing ClientOrderID is filled with a
// random UUID so the order can be found again after a lost response.
func (c *Client) CreateOrder(ctx context.Context, order CreateOrderRequest) (*model.Order, error) {
	if order.ClientOrderID == "" {
		order.ClientOrderID = uuid.NewString()
	}
	req := c.trading(http.MethodPost, "/v2/orders").withBody(order)
	o, err := call[model.Order](ctx, c, req)
	if err != nil {
		return nil, fmt.Errorf("create order %s: %w", order.ClientOrderID, err)
	}
	return &o, nil
}

// OrdersOptions filters GetOrders.
type OrdersOptions struct {
	Status    string    `url:"status,omitempty"` // open, closed or all
	Limit     int       `url:"limit,omitempty"`
	After     time.Time `url:"after,omitempty"`
	Until     time.Time `url:"until,omitempty"`
	Direction string    `url:"direction,omitempty"`
	Nested    *bool     `url:"nested,omitempty"`
	Symbols   []string  `url:"symbols,comma,omitempty"`
	Side      string    `url:"side,omitempty"`
}

// GetOrders lists orders.
func (c *Client) GetOrders(ctx context.Context, opts OrdersOptions) ([]model.Order, error) {
	orders, err := call[[]model.Order](ctx, c, c.trading(http.MethodGet, "/v2/orders").withQuery(opts))
	if err != nil {
		return nil, fmt.Errorf("get orders: %w", err)
	}
	return orders, nil
}

// GetOrder fetches an order by ID.
func (c *Client) GetOrder(ctx context.Context, orderID string) (*model.Order, error) {
	o, err := call[model.Order](ctx, c, c.trading(http.MethodGet, "/v2/orders/:order_id", orderID))
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", orderID, err)
	}
	return &o, nil
}

// ReplaceOrderRequest is the body of PATCH /v2/orders/{id}.
type ReplaceOrderRequest struct {
	Qty           *decimal.Decimal `json:"qty,omitempty"`
	TimeInForce   string           `json:"time_in_force,omitempty"`
	LimitPrice    *decimal.Decimal `json:"limit_price,omitempty"`
	StopPrice     *decimal.Decimal `json:"stop_price,omitempty"`
	Trail         *decimal.Decimal `json:"trail,omitempty"`
	ClientOrderID string           `json:"client_order_id,omitempty"`
}

// ReplaceOrder amends an open order. The replacement is a new order.
func (c *Client) ReplaceOrder(ctx context.Context, orderID string, change ReplaceOrderRequest) (*model.Order, error) {
	req := c.trading(http.MethodPatch, "/v2/orders/:order_id", orderID).withBody(change)
	o, err := call[model.Order](ctx, c, req)
	if err != nil {
		return nil, fmt.Errorf("replace order %s: %w", orderID, err)
	}
	return &o, nil
}

// CancelOrder requests cancellation of an open order.
func (c *Client) CancelOrder(ctx context.Context, orderID string) error {
	if _, err := c.do(ctx, c.trading(http.MethodDelete, "/v2/orders/:order_id", orderID)); err != nil {
		return fmt.Errorf("cancel order %s: %w", orderID, err)
	}
	return nil
}

// CancelOrders requests cancellation of every open order and reports the
// per-order outcome.
func (c *Client) CancelOrders(ctx context.Context) ([]model.OrderResult, error) {
	res, err := call[[]model.OrderResult](ctx, c, c.trading(http.MethodDelete, "/v2/orders"))
	if err != nil {
		return nil, fmt.Errorf("cancel orders: %w", err)
	}
	return res, nil
}
