package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rickgao/alpaca-sdk/internal/model"
)

// GetAccount fetches the trading account.
func (c *Client) GetAccount(ctx context.Context) (*model.Account, error) {
	acct, err := call[model.Account](ctx, c, c.trading(http.MethodGet, "/v2/account"))
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return &acct, nil
}

// PortfolioHistoryOptions filters GetPortfolioHistory.
type PortfolioHistoryOptions struct {
	Period            string    `url:"period,omitempty"`    // e.g. 1D, 1W, 1M, 1A
	Timeframe         string    `url:"timeframe,omitempty"` // 1Min, 5Min, 15Min, 1H, 1D
	IntradayReporting string    `url:"intraday_reporting,omitempty"`
	Start             time.Time `url:"start,omitempty"`
	End               time.Time `url:"end,omitempty"`
	PnLReset          string    `url:"pnl_reset,omitempty"`
	ExtendedHours     *bool     `url:"extended_hours,omitempty"`
}

// GetPortfolioHistory fetches the equity and P/L time series.
func (c *Client) GetPortfolioHistory(ctx context.Context, opts PortfolioHistoryOptions) (*model.PortfolioHistory, error) {
	req := c.trading(http.MethodGet, "/v2/account/portfolio/history").withQuery(opts)
	hist, err := call[model.PortfolioHistory](ctx, c, req)
	if err != nil {
		return nil, fmt.Errorf("get portfolio history: %w", err)
	}
	return &hist, nil
}

// GetAccountConfigurations fetches the account settings.
func (c *Client) GetAccountConfigurations(ctx context.Context) (*model.AccountConfigurations, error) {
	cfg, err := call[model.AccountConfigurations](ctx, c, c.trading(http.MethodGet, "/v2/account/configurations"))
	if err != nil {
		return nil, fmt.Errorf("get account configurations: %w", err)
	}
	return &cfg, nil
}

// AccountConfigurationsPatch updates the settings that are set; nil fields are
// left unchanged.
type AccountConfigurationsPatch struct {
	DTBPCheck              *string `json:"dtbp_check,omitempty"`
	TradeConfirmEmail      *string `json:"trade_confirm_email,omitempty"`
	SuspendTrade           *bool   `json:"suspend_trade,omitempty"`
	NoShorting             *bool   `json:"no_shorting,omitempty"`
	FractionalTrading      *bool   `json:"fractional_trading,omitempty"`
	MaxMarginMultiplier    *string `json:"max_margin_multiplier,omitempty"`
	PDTCheck               *string `json:"pdt_check,omitempty"`
	MaxOptionsTradingLevel *int    `json:"max_options_trading_level,omitempty"`
}

// UpdateAccountConfigurations patches the account settings and returns the
// resulting configuration.
func (c *Client) UpdateAccountConfigurations(ctx context.Context, patch AccountConfigurationsPatch) (*model.AccountConfigurations, error) {
	req := c.trading(http.MethodPatch, "/v2/account/configurations").withBody(patch)
	cfg, err := call[model.AccountConfigurations](ctx, c, req)
	if err != nil {
		return nil, fmt.Errorf("update account configurations: %w", err)
	}
	return &cfg, nil
}

// ActivitiesOptions filters account activity queries.
type ActivitiesOptions struct {
	ActivityTypes []string  `url:"activity_types,comma,omitempty"`
	Date          string    `url:"date,omitempty"`
	Until         time.Time `url:"until,omitempty"`
	After         time.Time `url:"after,omitempty"`
	Direction     string    `url:"direction,omitempty"` // asc or desc
	PageSize      int       `url:"page_size,omitempty"`
	PageToken     string    `url:"page_token,omitempty"`
}

// GetAccountActivities lists account activities of any type.
func (c *Client) GetAccountActivities(ctx context.Context, opts ActivitiesOptions) ([]model.AccountActivity, error) {
	req := c.trading(http.MethodGet, "/v2/account/activities").withQuery(opts)
	acts, err := call[[]model.AccountActivity](ctx, c, req)
	if err != nil {
		return nil, fmt.Errorf("get account activities: %w", err)
	}
	return acts, nil
}

// GetAccountActivitiesByType lists activities of one type, e.g. FILL or DIV.
func (c *Client) GetAccountActivitiesByType(ctx context.Context, activityType string, opts ActivitiesOptions) ([]model.AccountActivity, error) {
	opts.ActivityTypes = nil
	req := c.trading(http.MethodGet, "/v2/account/activities/:activity_type", activityType).withQuery(opts)
	acts, err := call[[]model.AccountActivity](ctx, c, req)
	if err != nil {
		return nil, fmt.Errorf("get %s activities: %w", activityType, err)
	}
	return acts, nil
}
