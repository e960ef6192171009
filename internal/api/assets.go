package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rickgao/alpaca-sdk/internal/model"
)

// AssetsOptions filters GetAssets.
type AssetsOptions struct {
	Status     string   `url:"status,omitempty"`      // active or inactive
	AssetClass string   `url:"asset_class,omitempty"` // us_equity, us_option, crypto
	Exchange   string   `url:"exchange,omitempty"`
	Attributes []string `url:"attributes,comma,omitempty"`
}

// GetAssets lists tradable and non-tradable assets.
func (c *Client) GetAssets(ctx context.Context, opts AssetsOptions) ([]model.Asset, error) {
	assets, err := call[[]model.Asset](ctx, c, c.trading(http.MethodGet, "/v2/assets").withQuery(opts))
	if err != nil {
		return nil, fmt.Errorf("get assets: %w", err)
	}
	return assets, nil
}

// GetAsset fetches an asset by symbol or ID.
func (c *Client) GetAsset(ctx context.Context, symbolOrAssetID string) (*model.Asset, error) {
	a, err := call[model.Asset](ctx, c, c.trading(http.MethodGet, "/v2/assets/:symbol_or_asset_id", symbolOrAssetID))
	if err != nil {
		return nil, fmt.Errorf("get asset %s: %w", symbolOrAssetID, err)
	}
	return &a, nil
}

// CalendarOptions bounds GetCalendar. Dates are YYYY-MM-DD.
type CalendarOptions struct {
	Start string `url:"start,omitempty"`
	End   string `url:"end,omitempty"`
}

// GetCalendar lists market days with their session times.
func (c *Client) GetCalendar(ctx context.Context, opts CalendarOptions) ([]model.CalendarDay, error) {
	days, err := call[[]model.CalendarDay](ctx, c, c.trading(http.MethodGet, "/v2/calendar").withQuery(opts))
	if err != nil {
		return nil, fmt.Errorf("get calendar: %w", err)
	}
	return days, nil
}

// GetClock fetches the market clock.
func (c *Client) GetClock(ctx context.Context) (*model.Clock, error) {
	clock, err := call[model.Clock](ctx, c, c.trading(http.MethodGet, "/v2/clock"))
	if err != nil {
		return nil, fmt.Errorf("get clock: %w", err)
	}
	return &clock, nil
}

// OptionContractsOptions filters GetOptionContracts. Prices are decimal
// strings.
type OptionContractsOptions struct {
	UnderlyingSymbols []string `url:"underlying_symbols,comma,omitempty"`
	Status            string   `url:"status,omitempty"`
	ExpirationDate    string   `url:"expiration_date,omitempty"`
	ExpirationDateGTE string   `url:"expiration_date_gte,omitempty"`
	ExpirationDateLTE string   `url:"expiration_date_lte,omitempty"`
	RootSymbol        string   `url:"root_symbol,omitempty"`
	Type              string   `url:"type,omitempty"`  // call or put
	Style             string   `url:"style,omitempty"` // american or european
	StrikePriceGTE    string   `url:"strike_price_gte,omitempty"`
	StrikePriceLTE    string   `url:"strike_price_lte,omitempty"`
	PageToken         string   `url:"page_token,omitempty"`
	Limit             int      `url:"limit,omitempty"`
}

// GetOptionContracts fetches one page of option contracts.
func (c *Client) GetOptionContracts(ctx context.Context, opts OptionContractsOptions) (*model.OptionContractsPage, error) {
	page, err := call[model.OptionContractsPage](ctx, c, c.trading(http.MethodGet, "/v2/options/contracts").withQuery(opts))
	if err != nil {
		return nil, fmt.Errorf("get option contracts: %w", err)
	}
	return &page, nil
}

// GetAllOptionContracts follows page tokens until every matching contract is
// fetched. Each page is a separate rate-limited call.
func (c *Client) GetAllOptionContracts(ctx context.Context, opts OptionContractsOptions) ([]model.OptionContract, error) {
	var all []model.OptionContract
	if opts.Limit == 0 {
		opts.Limit = 10000 // Max page size
	}

	for {
		page, err := c.GetOptionContracts(ctx, opts)
		if err != nil {
			return nil, err
		}

		all = append(all, page.OptionContracts...)

		if page.NextPageToken == nil || *page.NextPageToken == "" {
			break
		}
		opts.PageToken = *page.NextPageToken
	}

	return all, nil
}

// GetOptionContract fetches a contract by symbol or ID.
func (c *Client) GetOptionContract(ctx context.Context, symbolOrContractID string) (*model.OptionContract, error) {
	req := c.trading(http.MethodGet, "/v2/options/contracts/:symbol_or_contract_id", symbolOrContractID)
	oc, err := call[model.OptionContract](ctx, c, req)
	if err != nil {
		return nil, fmt.Errorf("get option contract %s: %w", symbolOrContractID, err)
	}
	return &oc, nil
}

// AnnouncementsOptions filters GetAnnouncements. CATypes and the date range
// are required by the API; dates are YYYY-MM-DD.
type AnnouncementsOptions struct {
	CATypes  []string `url:"ca_types,comma"`
	Since    string   `url:"since"`
	Until    string   `url:"until"`
	Symbol   string   `url:"symbol,omitempty"`
	Cusip    string   `url:"cusip,omitempty"`
	DateType string   `url:"date_type,omitempty"`
}

// GetAnnouncements lists corporate action announcements.
func (c *Client) GetAnnouncements(ctx context.Context, opts AnnouncementsOptions) ([]model.Announcement, error) {
	req := c.trading(http.MethodGet, "/v2/corporate_actions/announcements").withQuery(opts)
	anns, err := call[[]model.Announcement](ctx, c, req)
	if err != nil {
		return nil, fmt.Errorf("get announcements: %w", err)
	}
	return anns, nil
}

// GetAnnouncement fetches one announcement by ID.
func (c *Client) GetAnnouncement(ctx context.Context, id string) (*model.Announcement, error) {
	a, err := call[model.Announcement](ctx, c, c.trading(http.MethodGet, "/v2/corporate_actions/announcements/:id", id))
	if err != nil {
		return nil, fmt.Errorf("get announcement %s: %w", id, err)
	}
	return &a, nil
}
