package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rickgao/alpaca-sdk/internal/model"
)

func (c *Client) GetCryptoWallets(ctx context.Context) ([]model.CryptoWallet, error) {
	w, err := call[[]model.CryptoWallet](ctx, c, c.trading(http.MethodGet, "/v2/wallets"))
	if err != nil {
		return nil, fmt.Errorf("get wallets: %w", err)
	}
	return w, nil
}

// GetCryptoWallet fetches the wallet for one asset, e.g. BTC.
func (c *Client) GetCryptoWallet(ctx context.Context, asset string) (*model.CryptoWallet, error) {
	w, err := call[model.CryptoWallet](ctx, c, c.trading(http.MethodGet, "/v2/wallets/:asset", asset))
	if err != nil {
		return nil, fmt.Errorf("get %s wallet: %w", asset, err)
	}
	return &w, nil
}

// FeeEstimateOptions describes a withdrawal to estimate.
type FeeEstimateOptions struct {
	Asset       string `url:"asset"`
	FromAddress string `url:"from_address"`
	ToAddress   string `url:"to_address"`
	Amount      string `url:"amount"`
}

func (c *Client) GetFeeEstimate(ctx context.Context, opts FeeEstimateOptions) (*model.FeeEstimate, error) {
	fee, err := call[model.FeeEstimate](ctx, c, c.trading(http.MethodGet, "/v2/wallets/fees/estimate").withQuery(opts))
	if err != nil {
		return nil, fmt.Errorf("estimate %s fee: %w", opts.Asset, err)
	}
	return &fee, nil
}

type transfersQuery struct {
	Asset string `url:"asset,omitempty"`
}

// GetCryptoTransfers lists transfers, optionally for one asset.
func (c *Client) GetCryptoTransfers(ctx context.Context, asset string) ([]model.CryptoTransfer, error) {
	req := c.trading(http.MethodGet, "/v2/wallets/transfers").withQuery(transfersQuery{Asset: asset})
	ts, err := call[[]model.CryptoTransfer](ctx, c, req)
	if err != nil {
		return nil, fmt.Errorf("get transfers: %w", err)
	}
	return ts, nil
}

func (c *Client) GetCryptoTransfer(ctx context.Context, transferID string) (*model.CryptoTransfer, error) {
	t, err := call[model.CryptoTransfer](ctx, c, c.trading(http.MethodGet, "/v2/wallets/transfers/:transfer_id", transferID))
	if err != nil {
		return nil, fmt.Errorf("get transfer %s: %w", transferID, err)
	}
	return &t, nil
}

// CryptoTransferRequest withdraws Amount of Asset to a whitelisted Address.
type CryptoTransferRequest struct {
	Amount  string `json:"amount"`
	Address string `json:"address"`
	Asset   string `json:"asset"`
}

func (c *Client) CreateCryptoTransfer(ctx context.Context, body CryptoTransferRequest) (*model.CryptoTransfer, error) {
	t, err := call[model.CryptoTransfer](ctx, c, c.trading(http.MethodPost, "/v2/wallets/transfers").withBody(body))
	if err != nil {
		return nil, fmt.Errorf("create %s transfer: %w", body.Asset, err)
	}
	return &t, nil
}

func (c *Client) GetWhitelistedAddresses(ctx context.Context) ([]model.WhitelistedAddress, error) {
	addrs, err := call[[]model.WhitelistedAddress](ctx, c, c.trading(http.MethodGet, "/v2/wallets/whitelists"))
	if err != nil {
		return nil, fmt.Errorf("get whitelisted addresses: %w", err)
	}
	return addrs, nil
}

// WhitelistRequest asks for an address to be approved for withdrawals.
type WhitelistRequest struct {
	Address string `json:"address"`
	Asset   string `json:"asset"`
}

func (c *Client) RequestWhitelistedAddress(ctx context.Context, body WhitelistRequest) (*model.WhitelistedAddress, error) {
	a, err := call[model.WhitelistedAddress](ctx, c, c.trading(http.MethodPost, "/v2/wallets/whitelists").withBody(body))
	if err != nil {
		return nil, fmt.Errorf("whitelist %s address: %w", body.Asset, err)
	}
	return &a, nil
}

func (c *Client) RemoveWhitelistedAddress(ctx context.Context, id string) error {
	if _, err := c.do(ctx, c.trading(http.MethodDelete, "/v2/wallets/whitelists/:id", id)); err != nil {
		return fmt.Errorf("remove whitelisted address %s: %w", id, err)
	}
	return nil
}
