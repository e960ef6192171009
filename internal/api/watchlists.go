package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rickgao/alpaca-sdk/internal/model"
)

// WatchlistRequest is the body for creating or replacing a watchlist.
type WatchlistRequest struct {
	Name    string   `json:"name,omitempty"`
	Symbols []string `json:"symbols"`
}

func (c *Client) GetWatchlists(ctx context.Context) ([]model.Watchlist, error) {
	lists, err := call[[]model.Watchlist](ctx, c, c.trading(http.MethodGet, "/v2/watchlists"))
	if err != nil {
		return nil, fmt.Errorf("get watchlists: %w", err)
	}
	return lists, nil
}

func (c *Client) GetWatchlist(ctx context.Context, watchlistID string) (*model.Watchlist, error) {
	wl, err := call[model.Watchlist](ctx, c, c.trading(http.MethodGet, "/v2/watchlists/:watchlist_id", watchlistID))
	if err != nil {
		return nil, fmt.Errorf("get watchlist %s: %w", watchlistID, err)
	}
	return &wl, nil
}

func (c *Client) CreateWatchlist(ctx context.Context, body WatchlistRequest) (*model.Watchlist, error) {
	wl, err := call[model.Watchlist](ctx, c, c.trading(http.MethodPost, "/v2/watchlists").withBody(body))
	if err != nil {
		return nil, fmt.Errorf("create watchlist %q: %w", body.Name, err)
	}
	return &wl, nil
}

// UpdateWatchlist replaces the name and symbol list of a watchlist.
func (c *Client) UpdateWatchlist(ctx context.Context, watchlistID string, body WatchlistRequest) (*model.Watchlist, error) {
	req := c.trading(http.MethodPut, "/v2/watchlists/:watchlist_id", watchlistID).withBody(body)
	wl, err := call[model.Watchlist](ctx, c, req)
	if err != nil {
		return nil, fmt.Errorf("update watchlist %s: %w", watchlistID, err)
	}
	return &wl, nil
}

func (c *Client) AddWatchlistSymbol(ctx context.Context, watchlistID, symbol string) (*model.Watchlist, error) {
	body := struct {
		Symbol string `json:"symbol"`
	}{symbol}
	req := c.trading(http.MethodPost, "/v2/watchlists/:watchlist_id", watchlistID).withBody(body)
	wl, err := call[model.Watchlist](ctx, c, req)
	if err != nil {
		return nil, fmt.Errorf("add %s to watchlist %s: %w", symbol, watchlistID, err)
	}
	return &wl, nil
}

func (c *Client) RemoveWatchlistSymbol(ctx context.Context, watchlistID, symbol string) (*model.Watchlist, error) {
	req := c.trading(http.MethodDelete, "/v2/watchlists/:watchlist_id/:symbol", watchlistID, symbol)
	wl, err := call[model.Watchlist](ctx, c, req)
	if err != nil {
		return nil, fmt.Errorf("remove %s from watchlist %s: %w", symbol, watchlistID, err)
	}
	return &wl, nil
}

func (c *Client) DeleteWatchlist(ctx context.Context, watchlistID string) error {
	if _, err := c.do(ctx, c.trading(http.MethodDelete, "/v2/watchlists/:watchlist_id", watchlistID)); err != nil {
		return fmt.Errorf("delete watchlist %s: %w", watchlistID, err)
	}
	return nil
}
