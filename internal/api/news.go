package api

import (
	"context"
	"fmt"
	"time"

	"github.com/rickgao/alpaca-sdk/internal/model"
)

// NewsOptions filters GetNews.
type NewsOptions struct {
	Symbols            []string  `url:"symbols,comma,omitempty"`
	Start              time.Time `url:"start,omitempty"`
	End                time.Time `url:"end,omitempty"`
	Sort               string    `url:"sort,omitempty"`
	IncludeContent     *bool     `url:"include_content,omitempty"`
	ExcludeContentless *bool     `url:"exclude_contentless,omitempty"`
	Limit              int       `url:"limit,omitempty"`
	PageToken          string    `url:"page_token,omitempty"`
}

func (c *Client) GetNews(ctx context.Context, opts NewsOptions) (*model.NewsPage, error) {
	page, err := call[model.NewsPage](ctx, c, c.data("/v1beta1/news").withQuery(opts))
	if err != nil {
		return nil, fmt.Errorf("get news: %w", err)
	}
	return &page, nil
}

type logoQuery struct {
	Placeholder *bool `url:"placeholder,omitempty"`
}

// GetLogo returns the raw image bytes of a company logo. With placeholder set
// the API returns a generated image for symbols without a logo.
func (c *Client) GetLogo(ctx context.Context, symbol string, placeholder bool) ([]byte, error) {
	req := c.data("/v1beta1/logos/:symbol", symbol).withQuery(logoQuery{Placeholder: &placeholder})
	req.accept = "image/*"
	img, err := c.do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("get %s logo: %w", symbol, err)
	}
	return img, nil
}

// CorporateActionsOptions filters GetCorporateActions. Dates are YYYY-MM-DD.
type CorporateActionsOptions struct {
	Symbols   []string `url:"symbols,comma,omitempty"`
	Types     []string `url:"types,comma,omitempty"`
	Start     string   `url:"start,omitempty"`
	End       string   `url:"end,omitempty"`
	Limit     int      `url:"limit,omitempty"`
	Sort      string   `url:"sort,omitempty"`
	PageToken string   `url:"page_token,omitempty"`
}

func (c *Client) GetCorporateActions(ctx context.Context, opts CorporateActionsOptions) (*model.CorporateActionsPage, error) {
	page, err := call[model.CorporateActionsPage](ctx, c, c.data("/v1beta1/corporate-actions").withQuery(opts))
	if err != nil {
		return nil, fmt.Errorf("get corporate actions: %w", err)
	}
	return &page, nil
}
