// Package finnhub implements the market provider and live trade feed on
// top of the Finnhub REST and websocket APIs.
package finnhub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"stock_pulse/internal/logger"
	"stock_pulse/internal/market"
	"stock_pulse/internal/models"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultBaseURL   = "https://finnhub.io/api/v1"
	DefaultStreamURL = "wss://ws.finnhub.io"
	dateLayout       = "2006-01-02"
)

// Client handles Finnhub REST operations.
type Client struct {
	client *resty.Client
	token  market.TokenSource
}

// Ensure Client implements the interface
var _ market.Provider = (*Client)(nil)

// NewClient creates a REST client. token is consulted on every request and
// attached as the `token` query parameter when non-empty.
func NewClient(baseURL string, timeout time.Duration, token market.TokenSource) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if token == nil {
		token = market.StaticToken("")
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("Accept", "application/json")

	c := &Client{client: client, token: token}
	client.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		if t := c.token(); t != "" {
			r.SetQueryParam("token", t)
		}
		return nil
	})
	return c
}

// get issues a GET and decodes a 2xx JSON body into v.
func (c *Client) get(ctx context.Context, path string, params map[string]string, v any) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(path)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	logger.Debugf("finnhub GET %s -> %d (%s)", path, resp.StatusCode(), resp.Time())

	if resp.IsError() {
		return &market.APIError{Status: resp.StatusCode(), Body: resp.String()}
	}
	if err := json.Unmarshal(resp.Body(), v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// GetQuote fetches the polled quote for symbol.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	sym := models.NormalizeSymbol(symbol)
	var q models.Quote
	if err := c.get(ctx, "/quote", map[string]string{"symbol": sym}, &q); err != nil {
		return nil, err
	}
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("quote %s: %w", sym, err)
	}
	return &q, nil
}

// GetProfile fetches the company profile for symbol.
func (c *Client) GetProfile(ctx context.Context, symbol string) (*models.CompanyProfile, error) {
	sym := models.NormalizeSymbol(symbol)
	var p models.CompanyProfile
	if err := c.get(ctx, "/stock/profile2", map[string]string{"symbol": sym}, &p); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("profile %s: %w", sym, err)
	}
	return &p, nil
}

// GetMarketStatus fetches the session state of an exchange ("US" when empty).
func (c *Client) GetMarketStatus(ctx context.Context, exchange string) (*models.MarketStatus, error) {
	if exchange == "" {
		exchange = "US"
	}
	var s models.MarketStatus
	if err := c.get(ctx, "/market/status", map[string]string{"exchange": exchange}, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// SearchSymbol looks up US-listed symbols matching query.
func (c *Client) SearchSymbol(ctx context.Context, query string) (*models.SymbolSearch, error) {
	var s models.SymbolSearch
	if err := c.get(ctx, "/search", map[string]string{"q": query, "exchange": "US"}, &s); err != nil {
		return nil, err
	}
	if s.Result == nil {
		s.Result = []models.SymbolMatch{}
	}
	return &s, nil
}

// GetMarketNews fetches the latest market news of a category.
func (c *Client) GetMarketNews(ctx context.Context, category string) ([]models.NewsItem, error) {
	if !market.ValidCategory(category) {
		return nil, fmt.Errorf("unknown news category %q", category)
	}
	var items []models.NewsItem
	if err := c.get(ctx, "/news", map[string]string{"category": category}, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// GetCompanyNews fetches news for symbol between from and to (dates, inclusive).
func (c *Client) GetCompanyNews(ctx context.Context, symbol string, from, to time.Time) ([]models.NewsItem, error) {
	sym := models.NormalizeSymbol(symbol)
	var items []models.NewsItem
	params := map[string]string{
		"symbol": sym,
		"from":   from.UTC().Format(dateLayout),
		"to":     to.UTC().Format(dateLayout),
	}
	if err := c.get(ctx, "/company-news", params, &items); err != nil {
		return nil, err
	}
	return items, nil
}
