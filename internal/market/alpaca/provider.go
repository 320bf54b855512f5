// Package alpaca implements the market provider and live trade feed on top
// of the Alpaca SDK. Credentials are read by the SDK from APCA_API_* env vars.
package alpaca

import (
	"context"
	"fmt"
	"strings"
	"time"

	"stock_pulse/internal/market"
	"stock_pulse/internal/models"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"
)

const maxSearchResults = 5

var hundred = decimal.NewFromInt(100)

// dataClient is the subset of marketdata.Client used here.
type dataClient interface {
	GetSnapshot(symbol string, req marketdata.GetSnapshotRequest) (*marketdata.Snapshot, error)
	GetNews(req marketdata.GetNewsRequest) ([]marketdata.News, error)
}

// tradingClient is the subset of alpaca.Client used here.
type tradingClient interface {
	GetClock() (*alpaca.Clock, error)
	GetAsset(symbol string) (*alpaca.Asset, error)
	GetAssets(req alpaca.GetAssetsRequest) ([]alpaca.Asset, error)
}

// Provider implements market.Provider for Alpaca.
type Provider struct {
	mdClient    dataClient
	tradeClient tradingClient
}

// Ensure Provider implements the interface
var _ market.Provider = (*Provider)(nil)

// NewProvider returns a new Alpaca provider.
func NewProvider() *Provider {
	return &Provider{
		mdClient:    marketdata.NewClient(marketdata.ClientOpts{}),
		tradeClient: alpaca.NewClient(alpaca.ClientOpts{}),
	}
}

// --- Market Data ---

// GetQuote builds a quote from the snapshot: latest trade as current price,
// previous daily close as reference, change derived from both.
func (p *Provider) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sym := models.NormalizeSymbol(symbol)
	snap, err := p.mdClient.GetSnapshot(sym, marketdata.GetSnapshotRequest{})
	if err != nil {
		return nil, err
	}
	if snap == nil || snap.LatestTrade == nil {
		return nil, fmt.Errorf("quote %s: %w", sym, models.ErrNoData)
	}

	q := &models.Quote{
		Current:   decimal.NewFromFloat(snap.LatestTrade.Price),
		Timestamp: snap.LatestTrade.Timestamp.Unix(),
	}
	if b := snap.DailyBar; b != nil {
		q.Open = decimal.NewFromFloat(b.Open)
		q.High = decimal.NewFromFloat(b.High)
		q.Low = decimal.NewFromFloat(b.Low)
	}
	if b := snap.PrevDailyBar; b != nil {
		q.PrevClose = decimal.NewFromFloat(b.Close)
		q.Change = q.Current.Sub(q.PrevClose)
		if !q.PrevClose.IsZero() {
			q.ChangePercent = q.Change.Div(q.PrevClose).Mul(hundred)
		}
	}

	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("quote %s: %w", sym, err)
	}
	return q, nil
}

// GetProfile maps the asset record onto the profile schema. Alpaca has no
// company fundamentals, so only identity fields are filled.
func (p *Provider) GetProfile(ctx context.Context, symbol string) (*models.CompanyProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sym := models.NormalizeSymbol(symbol)
	a, err := p.tradeClient.GetAsset(sym)
	if err != nil {
		return nil, err
	}
	prof := &models.CompanyProfile{
		Ticker:   a.Symbol,
		Name:     a.Name,
		Exchange: a.Exchange,
		Currency: "USD",
		Country:  "US",
	}
	if err := prof.Validate(); err != nil {
		return nil, fmt.Errorf("profile %s: %w", sym, err)
	}
	return prof, nil
}

// GetMarketStatus maps the trading clock. Only the US exchange is known.
func (p *Provider) GetMarketStatus(ctx context.Context, exchange string) (*models.MarketStatus, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if exchange != "" && !strings.EqualFold(exchange, "US") {
		return nil, fmt.Errorf("exchange %s: %w", exchange, market.ErrUnsupported)
	}
	c, err := p.tradeClient.GetClock()
	if err != nil {
		return nil, err
	}
	session := "closed"
	if c.IsOpen {
		session = "regular"
	}
	return &models.MarketStatus{
		Exchange:  "US",
		IsOpen:    c.IsOpen,
		Session:   session,
		Timezone:  "America/New_York",
		Timestamp: c.Timestamp.Unix(),
	}, nil
}

// SearchSymbol searches for assets matching the query string.
// It fetches active US equities and filters them in memory.
// Returns a maximum of 5 results.
func (p *Provider) SearchSymbol(ctx context.Context, query string) (*models.SymbolSearch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	assets, err := p.tradeClient.GetAssets(alpaca.GetAssetsRequest{
		Status:     "active",
		AssetClass: "us_equity",
	})
	if err != nil {
		return nil, err
	}

	res := &models.SymbolSearch{Result: []models.SymbolMatch{}}
	queryLower := strings.ToLower(strings.TrimSpace(query))

	for _, a := range assets {
		if strings.Contains(strings.ToLower(a.Symbol), queryLower) ||
			strings.Contains(strings.ToLower(a.Name), queryLower) {
			res.Result = append(res.Result, models.SymbolMatch{
				Description:   a.Name,
				DisplaySymbol: a.Symbol,
				Symbol:        a.Symbol,
				Type:          string(a.Class),
			})
			if len(res.Result) >= maxSearchResults {
				break
			}
		}
	}
	res.Count = len(res.Result)
	return res, nil
}

// GetMarketNews serves the general category only.
func (p *Provider) GetMarketNews(ctx context.Context, category string) ([]models.NewsItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if category != market.NewsGeneral {
		return nil, fmt.Errorf("news category %s: %w", category, market.ErrUnsupported)
	}
	news, err := p.mdClient.GetNews(marketdata.GetNewsRequest{TotalLimit: 50})
	if err != nil {
		return nil, err
	}
	return mapNews(news, category), nil
}

// GetCompanyNews fetches news tagged with symbol in [from, to].
func (p *Provider) GetCompanyNews(ctx context.Context, symbol string, from, to time.Time) ([]models.NewsItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	news, err := p.mdClient.GetNews(marketdata.GetNewsRequest{
		Symbols:    []string{models.NormalizeSymbol(symbol)},
		Start:      from,
		End:        to,
		TotalLimit: 50,
	})
	if err != nil {
		return nil, err
	}
	return mapNews(news, "company"), nil
}

// --- Helpers ---

func mapNews(news []marketdata.News, category string) []models.NewsItem {
	items := make([]models.NewsItem, 0, len(news))
	for _, n := range news {
		items = append(items, models.NewsItem{
			Category: category,
			Datetime: n.CreatedAt.Unix(),
			Headline: n.Headline,
			ID:       int64(n.ID),
			Related:  strings.Join(n.Symbols, ","),
			Source:   n.Author,
			Summary:  n.Summary,
			URL:      n.URL,
		})
	}
	return items
}
