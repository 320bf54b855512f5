package market

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stock_pulse/internal/models"
)

// ErrUnsupported is returned by providers for endpoints they do not serve.
var ErrUnsupported = errors.New("not supported by provider")

// ErrNoData is re-exported for callers that only import market.
var ErrNoData = models.ErrNoData

// News categories accepted by GetMarketNews.
const (
	NewsGeneral = "general"
	NewsMerger  = "merger"
)

// Provider is the market-data collaborator: one request per call, every
// payload validated before it is returned.
//
// Implementations must be safe for concurrent use.
type Provider interface {
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)
	GetProfile(ctx context.Context, symbol string) (*models.CompanyProfile, error)
	GetMarketStatus(ctx context.Context, exchange string) (*models.MarketStatus, error)
	SearchSymbol(ctx context.Context, query string) (*models.SymbolSearch, error)
	GetMarketNews(ctx context.Context, category string) ([]models.NewsItem, error)
	GetCompanyNews(ctx context.Context, symbol string, from, to time.Time) ([]models.NewsItem, error)
}

// TokenSource returns the credential to attach to the next request.
// It is consulted per request so that a key change applies immediately.
type TokenSource func() string

// StaticToken returns a TokenSource that always yields token.
func StaticToken(token string) TokenSource {
	return func() string { return token }
}

// APIError is a non-2xx answer from an upstream API.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("api error %d: %s", e.Status, body)
}

// ValidCategory reports whether category is a known market news category.
func ValidCategory(category string) bool {
	return category == NewsGeneral || category == NewsMerger
}
