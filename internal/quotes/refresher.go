package quotes

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"stock_pulse/internal/logger"
	"stock_pulse/internal/market"
	"stock_pulse/internal/models"

	"github.com/shopspring/decimal"
)

// Refresher polls the provider for stale quotes.
type Refresher struct {
	Provider market.Provider
	Quotes   *Cache[models.Quote]
	Profiles *Cache[models.CompanyProfile]

	QuoteTTL   time.Duration
	ProfileTTL time.Duration
}

// NewRefresher wires a refresher with fresh caches.
func NewRefresher(p market.Provider, quoteTTL, profileTTL time.Duration) *Refresher {
	return &Refresher{
		Provider:   p,
		Quotes:     NewCache[models.Quote](),
		Profiles:   NewCache[models.CompanyProfile](),
		QuoteTTL:   quoteTTL,
		ProfileTTL: profileTTL,
	}
}

// Quote returns a cached quote younger than the TTL, fetching it otherwise.
// On fetch failure the error is returned and the stale value is kept.
func (r *Refresher) Quote(ctx context.Context, symbol string) (models.Quote, error) {
	sym := models.NormalizeSymbol(symbol)
	if r.Quotes.Fresh(sym, r.QuoteTTL) {
		e, _ := r.Quotes.Get(sym)
		return e.Value, nil
	}
	q, err := r.Provider.GetQuote(ctx, sym)
	if err != nil {
		r.Quotes.Fail(sym, err)
		return models.Quote{}, fmt.Errorf("quote %s: %w", sym, err)
	}
	r.Quotes.Put(sym, *q)
	return *q, nil
}

// Profile is Quote for company profiles.
func (r *Refresher) Profile(ctx context.Context, symbol string) (models.CompanyProfile, error) {
	sym := models.NormalizeSymbol(symbol)
	if r.Profiles.Fresh(sym, r.ProfileTTL) {
		e, _ := r.Profiles.Get(sym)
		return e.Value, nil
	}
	p, err := r.Provider.GetProfile(ctx, sym)
	if err != nil {
		r.Profiles.Fail(sym, err)
		return models.CompanyProfile{}, fmt.Errorf("profile %s: %w", sym, err)
	}
	r.Profiles.Put(sym, *p)
	return *p, nil
}

// Refresh fetches the stale quotes among symbols in parallel.
// It returns the number of quotes updated and the joined errors.
func (r *Refresher) Refresh(ctx context.Context, symbols []string) (int, error) {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		updated int
		errs    []error
	)
	seen := make(map[string]bool, len(symbols))

	for _, s := range symbols {
		sym := models.NormalizeSymbol(s)
		if sym == "" || seen[sym] || r.Quotes.Fresh(sym, r.QuoteTTL) {
			continue
		}
		seen[sym] = true

		wg.Add(1)
		go func(sym string) {
			defer wg.Done()
			q, err := r.Provider.GetQuote(ctx, sym)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				r.Quotes.Fail(sym, err)
				errs = append(errs, fmt.Errorf("%s: %w", sym, err))
				return
			}
			r.Quotes.Put(sym, *q)
			updated++
		}(sym)
	}
	wg.Wait()

	if len(errs) > 0 {
		log.Printf("WARN: quote refresh: %d of %d failed", len(errs), len(seen))
	}
	logger.Debugf("quote refresh: %d updated", updated)
	return updated, errors.Join(errs...)
}

// Price returns the last known current price of symbol.
// It matches portfolio.PriceLookup.
func (r *Refresher) Price(symbol string) (decimal.Decimal, bool) {
	e, ok := r.Quotes.Get(symbol)
	if !ok {
		return decimal.Zero, false
	}
	return e.Value.Current, true
}
