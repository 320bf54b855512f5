// Package dashboard is the application-owned container behind every
// front-end: it wires the ledger, watchlist, settings, quote caches and the
// live session, and persists state after each successful mutation.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"sync"
	"time"

	"stock_pulse/internal/config"
	"stock_pulse/internal/live"
	"stock_pulse/internal/market"
	"stock_pulse/internal/models"
	"stock_pulse/internal/portfolio"
	"stock_pulse/internal/quotes"
	"stock_pulse/internal/settings"
	"stock_pulse/internal/storage"
	"stock_pulse/internal/watchlist"

	"github.com/shopspring/decimal"
)

var startTime = time.Now()

// Dashboard owns the portfolio, watchlist, settings, quote caches and the
// live view of one open symbol. All commands go through HandleCommand.
type Dashboard struct {
	config   *config.Config
	provider market.Provider
	store    *storage.Store
	prefs    *settings.Store

	// mu guards ledger and watchlist.
	mu        sync.RWMutex
	ledger    *portfolio.Ledger
	watchlist *watchlist.Set

	quotes  *quotes.Refresher
	session *live.Session

	profile     Slice[models.CompanyProfile]
	status      Slice[models.MarketStatus]
	search      Slice[models.SymbolSearch]
	news        Slice[[]models.NewsItem]
	companyNews Slice[market.CompanyNews]

	commands []CommandDoc
	now      func() time.Time
}

// New loads the persisted portfolio and wires the dashboard. A corrupt
// record is logged and replaced by an empty state.
func New(cfg *config.Config, store *storage.Store, prefs *settings.Store, provider market.Provider, feed market.Feed) *Dashboard {
	st, err := store.LoadState()
	if err != nil {
		log.Printf("CRITICAL: Could not load initial state: %v", err)
	}

	return &Dashboard{
		config:    cfg,
		provider:  provider,
		store:     store,
		prefs:     prefs,
		ledger:    portfolio.FromState(st.Positions, st.Trades),
		watchlist: watchlist.New(st.Watchlist...),
		quotes:    quotes.NewRefresher(provider, cfg.QuoteTTL, cfg.ProfileTTL),
		session:   live.NewSession(feed),
		now:       time.Now,
		commands: []CommandDoc{
			{"/ping", "Connectivity check", "/ping"},
			{"/quote", "Latest quote", "/quote <ticker>"},
			{"/profile", "Company profile", "/profile <ticker>"},
			{"/market", "Exchange status", "/market [exchange]"},
			{"/search", "Symbol lookup", "/search <query>"},
			{"/news", "Market news", "/news [general|merger]"},
			{"/companynews", "Last week of news for the watchlist", "/companynews"},
			{"/watch", "Follow a symbol", "/watch <ticker>"},
			{"/unwatch", "Unfollow a symbol", "/unwatch <ticker>"},
			{"/toggle", "Follow or unfollow a symbol", "/toggle <ticker>"},
			{"/watchlist", "Followed symbols with prices", "/watchlist"},
			{"/open", "Open the live view of a symbol", "/open <ticker>"},
			{"/close", "Close the live view", "/close"},
			{"/view", "Show the live view", "/view"},
			{"/buy", "Simulated buy (price defaults to the live price)", "/buy <ticker> <qty> [price]"},
			{"/sell", "Simulated sell (price defaults to the live price)", "/sell <ticker> <qty> [price]"},
			{"/portfolio", "Positions and P&L", "/portfolio"},
			{"/trades", "Trade history, newest first", "/trades [n]"},
			{"/apikey", "Manage the Finnhub API key", "/apikey set <key> | clear | show"},
		},
	}
}

// Refresh polls the quotes of every symbol on screen: watchlist, positions
// and the open view. Stale quotes for the open view are pushed to the merger.
func (d *Dashboard) Refresh(ctx context.Context) error {
	d.mu.RLock()
	symbols := append(d.watchlist.Symbols(), d.ledger.Symbols()...)
	d.mu.RUnlock()

	open := d.session.Symbol()
	if open != "" && !slices.Contains(symbols, open) {
		symbols = append(symbols, open)
	}
	if len(symbols) == 0 {
		return nil
	}

	_, err := d.quotes.Refresh(ctx, symbols)
	if open != "" {
		if e, ok := d.quotes.Quotes.Get(open); ok {
			d.session.SetQuote(open, &e.Value)
		}
	}
	return err
}

// Close tears down the live view and writes both records a final time.
func (d *Dashboard) Close() error {
	var errs []error
	if err := d.session.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close live session: %w", err))
	}

	d.mu.RLock()
	err := d.saveStateLocked()
	d.mu.RUnlock()
	if err != nil {
		errs = append(errs, err)
	}
	if err := d.store.SaveSettings(d.prefs.Snapshot()); err != nil {
		errs = append(errs, fmt.Errorf("save settings: %w", err))
	}
	return errors.Join(errs...)
}

// Uptime returns the time since process start.
func (d *Dashboard) Uptime() time.Duration {
	return time.Since(startTime).Round(time.Second)
}

// saveStateLocked writes the portfolio record. Callers hold d.mu.
func (d *Dashboard) saveStateLocked() error {
	positions, trades := d.ledger.Snapshot()
	st := models.PortfolioState{
		Version:   storage.CurrentVersion,
		Watchlist: d.watchlist.Symbols(),
		Positions: positions,
		Trades:    trades,
	}
	if err := d.store.SaveState(st); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

// persistLocked saves after a successful mutation. Failures are logged only:
// the in-memory state stays authoritative.
func (d *Dashboard) persistLocked() {
	if err := d.saveStateLocked(); err != nil {
		log.Printf("ERROR: %v", err)
	}
}

// priceOf resolves the price used for trades and valuation: the merged live
// price when symbol is open, else the last polled quote.
func (d *Dashboard) priceOf(symbol string) (decimal.Decimal, bool) {
	if d.session.Symbol() == symbol {
		if v := d.session.View(); v.HasPrice {
			return v.Price, true
		}
	}
	return d.quotes.Price(symbol)
}
