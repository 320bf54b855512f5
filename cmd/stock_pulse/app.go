package main

import (
	"fmt"
	"log"
	"strings"

	"stock_pulse/internal/config"
	"stock_pulse/internal/dashboard"
	"stock_pulse/internal/market"
	"stock_pulse/internal/market/alpaca"
	"stock_pulse/internal/market/finnhub"
	"stock_pulse/internal/settings"
	"stock_pulse/internal/storage"
)

// buildDashboard wires storage, settings, the market provider and the
// live feed. The settings key is resolved on every request.
func buildDashboard(cfg *config.Config) (*dashboard.Dashboard, error) {
	store := storage.New(cfg.StateDir)

	set, err := store.LoadSettings()
	if err != nil {
		log.Printf("CRITICAL: Could not load settings: %v", err)
	}
	prefs := settings.New(set)
	token := func() string { return prefs.Token(cfg.FinnhubAPIKey) }

	provider, err := newProvider(cfg, token)
	if err != nil {
		return nil, err
	}
	feed, err := newFeed(cfg, token)
	if err != nil {
		return nil, err
	}

	log.Printf("Market provider: %s | Tick feed: %s | State dir: %s", cfg.QuoteProvider, cfg.TickFeed, cfg.StateDir)
	return dashboard.New(cfg, store, prefs, provider, feed), nil
}

func newProvider(cfg *config.Config, token market.TokenSource) (market.Provider, error) {
	switch strings.ToLower(cfg.QuoteProvider) {
	case "finnhub", "":
		return finnhub.NewClient(cfg.FinnhubBaseURL, cfg.RequestTimeout, token), nil
	case "alpaca":
		return alpaca.NewProvider(), nil
	default:
		return nil, fmt.Errorf("unknown QUOTE_PROVIDER %q", cfg.QuoteProvider)
	}
}

// newFeed returns nil when live ticks are disabled.
func newFeed(cfg *config.Config, token market.TokenSource) (market.Feed, error) {
	switch strings.ToLower(cfg.TickFeed) {
	case "finnhub", "":
		return finnhub.NewStreamer(cfg.FinnhubStreamURL, token), nil
	case "alpaca":
		return alpaca.NewStreamer(), nil
	case "none", "off":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown TICK_FEED %q", cfg.TickFeed)
	}
}
