package live

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"stock_pulse/internal/logger"
	"stock_pulse/internal/market"
	"stock_pulse/internal/models"
)

// ErrNoSymbol is returned by Open for an empty symbol.
var ErrNoSymbol = errors.New("empty symbol")

// Session owns the single live subscription of the dashboard view.
type Session struct {
	feed market.Feed

	// lifecycle serializes Open/Close so that at most one subscription exists.
	lifecycle sync.Mutex

	mu     sync.Mutex
	merger Merger
	gen    uint64
	sub    market.Subscription
}

// NewSession creates a session on feed. A nil feed yields a quote-only session.
func NewSession(feed market.Feed) *Session {
	return &Session{feed: feed}
}

// Open switches the view to symbol. The previous subscription is closed
// before the new one is opened and the pending tick is cleared.
func (s *Session) Open(ctx context.Context, symbol string) error {
	sym := models.NormalizeSymbol(symbol)
	if sym == "" {
		return ErrNoSymbol
	}

	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.mu.Lock()
	prev := s.sub
	s.sub = nil
	s.gen++
	gen := s.gen
	s.merger.Reset(sym)
	s.mu.Unlock()

	if prev != nil {
		if err := prev.Close(); err != nil {
			log.Printf("WARN: closing previous live subscription: %v", err)
		}
	}

	if s.feed == nil {
		return nil
	}

	sub, err := s.feed.Subscribe(ctx, sym, func(raw []byte) { s.handle(gen, raw) })
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", sym, err)
	}

	s.mu.Lock()
	s.sub = sub
	s.mu.Unlock()
	logger.Debugf("live session %d opened for %s", gen, sym)
	return nil
}

func (s *Session) handle(gen uint64, raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return
	}
	if !s.merger.HandleMessage(raw) {
		logger.Debugf("live frame ignored: %.80s", raw)
	}
}

// SetQuote feeds a polled quote. Quotes for other symbols are ignored.
func (s *Session) SetQuote(symbol string, q *models.Quote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.merger.Symbol() == "" || models.NormalizeSymbol(symbol) != s.merger.Symbol() {
		return
	}
	s.merger.SetQuote(q)
}

// Symbol returns the open symbol, or "" when the view is closed.
func (s *Session) Symbol() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.merger.Symbol()
}

// View returns the merged display for the open symbol.
func (s *Session) View() Display {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.merger.View()
}

// Close tears the view down. Frames still in flight are dropped.
func (s *Session) Close() error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.mu.Lock()
	prev := s.sub
	s.sub = nil
	s.gen++
	s.merger.Reset("")
	s.mu.Unlock()

	if prev == nil {
		return nil
	}
	return prev.Close()
}
