// Package watchlist holds the ordered, deduplicated set of followed symbols.
package watchlist

import (
	"slices"

	"stock_pulse/internal/models"
)

// Set is an insertion-ordered set of canonical symbols.
type Set struct {
	symbols []string
}

// New builds a set from symbols, normalizing and dropping duplicates and
// blanks while keeping first-seen order.
func New(symbols ...string) *Set {
	s := &Set{}
	for _, sym := range symbols {
		s.Add(sym)
	}
	return s
}

// Add appends symbol unless it is already present. Reports whether the set changed.
func (s *Set) Add(symbol string) bool {
	sym := models.NormalizeSymbol(symbol)
	if sym == "" || s.Contains(sym) {
		return false
	}
	s.symbols = append(s.symbols, sym)
	return true
}

// Remove deletes symbol if present. Reports whether the set changed.
func (s *Set) Remove(symbol string) bool {
	sym := models.NormalizeSymbol(symbol)
	i := slices.Index(s.symbols, sym)
	if i < 0 {
		return false
	}
	s.symbols = slices.Delete(s.symbols, i, i+1)
	return true
}

// Toggle removes symbol if present, otherwise appends it.
// It returns true when the symbol is in the set afterwards.
func (s *Set) Toggle(symbol string) bool {
	sym := models.NormalizeSymbol(symbol)
	if sym == "" {
		return false
	}
	if s.Remove(sym) {
		return false
	}
	s.symbols = append(s.symbols, sym)
	return true
}

// Contains reports membership after normalization.
func (s *Set) Contains(symbol string) bool {
	return slices.Contains(s.symbols, models.NormalizeSymbol(symbol))
}

// Symbols returns a copy in insertion order.
func (s *Set) Symbols() []string {
	return slices.Clone(s.symbols)
}

// Len is the number of followed symbols.
func (s *Set) Len() int {
	return len(s.symbols)
}
