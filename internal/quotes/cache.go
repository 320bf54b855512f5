// Package quotes keeps the last known quote and profile per symbol.
package quotes

import (
	"slices"
	"sync"
	"time"

	"stock_pulse/internal/models"
)

// Entry is a cached value with the time it was fetched and the last
// refresh error, if any. A failed refresh keeps the previous value.
type Entry[T any] struct {
	Value     T
	FetchedAt time.Time
	Err       error
}

// Cache is a concurrency-safe symbol-keyed store.
type Cache[T any] struct {
	mu      sync.RWMutex
	entries map[string]*Entry[T]
	now     func() time.Time
}

// NewCache returns an empty cache using the wall clock.
func NewCache[T any]() *Cache[T] {
	return &Cache[T]{entries: make(map[string]*Entry[T]), now: time.Now}
}

// Get returns the cached entry for symbol.
func (c *Cache[T]) Get(symbol string) (Entry[T], bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[models.NormalizeSymbol(symbol)]
	if !ok || e.FetchedAt.IsZero() {
		return Entry[T]{}, false
	}
	return *e, true
}

// Put stores a freshly fetched value and clears the error.
func (c *Cache[T]) Put(symbol string, v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[models.NormalizeSymbol(symbol)] = &Entry[T]{Value: v, FetchedAt: c.now()}
}

// Fail records a refresh error without evicting the last good value.
func (c *Cache[T]) Fail(symbol string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sym := models.NormalizeSymbol(symbol)
	e, ok := c.entries[sym]
	if !ok {
		e = &Entry[T]{}
		c.entries[sym] = e
	}
	e.Err = err
}

// LastError returns the error of the most recent refresh of symbol.
func (c *Cache[T]) LastError(symbol string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if e, ok := c.entries[models.NormalizeSymbol(symbol)]; ok {
		return e.Err
	}
	return nil
}

// Fresh reports whether symbol holds a value younger than ttl.
func (c *Cache[T]) Fresh(symbol string, ttl time.Duration) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[models.NormalizeSymbol(symbol)]
	if !ok || e.FetchedAt.IsZero() {
		return false
	}
	return c.now().Sub(e.FetchedAt) < ttl
}

// Symbols lists the symbols with a cached value, sorted.
func (c *Cache[T]) Symbols() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.entries))
	for sym, e := range c.entries {
		if !e.FetchedAt.IsZero() {
			out = append(out, sym)
		}
	}
	slices.Sort(out)
	return out
}

// Clear drops every entry. Used when the credential changes.
func (c *Cache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}
