// Package settings holds the user-supplied API credential.
package settings

import (
	"strings"
	"sync"

	"stock_pulse/internal/models"
)

// Store holds user settings. The zero value is an empty store.
// It is safe for concurrent use: Token is called from request goroutines.
type Store struct {
	mu            sync.RWMutex
	finnhubAPIKey string
}

// New restores a store from its persisted record.
func New(s models.Settings) *Store {
	return &Store{finnhubAPIKey: strings.TrimSpace(s.FinnhubAPIKey)}
}

// SetAPIKey stores key, trimmed. The format is not validated.
func (s *Store) SetAPIKey(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finnhubAPIKey = strings.TrimSpace(key)
}

// ClearAPIKey removes the stored key.
func (s *Store) ClearAPIKey() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finnhubAPIKey = ""
}

// APIKey returns the stored key, possibly empty.
func (s *Store) APIKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.finnhubAPIKey
}

// Token resolves the credential attached to outbound requests: the stored
// key first, then fallback. An empty result is valid.
func (s *Store) Token(fallback string) string {
	if key := s.APIKey(); key != "" {
		return key
	}
	return strings.TrimSpace(fallback)
}

// Snapshot exports the persisted record.
func (s *Store) Snapshot() models.Settings {
	return models.Settings{FinnhubAPIKey: s.APIKey()}
}

// Masked renders the stored key for display, keeping the last 4 characters.
func (s *Store) Masked() string {
	return Mask(s.APIKey())
}

// Mask hides all but the last 4 characters of a secret.
func Mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return "***"
	}
	return "***" + secret[len(secret)-4:]
}
