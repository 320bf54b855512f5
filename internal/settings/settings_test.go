package settings

import (
	"testing"

	"stock_pulse/internal/models"
)

func TestTokenResolution(t *testing.T) {
	s := New(models.Settings{})
	if got := s.Token(" default "); got != "default" {
		t.Errorf("Expected fallback 'default', got %q", got)
	}

	s.SetAPIKey("  user-key ")
	if got := s.Token("default"); got != "user-key" {
		t.Errorf("Expected stored key, got %q", got)
	}

	s.ClearAPIKey()
	if got := s.Token(""); got != "" {
		t.Errorf("Expected empty token, got %q", got)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := New(models.Settings{FinnhubAPIKey: " abc123 "})
	if s.APIKey() != "abc123" {
		t.Errorf("Expected trimmed key, got %q", s.APIKey())
	}
	if got := New(s.Snapshot()).APIKey(); got != "abc123" {
		t.Errorf("Expected abc123 after restore, got %q", got)
	}
}

func TestMask(t *testing.T) {
	cases := map[string]string{
		"":             "",
		"abc":          "***",
		"abcdefgh1234": "***1234",
	}
	for in, want := range cases {
		if got := Mask(in); got != want {
			t.Errorf("Mask(%q) = %q, want %q", in, got, want)
		}
	}
}
