package watchlist

import (
	"slices"
	"testing"
)

func TestAddNormalizesAndDeduplicates(t *testing.T) {
	s := New()
	s.Add("aapl ")
	s.Add("AAPL")
	s.Add(" Aapl")

	got := s.Symbols()
	if !slices.Equal(got, []string{"AAPL"}) {
		t.Errorf("Expected [AAPL], got %v", got)
	}
}

func TestAddKeepsInsertionOrder(t *testing.T) {
	s := New("msft", "aapl", "tsla", "MSFT")
	want := []string{"MSFT", "AAPL", "TSLA"}
	if got := s.Symbols(); !slices.Equal(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestAddIgnoresBlank(t *testing.T) {
	s := New()
	if s.Add("   ") {
		t.Error("Blank symbol must not be added")
	}
	if s.Toggle("") {
		t.Error("Blank symbol must not be toggled in")
	}
	if s.Len() != 0 {
		t.Errorf("Expected empty set, got %v", s.Symbols())
	}
}

func TestRemove(t *testing.T) {
	s := New("AAPL", "MSFT", "TSLA")
	if !s.Remove(" msft") {
		t.Error("Expected remove to report a change")
	}
	if s.Remove("MSFT") {
		t.Error("Second remove must be a no-op")
	}
	want := []string{"AAPL", "TSLA"}
	if got := s.Symbols(); !slices.Equal(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestToggleIsItsOwnInverse(t *testing.T) {
	states := [][]string{
		{},
		{"AAPL"},
		{"AAPL", "MSFT", "TSLA"},
		{"MSFT", "AAPL"},
	}
	for _, start := range states {
		for _, sym := range []string{"AAPL", "msft ", "NVDA"} {
			s := New(start...)
			before := s.Symbols()

			s.Toggle(sym)
			s.Toggle(sym)

			after := s.Symbols()
			// Toggling a present member twice moves it to the end.
			if !sameMembers(before, after) {
				t.Errorf("toggle twice of %q on %v gave %v", sym, before, after)
			}
		}
	}
}

func TestToggleAbsentTwiceRestoresOrder(t *testing.T) {
	s := New("AAPL", "MSFT")
	s.Toggle("nvda")
	if !s.Contains("NVDA") {
		t.Fatal("Expected NVDA after first toggle")
	}
	s.Toggle("NVDA")
	if got := s.Symbols(); !slices.Equal(got, []string{"AAPL", "MSFT"}) {
		t.Errorf("Expected original order, got %v", got)
	}
}

func TestSymbolsReturnsCopy(t *testing.T) {
	s := New("AAPL")
	got := s.Symbols()
	got[0] = "XXX"
	if !s.Contains("AAPL") {
		t.Error("Mutating the returned slice must not affect the set")
	}
}

func sameMembers(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for _, x := range a {
		if !slices.Contains(b, x) {
			return false
		}
	}
	return true
}
