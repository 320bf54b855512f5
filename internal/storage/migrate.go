package storage

import (
	"log"
	"strconv"
	"strings"

	"stock_pulse/internal/models"
)

// migrateState handles schema evolution.
// Returns true if changes were made and the state needs to be saved.
func migrateState(s *models.PortfolioState) bool {
	updated := false

	// 1.0 -> 1.1: records written before symbol normalization existed.
	if versionBefore(s.Version, 1, 1) {
		log.Printf("INFO: Migrating State Schema from %q to 1.1", s.Version)

		seen := make(map[string]bool, len(s.Watchlist))
		watchlist := make([]string, 0, len(s.Watchlist))
		for _, raw := range s.Watchlist {
			sym := models.NormalizeSymbol(raw)
			if sym == "" || seen[sym] {
				continue
			}
			seen[sym] = true
			watchlist = append(watchlist, sym)
		}
		s.Watchlist = watchlist

		positions := make(map[string]models.Position, len(s.Positions))
		for key, p := range s.Positions {
			sym := models.NormalizeSymbol(key)
			if sym == "" || !p.Quantity.IsPositive() {
				continue
			}
			p.Symbol = sym
			positions[sym] = p
		}
		s.Positions = positions

		if len(s.Trades) > maxTrades {
			s.Trades = s.Trades[:maxTrades]
		}

		s.Version = "1.1"
		updated = true
	}

	return updated
}

// versionBefore reports whether the "major.minor" version v is older than
// major.minor. An empty or unparsable version counts as older.
func versionBefore(v string, major, minor int) bool {
	majorPart, minorPart, _ := strings.Cut(v, ".")
	vMajor, err := strconv.Atoi(majorPart)
	if err != nil {
		return true
	}
	vMinor := 0
	if minorPart != "" {
		if vMinor, err = strconv.Atoi(minorPart); err != nil {
			return true
		}
	}
	if vMajor != major {
		return vMajor < major
	}
	return vMinor < minor
}
