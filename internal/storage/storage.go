package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"stock_pulse/internal/models"
)

// Record names. The two records are independent: a failure writing one
// never rolls back the other.
const (
	StateFile    = "stock-pulse-watchlist.json"
	SettingsFile = "stock-pulse-settings.json"
)

// CurrentVersion is the schema version written by SaveState.
const CurrentVersion = "1.1"

// maxTrades mirrors the ledger cap; applied during migration only.
const maxTrades = 200

// ErrCorrupt wraps decode failures of a record.
var ErrCorrupt = errors.New("corrupt state file")

// Store reads and writes the persisted records under a directory.
type Store struct {
	dir string
}

// New returns a store rooted at dir. An empty dir means the working directory.
func New(dir string) *Store {
	if dir == "" {
		dir = "."
	}
	return &Store{dir: dir}
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

// LoadState reads the portfolio record from disk.
// A missing file yields an empty state, which is written out immediately.
func (s *Store) LoadState() (models.PortfolioState, error) {
	var st models.PortfolioState

	found, err := s.read(StateFile, &st)
	if err != nil {
		return emptyState(), err
	}
	if !found {
		log.Println("State file missing, generating template...")
		st = emptyState()
		if err := s.SaveState(st); err != nil {
			log.Printf("WARN: could not write initial state: %v", err)
		}
		return st, nil
	}

	if st.Positions == nil {
		st.Positions = map[string]models.Position{}
	}
	if migrateState(&st) {
		log.Printf("INFO: State migrated to version %s. Saving...", st.Version)
		if err := s.SaveState(st); err != nil {
			log.Printf("WARN: could not persist migrated state: %v", err)
		}
	}
	return st, nil
}

// SaveState overwrites the portfolio record.
func (s *Store) SaveState(st models.PortfolioState) error {
	if st.Version == "" {
		st.Version = CurrentVersion
	}
	return s.write(StateFile, st)
}

// LoadSettings reads the settings record. A missing file yields empty settings.
func (s *Store) LoadSettings() (models.Settings, error) {
	var set models.Settings
	if _, err := s.read(SettingsFile, &set); err != nil {
		return models.Settings{}, err
	}
	return set, nil
}

// SaveSettings overwrites the settings record.
func (s *Store) SaveSettings(set models.Settings) error {
	return s.write(SettingsFile, set)
}

func emptyState() models.PortfolioState {
	return models.PortfolioState{
		Version:   CurrentVersion,
		Watchlist: []string{},
		Positions: map[string]models.Position{},
		Trades:    []models.Trade{},
	}
}

// read decodes name into v. It reports false when the file does not exist.
func (s *Store) read(name string, v any) (bool, error) {
	f, err := os.Open(s.path(name))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	b, err := io.ReadAll(f)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrCorrupt, name, err)
	}
	return true, nil
}

// write replaces name atomically: temp file, fsync, rename.
func (s *Store) write(name string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	dest := s.path(name)
	tmpFile := dest + ".tmp"
	f, err := os.Create(tmpFile)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(b); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	// Close before renaming (required on Windows).
	f.Close()

	if err := os.Rename(tmpFile, dest); err != nil {
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}
