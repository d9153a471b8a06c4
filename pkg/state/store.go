package state

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/lepinkainen/skypost/pkg/filesystem"
)

// Store reads and writes the dedupe record as a single JSON file.
// One writer per file is assumed; overlapping runs must be prevented by the
// scheduler.
type Store struct {
	path string
}

// NewStore creates a store for the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the state file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the persisted record. A missing file returns (nil, nil).
// Corrupt or unparseable content is logged and treated the same way, so a
// damaged state file resets the bot instead of blocking it.
func (s *Store) Load() (*Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read state file %s: %w", s.path, err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		slog.Warn("State file is corrupt, treating as first run", "path", s.path, "error", err)
		return nil, nil
	}

	return &rec, nil
}

// Save persists the record with a whole-file atomic write.
func (s *Store) Save(rec *Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	if err := filesystem.AtomicWriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write state file %s: %w", s.path, err)
	}

	return nil
}
