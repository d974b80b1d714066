// Package cache persists fetched records as a JSON file so later runs can
// skip the network.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// Store reads and writes a single JSON blob.
type Store struct {
	logger *slog.Logger
	path   string
}

// NewStore creates a store backed by the file at path.
func NewStore(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{path: path, logger: logger}
}

// Path returns the location of the cache file.
func (s *Store) Path() string {
	return s.path
}

// Save serializes data as indented JSON, creating parent directories as needed.
func (s *Store) Save(data any) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0750); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode cache: %w", err)
	}

	if err := os.WriteFile(s.path, encoded, 0600); err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}

	s.logger.Info("Cache saved", "path", s.path)
	return nil
}

// Load decodes the cache into dst. It reports false when the file does not
// exist or cannot be parsed; a parse failure is logged and otherwise treated
// as a miss.
func (s *Store) Load(dst any) bool {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("Failed to read cache", "path", s.path, "error", err)
		}
		return false
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		s.logger.Warn("Ignoring unreadable cache", "path", s.path, "error", err)
		return false
	}

	s.logger.Info("Cache loaded", "path", s.path)
	return true
}
