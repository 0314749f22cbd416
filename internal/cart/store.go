package cart

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

// fileFormat is the on-disk layout of a saved cart.
type fileFormat struct {
	Lines []Line `json:"lines"`
}

// FileStore keeps the cart as JSON on disk.
type FileStore struct {
	path   string
	logger zerolog.Logger
}

// NewFileStore creates a store backed by the file at path.
func NewFileStore(path string, logger zerolog.Logger) *FileStore {
	return &FileStore{
		path:   path,
		logger: logger.With().Str("component", "cart-store").Str("file", path).Logger(),
	}
}

// Load reads the saved cart. A missing file is an empty cart; an unreadable
// one is removed and treated as empty.
func (s *FileStore) Load() ([]Line, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cart file: %w", err)
	}

	var saved fileFormat
	if err := json.Unmarshal(data, &saved); err != nil {
		s.logger.Warn().Err(err).Msg("discarding corrupt cart file")
		if rmErr := os.Remove(s.path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			s.logger.Error().Err(rmErr).Msg("failed to remove corrupt cart file")
		}
		return nil, nil
	}

	return saved.Lines, nil
}

// Save writes lines to a temp file and renames it over the cart file.
func (s *FileStore) Save(lines []Line) error {
	data, err := json.Marshal(fileFormat{Lines: lines})
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create cart directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write cart file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace cart file: %w", err)
	}

	return nil
}

// MemoryStore keeps the cart in memory only.
type MemoryStore struct {
	mu    sync.Mutex
	lines []Line
	saves int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns the last saved lines.
func (s *MemoryStore) Load() ([]Line, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out, nil
}

// Save records lines.
func (s *MemoryStore) Save(lines []Line) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = make([]Line, len(lines))
	copy(s.lines, lines)
	s.saves++
	return nil
}

// Saves returns how many times Save was called.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
