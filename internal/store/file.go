package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileStore persists each document as <name>.json under a data directory.
// Writes go through a temp file and rename so a crash never leaves a
// half-written document.
type FileStore struct {
	mu  sync.Mutex
	dir string
}

// NewFileStore returns a FileStore rooted at dir, creating dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("store: data directory must be set")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create data dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// Get reads the named document from disk, or ErrNotFound.
func (s *FileStore) Get(ctx context.Context, name string) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(name)
}

func (s *FileStore) read(name string) (json.RawMessage, error) {
	raw, err := os.ReadFile(s.path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: read %s: %w", name, err)
	}
	return raw, nil
}

// Put writes the named document atomically.
func (s *FileStore) Put(ctx context.Context, name string, raw json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(name, raw)
}

func (s *FileStore) write(name string, raw json.RawMessage) error {
	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("store: write %s: %w", name, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("store: write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("store: write %s: %w", name, err)
	}
	if err := os.Rename(tmpName, s.path(name)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("store: write %s: %w", name, err)
	}
	return nil
}

// Update applies fn under the store lock as a single read-modify-write.
func (s *FileStore) Update(ctx context.Context, name string, fn UpdateFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, err := s.read(name)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	next, err := fn(cur)
	if err != nil {
		return err
	}
	return s.write(name, next)
}
