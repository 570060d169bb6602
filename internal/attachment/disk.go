// Package attachment stores uploaded report files on local disk. Files are
// saved under random names; the client-supplied filename only lives in report
// metadata.
package attachment

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Open when the stored file does not exist.
var ErrNotFound = errors.New("attachment: file not found")

// DiskStorage saves attachment content under a single directory.
type DiskStorage struct {
	dir string
}

// NewDiskStorage returns storage rooted at dir, creating dir if needed.
func NewDiskStorage(dir string) (*DiskStorage, error) {
	if dir == "" {
		return nil, errors.New("attachment: upload directory must be set")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("attachment: create upload dir: %w", err)
	}
	return &DiskStorage{dir: dir}, nil
}

// Save writes r to a freshly named file and returns the stored name and size.
func (s *DiskStorage) Save(r io.Reader) (storedName string, size int64, err error) {
	storedName = uuid.New().String()
	f, err := os.Create(filepath.Join(s.dir, storedName))
	if err != nil {
		return "", 0, fmt.Errorf("attachment: save: %w", err)
	}
	size, err = io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(filepath.Join(s.dir, storedName))
		return "", 0, fmt.Errorf("attachment: save: %w", err)
	}
	return storedName, size, nil
}

// Open returns a reader for the stored file. Caller must close it.
func (s *DiskStorage) Open(storedName string) (io.ReadCloser, error) {
	// Stored names are uuids we generated; reject anything path-like.
	if storedName != filepath.Base(storedName) || storedName == "" || storedName == "." {
		return nil, ErrNotFound
	}
	f, err := os.Open(filepath.Join(s.dir, storedName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("attachment: open: %w", err)
	}
	return f, nil
}

// Remove deletes the stored file. Missing files are not an error.
func (s *DiskStorage) Remove(storedName string) error {
	if storedName != filepath.Base(storedName) || storedName == "" || storedName == "." {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, storedName))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("attachment: remove: %w", err)
	}
	return nil
}
