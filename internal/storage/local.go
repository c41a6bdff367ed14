package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidFilename rejects names that could escape the storage directory.
var ErrInvalidFilename = errors.New("storage: invalid filename")

// LocalStore is a FileStore backed by a directory on the local filesystem.
type LocalStore struct {
	dir string
}

// NewLocalStore ensures the target directory exists and returns the store.
func NewLocalStore(dir string) (*LocalStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("storage: directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create directory: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

// Put writes the file atomically via a temp file and rename.
func (s *LocalStore) Put(ctx context.Context, filename string, data []byte) error {
	if err := validateFilename(filename); err != nil {
		return err
	}
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return err
		}
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("storage: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("storage: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("storage: close: %w", err)
	}

	if err := os.Rename(tmpName, filepath.Join(s.dir, filename)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("storage: rename: %w", err)
	}
	return nil
}

// Open returns a reader for the stored file.
func (s *LocalStore) Open(filename string) (io.ReadCloser, error) {
	if err := validateFilename(filename); err != nil {
		return nil, err
	}
	return os.Open(filepath.Join(s.dir, filename))
}

// Exists reports whether the file is present.
func (s *LocalStore) Exists(filename string) bool {
	if validateFilename(filename) != nil {
		return false
	}
	info, err := os.Stat(filepath.Join(s.dir, filename))
	return err == nil && !info.IsDir()
}

func validateFilename(filename string) error {
	if filename == "" ||
		strings.Contains(filename, "/") ||
		strings.Contains(filename, "\\") ||
		strings.Contains(filename, "..") {
		return ErrInvalidFilename
	}
	return nil
}
