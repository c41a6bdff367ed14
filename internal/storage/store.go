package storage

import (
	"context"
	"io"
)

// FileStore persists rendered invite images under unique filenames and serves
// them back for the public image endpoint.
type FileStore interface {
	// Put writes the bytes under filename and returns nil on success.
	Put(ctx context.Context, filename string, data []byte) error

	// Open returns a reader for a previously stored file.
	Open(filename string) (io.ReadCloser, error)

	// Exists reports whether a file is present without opening it.
	Exists(filename string) bool
}
