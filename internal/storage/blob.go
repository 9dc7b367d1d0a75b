// internal/storage/blob.go
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no object exists at the key.
var ErrNotFound = errors.New("storage: object not found")

// BlobStore is a flat key/value object store holding the published document.
//
// Implementations:
//   - S3Store: Amazon S3 or any S3-compatible endpoint
//   - FileStore: a local directory, one file per key
//   - MemoryStore: process memory, for tests and dry runs
type BlobStore interface {
	// Get returns the object stored at key.
	// Returns ErrNotFound (possibly wrapped) when the key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put overwrites the object at key and returns the store's content digest.
	// There is no versioning and no compare-and-swap: last writer wins.
	Put(ctx context.Context, key string, data []byte, contentType string) (etag string, err error)

	// Location renders a human readable address for key, used in logs.
	Location(key string) string
}

// IsNotFound reports whether err means the object does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
