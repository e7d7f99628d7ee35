// Package blob is the binary-object boundary: profile photos live here, one
// object per user, addressed by key. Deletion is idempotent by contract; a
// missing object is never an error to remove.
package blob

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound   = errors.New("blob: object not found")
	ErrInvalidKey = errors.New("blob: invalid key")
)

// Info is object metadata, used mainly as an existence check.
type Info struct {
	Key     string
	Size    int64
	ModTime time.Time
}

type Store interface {
	// Upload writes data under key, overwriting any previous object, and
	// returns the download reference for it.
	Upload(ctx context.Context, key string, data []byte) (string, error)
	// DownloadReference resolves key to the reference a client can fetch.
	DownloadReference(key string) string
	// Open returns the raw object bytes.
	Open(ctx context.Context, key string) ([]byte, error)
	// Delete removes the object. Deleting an absent key succeeds.
	Delete(ctx context.Context, key string) error
	// Metadata stats the object, returning ErrNotFound when absent.
	Metadata(ctx context.Context, key string) (Info, error)
}
