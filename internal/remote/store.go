package remote

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Head when the object does not exist.
var ErrNotFound = errors.New("object not found")

// ObjectInfo describes one remote object. Hash is the canonical
// lowercase-hex md5 of the content, or empty when the backend could not
// provide one (multipart uploads, foreign writers).
type ObjectInfo struct {
	Key     string
	Hash    string
	Size    int64
	ModTime time.Time
}

// Store is the object-store collaborator the reconciliation core runs
// against. Implementations are constructed by the caller with their own
// credential lifecycle; nothing in the core acquires credentials.
type Store interface {
	// Exists reports whether the object exists.
	Exists(ctx context.Context, key string) (bool, error)

	// Head fetches object metadata. Returns ErrNotFound when missing.
	// A missing content hash is not an error: Hash is left empty.
	Head(ctx context.Context, key string) (*ObjectInfo, error)

	// Upload stores the local file as key. hash is the canonical hex md5
	// of the file, recorded with the object so later reconciliations can
	// compare content.
	Upload(ctx context.Context, localPath, key, hash string) error

	// Download fetches the object into localPath, overwriting it.
	Download(ctx context.Context, key, localPath string) error

	// List returns every object under prefix.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
}
