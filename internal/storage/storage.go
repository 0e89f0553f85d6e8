// Package storage defines the object store the uploader forwards files to.
// Swap implementations by changing the concrete type injected at startup.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrObjectNotFound is returned by Delete when the key does not exist.
var ErrObjectNotFound = errors.New("object not found")

// Headers applied to every uploaded object so browsers render it inline and
// caches keep it for a year.
const (
	ContentDispositionInline = "inline"
	CacheControlImmutable    = "max-age=31536000"
)

// PutInput describes one object write.
type PutInput struct {
	Key         string
	Body        io.Reader
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// PutResult is returned after a successful write.
type PutResult struct {
	URL string
}

// ObjectStore is the minimal set of operations the uploader needs.
type ObjectStore interface {
	// Put streams Body to the store under Key.
	Put(ctx context.Context, in PutInput) (PutResult, error)
	// Delete removes Key. It wraps ErrObjectNotFound when Key is absent.
	Delete(ctx context.Context, key string) error
	// PublicURL returns the browser-accessible URL for key.
	PublicURL(key string) string
}
