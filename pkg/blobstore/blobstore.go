// Package blobstore provides durable key/value object storage for exam
// submissions and grading artifacts. Writes overwrite by key: the store keeps
// at most one live object per key and never versions, so a repeated Put is
// idempotent last-write-wins.
package blobstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates the requested key holds no object.
var ErrNotFound = errors.New("object not found")

// Object describes a stored object as returned by List and Put.
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
	URL          string
}

// Store is the object storage contract shared by intake, grading and download.
// Implementations must be safe for concurrent use; the store is the only
// state shared between requests.
type Store interface {
	// Put writes body at key, replacing any existing object.
	Put(ctx context.Context, key string, body []byte, contentType string) (Object, error)
	// Get returns the full object body, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// List returns every object whose key starts with prefix.
	List(ctx context.Context, prefix string) ([]Object, error)
	// PublicURL resolves the externally reachable URL for key, when the
	// backing store exposes one. Empty string otherwise.
	PublicURL(key string) string
}
