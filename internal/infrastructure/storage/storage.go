package storage

import (
	"context"
	"time"
)

// Object describes one stored blob.
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// ObjectStore is the binary store MOU documents are written to.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	// URL returns a retrievable reference for key. It fails when the object is not yet visible.
	URL(ctx context.Context, key string) (string, error)
	// Link returns a short-lived download link for a stored key. Records keep the
	// key, and links are reissued on every read.
	Link(ctx context.Context, key string) (string, error)
	List(ctx context.Context, prefix string) ([]Object, error)
	Delete(ctx context.Context, key string) error
}
