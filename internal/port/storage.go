package port

import (
	"context"
	"io"
	"time"
)

// PutInput describes one object written to the attachment store.
type PutInput struct {
	Key         string
	Body        io.Reader
	ContentType string
}

// BlobStore is the attachment object store. Implementations are bound to a
// single bucket chosen at startup; keys carry the invoice-scoped layout.
type BlobStore interface {
	Put(ctx context.Context, input PutInput) error
	Remove(ctx context.Context, key string) error
	// PresignGet returns a time-limited download URL without exposing
	// store credentials.
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}
