package storage

import (
	"context"
	"time"
)

// ObjectInfo describes a stored object returned by prefix listing
type ObjectInfo struct {
	Key          string
	LastModified time.Time
}

// ObjectStore abstracts the S3-compatible bucket holding ingested content,
// assembled transcripts and generated cover images. Missing objects are
// reported via errors.ErrObjectNotFound so callers can distinguish
// "not there yet" from a real read failure.
type ObjectStore interface {
	// GetText reads an object and returns its contents as a string
	GetText(ctx context.Context, key string) (string, error)

	// ListByPrefix lists objects under a key prefix
	ListByPrefix(ctx context.Context, prefix string) ([]ObjectInfo, error)

	// PutBytes stores binary data and returns the public URL of the object
	PutBytes(ctx context.Context, key string, data []byte, contentType string) (string, error)

	// Delete removes a single object
	Delete(ctx context.Context, key string) error

	// DeleteBatch removes multiple objects, continuing past per-key failures
	DeleteBatch(ctx context.Context, keys []string) error
}
