package services

import (
	"context"
	"io"
	"time"
)

// BlobStorage stores file bytes. Keys are opaque to callers.
type BlobStorage interface {
	// Put stores content under a fresh key derived from filename and returns the key
	Put(ctx context.Context, filename string, content io.Reader, size int64, contentType string) (string, error)

	// Get opens a stored blob
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes a blob; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error

	// PresignGet returns a time-limited download URL for API clients
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)

	// PresignGetExternal returns a URL reachable by out-of-network services
	// such as the document editor
	PresignGetExternal(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// BlobCleaner deletes superseded blobs off the request path. Failures are
// retried later rather than surfaced.
type BlobCleaner interface {
	ScheduleDelete(key string)
}
