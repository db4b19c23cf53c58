package services

import "context"

// AttemptLimiter tracks failed attempts per key and locks the key out once
// a threshold is reached.
type AttemptLimiter interface {
	// Locked reports whether key is currently locked out
	Locked(ctx context.Context, key string) (bool, error)

	// RecordFailure counts one failure and reports whether key is now locked
	RecordFailure(ctx context.Context, key string) (bool, error)

	// Reset clears the failure count for key
	Reset(ctx context.Context, key string) error
}
