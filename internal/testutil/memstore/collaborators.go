package memstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"docvault/internal/domain"
	"docvault/internal/domain/models"
)

// ============================================================================
// Blob storage
// ============================================================================

// BlobStore keeps blobs in memory
type BlobStore struct {
	mu      sync.Mutex
	Objects map[string][]byte
	Deleted []string

	// FailPut and FailDelete inject errors
	FailPut    bool
	FailDelete bool
}

// NewBlobStore creates an empty blob store
func NewBlobStore() *BlobStore {
	return &BlobStore{Objects: map[string][]byte{}}
}

func (b *BlobStore) Put(ctx context.Context, filename string, content io.Reader, size int64, contentType string) (string, error) {
	if b.FailPut {
		return "", ErrInjected
	}
	data, err := io.ReadAll(content)
	if err != nil {
		return "", err
	}
	key := uuid.NewString() + "/" + filename
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Objects[key] = data
	return key, nil
}

func (b *BlobStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.Objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s: %w", key, domain.ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *BlobStore) Delete(ctx context.Context, key string) error {
	if b.FailDelete {
		return ErrInjected
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.Objects, key)
	b.Deleted = append(b.Deleted, key)
	return nil
}

func (b *BlobStore) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "http://blobs.local/" + key, nil
}

func (b *BlobStore) PresignGetExternal(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "http://public.blobs.local/" + key, nil
}

// Has reports whether key is stored
func (b *BlobStore) Has(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.Objects[key]
	return ok
}

// Count returns the number of stored blobs
func (b *BlobStore) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.Objects)
}

// ============================================================================
// Cleaner and events
// ============================================================================

// Cleaner records scheduled deletes without running them
type Cleaner struct {
	mu        sync.Mutex
	Scheduled []string
}

func (c *Cleaner) ScheduleDelete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Scheduled = append(c.Scheduled, key)
}

// Keys returns the scheduled keys
func (c *Cleaner) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.Scheduled...)
}

// Events records published events
type Events struct {
	mu     sync.Mutex
	events []models.Event
	Fail   bool
}

func (e *Events) Publish(ctx context.Context, event *models.Event) error {
	if e.Fail {
		return ErrInjected
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, *event)
	return nil
}

func (e *Events) Close() error { return nil }

// Types returns the published event types in order
func (e *Events) Types() []models.EventType {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.EventType, 0, len(e.events))
	for _, ev := range e.events {
		out = append(out, ev.Type)
	}
	return out
}
