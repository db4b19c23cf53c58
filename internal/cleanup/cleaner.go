// Package cleanup deletes superseded blobs in the background and retries
// failures from a Redis set.
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"docvault/internal/domain/services"
	"docvault/internal/metrics"
	"docvault/internal/worker"
)

// PendingSetKey holds blob keys whose delete failed
const PendingSetKey = "docvault:cleanup:pending"

const deleteTimeout = 30 * time.Second

// Deleter is the part of blob storage the cleaner needs
type Deleter interface {
	Delete(ctx context.Context, key string) error
}

// Cleaner implements services.BlobCleaner
type Cleaner struct {
	pool    *worker.Pool
	blobs   Deleter
	pending redis.Cmdable
	logger  *slog.Logger
}

var _ services.BlobCleaner = (*Cleaner)(nil)

// NewCleaner creates a cleaner that runs deletes on pool
func NewCleaner(pool *worker.Pool, blobs Deleter, pending redis.Cmdable, logger *slog.Logger) *Cleaner {
	return &Cleaner{pool: pool, blobs: blobs, pending: pending, logger: logger}
}

// ScheduleDelete queues a delete. It never blocks and never fails the caller;
// anything that cannot be deleted now lands in the pending set.
func (c *Cleaner) ScheduleDelete(key string) {
	if key == "" {
		return
	}
	accepted := c.pool.Submit(func(ctx context.Context) error {
		return c.deleteOrDefer(ctx, key)
	})
	if !accepted {
		c.deferKey(context.Background(), key)
	}
}

func (c *Cleaner) deleteOrDefer(ctx context.Context, key string) error {
	delCtx, cancel := context.WithTimeout(ctx, deleteTimeout)
	defer cancel()

	if err := c.blobs.Delete(delCtx, key); err != nil {
		c.logger.Warn("blob delete failed, deferring", "key", key, "error", err)
		c.deferKey(context.Background(), key)
		return nil
	}
	c.logger.Debug("blob deleted", "key", key)
	return nil
}

func (c *Cleaner) deferKey(ctx context.Context, key string) {
	if err := c.pending.SAdd(ctx, PendingSetKey, key).Err(); err != nil {
		// Nothing left to fall back to; the blob is orphaned
		c.logger.Error("could not record pending blob", "key", key, "error", err)
		return
	}
	c.refreshGauge(ctx)
}

// Sweep retries every pending delete once and returns how many succeeded
func (c *Cleaner) Sweep(ctx context.Context) (int, error) {
	keys, err := c.pending.SMembers(ctx, PendingSetKey).Result()
	if err != nil {
		return 0, fmt.Errorf("read pending blobs: %w", err)
	}

	deleted := 0
	for _, key := range keys {
		if ctx.Err() != nil {
			break
		}
		delCtx, cancel := context.WithTimeout(ctx, deleteTimeout)
		err := c.blobs.Delete(delCtx, key)
		cancel()
		if err != nil {
			c.logger.Warn("pending blob delete failed", "key", key, "error", err)
			continue
		}
		if err := c.pending.SRem(ctx, PendingSetKey, key).Err(); err != nil {
			return deleted, fmt.Errorf("clear pending blob: %w", err)
		}
		deleted++
	}

	c.refreshGauge(ctx)
	return deleted, nil
}

// Run sweeps every interval until ctx is cancelled
func (c *Cleaner) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := c.Sweep(ctx)
			if err != nil {
				c.logger.Error("cleanup sweep failed", "error", err)
				continue
			}
			if n > 0 {
				c.logger.Info("cleanup sweep", "deleted", n)
			}
		}
	}
}

func (c *Cleaner) refreshGauge(ctx context.Context) {
	n, err := c.pending.SCard(ctx, PendingSetKey).Result()
	if err != nil {
		return
	}
	metrics.BlobCleanupPending.Set(float64(n))
}
