package services

import (
	"context"

	"docvault/internal/domain/models"
)

// EventPublisher broadcasts domain events. Publishing is best-effort: callers
// log failures and carry on.
type EventPublisher interface {
	Publish(ctx context.Context, event *models.Event) error
	Close() error
}
