package access

import (
	"context"

	"docvault/internal/domain/models/access"
)

// ShareLinkRepository persists share links
type ShareLinkRepository interface {
	// Create inserts a link, filling ID, AccessCount and CreatedAt
	Create(ctx context.Context, link *access.ShareLink) error

	// GetByToken looks a link up by its secret token
	GetByToken(ctx context.Context, token string) (*access.ShareLink, error)

	// GetByID looks a link up by id
	GetByID(ctx context.Context, id string) (*access.ShareLink, error)

	// ListByDocument returns all links on a document, newest first
	ListByDocument(ctx context.Context, documentID string) ([]access.ShareLink, error)

	// ConsumeUse atomically increments access_count by one if the link is
	// neither expired nor exhausted, in a single conditional statement.
	// Returns the updated link, or ok=false when the condition did not hold.
	ConsumeUse(ctx context.Context, token string) (link *access.ShareLink, ok bool, err error)

	// Delete removes a link by id
	Delete(ctx context.Context, id string) error
}
