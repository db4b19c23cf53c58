package access

import (
	"context"

	"docvault/internal/domain/models/access"
)

// PermissionRepository is the permission store: owner relation, direct grants
// and group grants. Liveness (expires_at NULL or in the future) is evaluated
// by the store at query time.
type PermissionRepository interface {
	// IsOwner reports whether userID owns the document
	IsOwner(ctx context.Context, userID, documentID string) (bool, error)

	// HasLiveDirectGrant checks for a live direct grant of exactly level
	HasLiveDirectGrant(ctx context.Context, userID, documentID string, level access.Level) (bool, error)

	// HasLiveGroupGrant checks for a live grant of exactly level to any group userID belongs to
	HasLiveGroupGrant(ctx context.Context, userID, documentID string, level access.Level) (bool, error)

	// ListLiveDirectLevels returns the distinct levels of userID's live direct grants
	ListLiveDirectLevels(ctx context.Context, userID, documentID string) ([]access.Level, error)

	// Grant always inserts a new row
	Grant(ctx context.Context, grant *access.Grant) error

	// Revoke deletes every row for the exact (document, user, level) triple.
	// Returns ErrNotFound when nothing matched.
	Revoke(ctx context.Context, documentID, userID string, level access.Level) error

	// ListForDocument returns every direct grant row on a document
	ListForDocument(ctx context.Context, documentID string) ([]access.Grant, error)

	// GrantGroup always inserts a new group grant row
	GrantGroup(ctx context.Context, grant *access.GroupGrant) error

	// RevokeGroup deletes every row for the exact (document, group, level) triple
	RevokeGroup(ctx context.Context, documentID, groupID string, level access.Level) error

	// ListGroupGrantsForDocument returns every group grant row on a document
	ListGroupGrantsForDocument(ctx context.Context, documentID string) ([]access.GroupGrant, error)
}
