package services

import (
	"context"

	"docvault/internal/domain/models/access"
)

// PermissionResolver answers "does user U hold level L on document D?".
// It never mutates state and never caches: grants and expiry may change
// between calls.
type PermissionResolver interface {
	// HasPermission runs the owner, direct grant, group grant checks in that
	// order and stops at the first that holds. Store failures are returned as
	// errors, never as a denial.
	HasPermission(ctx context.Context, userID, documentID string, level access.Level) (bool, error)

	// ListPermissions returns the levels of userID's live direct grants.
	// Ownership is not expanded into the result.
	ListPermissions(ctx context.Context, userID, documentID string) ([]access.Level, error)
}

// Gateway is the single chokepoint every document operation passes before
// touching the store or an external collaborator.
//
// All methods return nil when allowed, an error wrapping ErrNotFound when the
// document does not exist, ErrForbidden when it exists but access is denied,
// and ErrValidation for an unknown action.
type Gateway interface {
	// Authorize maps action to its required level and checks it
	Authorize(ctx context.Context, userID, documentID string, action access.Action) error

	// AuthorizeLevel checks a level directly
	AuthorizeLevel(ctx context.Context, userID, documentID string, level access.Level) error

	// AuthorizeLevelIncludingDeleted is AuthorizeLevel for reads that stay
	// available after a soft delete: version history and the access log
	AuthorizeLevelIncludingDeleted(ctx context.Context, userID, documentID string, level access.Level) error

	// AuthorizeMove requires Write on the document and on the target folder
	// (nil target = root, which needs no second check)
	AuthorizeMove(ctx context.Context, userID, documentID string, targetFolderID *string) error
}
