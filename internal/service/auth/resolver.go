package auth

import (
	"context"
	"fmt"
	"log/slog"

	"docvault/internal/domain/models/access"
	accessRepo "docvault/internal/domain/repositories/access"
	"docvault/internal/domain/services"
)

// permissionResolver answers "does user U hold level L on document D".
//
// Checks run owner, then direct grant, then group grant, stopping at the
// first hit. Levels are matched exactly; only ownership satisfies all of
// them. Nothing is cached, so a revoke is visible on the next call.
type permissionResolver struct {
	store  accessRepo.PermissionRepository
	logger *slog.Logger
}

// NewPermissionResolver creates a resolver over the permission store
func NewPermissionResolver(store accessRepo.PermissionRepository, logger *slog.Logger) services.PermissionResolver {
	return &permissionResolver{store: store, logger: logger}
}

// HasPermission evaluates the three tiers. A store error is returned as an
// error, never converted to a denial.
func (r *permissionResolver) HasPermission(ctx context.Context, userID, documentID string, level access.Level) (bool, error) {
	if !level.Valid() {
		return false, fmt.Errorf("resolve permission: invalid level %q", level)
	}

	isOwner, err := r.store.IsOwner(ctx, userID, documentID)
	if err != nil {
		return false, fmt.Errorf("check ownership: %w", err)
	}
	if isOwner {
		r.logger.Debug("permission granted", "user_id", userID, "document_id", documentID, "level", level, "via", "owner")
		return true, nil
	}

	direct, err := r.store.HasLiveDirectGrant(ctx, userID, documentID, level)
	if err != nil {
		return false, fmt.Errorf("check direct grant: %w", err)
	}
	if direct {
		r.logger.Debug("permission granted", "user_id", userID, "document_id", documentID, "level", level, "via", "direct")
		return true, nil
	}

	group, err := r.store.HasLiveGroupGrant(ctx, userID, documentID, level)
	if err != nil {
		return false, fmt.Errorf("check group grant: %w", err)
	}
	if group {
		r.logger.Debug("permission granted", "user_id", userID, "document_id", documentID, "level", level, "via", "group")
	}
	return group, nil
}

// ListPermissions returns the caller's live direct levels. Ownership and
// group grants are not expanded into the list.
func (r *permissionResolver) ListPermissions(ctx context.Context, userID, documentID string) ([]access.Level, error) {
	levels, err := r.store.ListLiveDirectLevels(ctx, userID, documentID)
	if err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}
	return levels, nil
}
