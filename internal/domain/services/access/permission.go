package access

import (
	"context"
	"time"

	"docvault/internal/domain/models/access"
)

// PermissionService manages explicit grants. Every method requires Admin on
// the document except MyPermissions.
type PermissionService interface {
	GrantPermission(ctx context.Context, req *GrantPermissionRequest) (*access.Grant, error)
	RevokePermission(ctx context.Context, req *RevokePermissionRequest) error
	ListPermissions(ctx context.Context, userID, documentID string) ([]access.Grant, error)

	GrantGroupPermission(ctx context.Context, req *GrantGroupPermissionRequest) (*access.GroupGrant, error)
	RevokeGroupPermission(ctx context.Context, req *RevokeGroupPermissionRequest) error
	ListGroupPermissions(ctx context.Context, userID, documentID string) ([]access.GroupGrant, error)

	// MyPermissions reports the caller's own standing on a document
	MyPermissions(ctx context.Context, userID, documentID string) (*access.EffectivePermissions, error)
}

// GrantPermissionRequest grants a level to a user
type GrantPermissionRequest struct {
	GrantedBy  string       `json:"-"` // Set by handler from auth context
	DocumentID string       `json:"-"` // Set by handler from the path
	UserID     string       `json:"user_id"`
	Permission access.Level `json:"permission"`
	ExpiresAt  *time.Time   `json:"expires_at,omitempty"`
}

// RevokePermissionRequest removes one (document, user, level) triple
type RevokePermissionRequest struct {
	RequestedBy  string
	DocumentID   string
	TargetUserID string
	Permission   string
}

// GrantGroupPermissionRequest grants a level to a group
type GrantGroupPermissionRequest struct {
	GrantedBy  string       `json:"-"`
	DocumentID string       `json:"-"`
	GroupID    string       `json:"group_id"`
	Permission access.Level `json:"permission"`
	ExpiresAt  *time.Time   `json:"expires_at,omitempty"`
}

// RevokeGroupPermissionRequest removes one (document, group, level) triple
type RevokeGroupPermissionRequest struct {
	RequestedBy string
	DocumentID  string
	GroupID     string
	Permission  string
}
