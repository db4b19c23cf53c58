package access

import "time"

// Grant is a direct permission given to one user on one document.
// Identity is (DocumentID, UserID, Permission); re-granting inserts a new row.
type Grant struct {
	ID         string     `json:"id"`
	DocumentID string     `json:"document_id"`
	UserID     string     `json:"user_id"`
	Permission Level      `json:"permission"`
	GrantedBy  string     `json:"granted_by"`
	GrantedAt  time.Time  `json:"granted_at"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"` // nil = never expires
}

// GroupGrant is a permission given to every member of a group.
type GroupGrant struct {
	ID         string     `json:"id"`
	DocumentID string     `json:"document_id"`
	GroupID    string     `json:"group_id"`
	Permission Level      `json:"permission"`
	GrantedBy  string     `json:"granted_by"`
	GrantedAt  time.Time  `json:"granted_at"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

// IsLive reports whether a grant with the given expiry is usable at now.
func IsLive(expiresAt *time.Time, now time.Time) bool {
	return expiresAt == nil || expiresAt.After(now)
}

// EffectivePermissions describes what the caller holds on a document.
type EffectivePermissions struct {
	DocumentID string  `json:"document_id"`
	IsOwner    bool    `json:"is_owner"`
	Levels     []Level `json:"permissions"`
}
