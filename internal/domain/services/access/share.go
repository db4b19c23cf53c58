package access

import (
	"context"
	"time"

	"docvault/internal/domain/models/access"
	"docvault/internal/domain/models/docsystem"
)

// ShareService runs the share-link lifecycle
type ShareService interface {
	// CreateShareLink requires Share on the document
	CreateShareLink(ctx context.Context, req *CreateShareLinkRequest) (*access.ShareLink, error)

	// ListShareLinks requires Share on the document
	ListShareLinks(ctx context.Context, userID, documentID string) ([]access.ShareLink, error)

	// RevokeShareLink is allowed for the link's creator or an Admin of the document
	RevokeShareLink(ctx context.Context, userID, documentID, shareID string) error

	// RedeemShareLink consumes one use of a link. No principal is involved.
	RedeemShareLink(ctx context.Context, req *RedeemShareLinkRequest) (*SharedDocument, error)
}

// CreateShareLinkRequest represents a share link creation request
type CreateShareLinkRequest struct {
	UserID         string       `json:"-"`
	DocumentID     string       `json:"-"`
	Permission     access.Level `json:"permission"`
	Password       *string      `json:"password,omitempty"`
	MaxAccessCount *int         `json:"max_access_count,omitempty"`
	ExpiresAt      *time.Time   `json:"expires_at,omitempty"`
}

// RedeemShareLinkRequest presents a token and an optional password
type RedeemShareLinkRequest struct {
	Token    string  `json:"-"`
	Password *string `json:"password,omitempty"`
}

// SharedDocument is what a redeemer receives
type SharedDocument struct {
	Redemption  access.Redemption   `json:"redemption"`
	Document    *docsystem.Document `json:"document"`
	DownloadURL string              `json:"download_url,omitempty"`
}
