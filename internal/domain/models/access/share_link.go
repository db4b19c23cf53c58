package access

import "time"

// ShareLink is a bearer-token capability granting Permission on one document
// to whoever presents Token.
type ShareLink struct {
	ID             string     `json:"id"`
	DocumentID     string     `json:"document_id"`
	Token          string     `json:"token"`
	CreatedBy      string     `json:"created_by"`
	Permission     Level      `json:"permission"`
	PasswordHash   *string    `json:"-"`
	MaxAccessCount *int       `json:"max_access_count,omitempty"`
	AccessCount    int        `json:"access_count"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// HasPassword reports whether redemption requires a password.
func (l *ShareLink) HasPassword() bool {
	return l.PasswordHash != nil && *l.PasswordHash != ""
}

// IsExpired reports whether the link is past its expiry at now.
func (l *ShareLink) IsExpired(now time.Time) bool {
	return l.ExpiresAt != nil && !l.ExpiresAt.After(now)
}

// IsExhausted reports whether the use cap has been reached.
func (l *ShareLink) IsExhausted() bool {
	return l.MaxAccessCount != nil && l.AccessCount >= *l.MaxAccessCount
}

// ShareLinkView is the JSON shape returned to link managers; it exposes
// whether a password is set without ever exposing the hash.
type ShareLinkView struct {
	*ShareLink
	PasswordProtected bool `json:"password_protected"`
}

// NewShareLinkView wraps a link for serialization.
func NewShareLinkView(l *ShareLink) ShareLinkView {
	return ShareLinkView{ShareLink: l, PasswordProtected: l.HasPassword()}
}

// Redemption is the result of successfully consuming one use of a link.
type Redemption struct {
	LinkID      string    `json:"link_id"`
	DocumentID  string    `json:"document_id"`
	Permission  Level     `json:"permission"`
	AccessCount int       `json:"access_count"`
	RedeemedAt  time.Time `json:"redeemed_at"`
}
