package docsystem

import (
	"context"
	"time"
)

// AccessLog is one audit entry. UserID is nil for anonymous share-link access.
type AccessLog struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	UserID     *string   `json:"user_id,omitempty"`
	Action     string    `json:"action"`
	IPAddress  *string   `json:"ip_address,omitempty"`
	UserAgent  *string   `json:"user_agent,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// RequestMeta carries the caller details recorded in access logs.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

type requestMetaKey struct{}

// WithRequestMeta stores caller details for access logging
func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFrom returns the caller details stored in ctx, if any
func RequestMetaFrom(ctx context.Context) RequestMeta {
	meta, _ := ctx.Value(requestMetaKey{}).(RequestMeta)
	return meta
}
