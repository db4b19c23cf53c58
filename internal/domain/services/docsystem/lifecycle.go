package docsystem

import (
	"context"
	"io"

	"docvault/internal/domain/models/docsystem"
)

// LifecycleService owns the two document mutations that combine an
// authorization decision with external side effects.
type LifecycleService interface {
	// AcceptNewVersion stores content as the document's next version.
	// The version row and the document update commit together; the old blob
	// is removed only after that commit, best-effort.
	AcceptNewVersion(ctx context.Context, req *NewVersionRequest) (*docsystem.Document, error)

	// SoftDelete requires Delete, marks the document deleted, drops it from
	// search and removes its blob unless it is a folder.
	SoftDelete(ctx context.Context, userID, documentID string) error
}

// NewVersionRequest carries a blob handed over by the editor integration.
// There is no interactive principal; EditorID is recorded when known.
type NewVersionRequest struct {
	DocumentID string
	EditorID   string
	Content    io.Reader
	Size       int64 // -1 when unknown
	Comment    string
}
