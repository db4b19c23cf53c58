package services

import (
	"context"

	"docvault/internal/domain/models/editor"
)

// EditorService bridges documents and the OnlyOffice document server
type EditorService interface {
	// BuildConfig returns a signed editor config; requires Read, Write elevates to edit mode
	BuildConfig(ctx context.Context, userID, userName, documentID string) (*editor.Config, error)

	// HandleCallback processes a document server callback. bearer is the raw
	// Authorization header token, if any.
	HandleCallback(ctx context.Context, documentID string, cb *editor.Callback, bearer string) (*editor.CallbackResponse, error)
}
