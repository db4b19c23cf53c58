package docsystem

import (
	"context"

	"docvault/internal/domain/models/docsystem"
)

// VersionRepository stores immutable version history
type VersionRepository interface {
	// Append inserts a version row
	Append(ctx context.Context, v *docsystem.DocumentVersion) error

	// ListByDocument returns the history newest first
	ListByDocument(ctx context.Context, documentID string) ([]docsystem.DocumentVersion, error)
}
