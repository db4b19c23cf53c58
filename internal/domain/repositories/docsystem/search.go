package docsystem

import (
	"context"

	"docvault/internal/domain/models/docsystem"
)

// SearchIndex is the full-text index collaborator. The index is a projection
// of the documents table and may lag behind it.
type SearchIndex interface {
	// Index inserts or replaces a document in the index
	Index(ctx context.Context, doc *docsystem.IndexedDocument) error

	// Remove deletes a document from the index; removing a missing id is not an error
	Remove(ctx context.Context, id string) error

	// Search returns hits the viewer is allowed to read
	Search(ctx context.Context, opts *docsystem.SearchOptions) (*docsystem.SearchResults, error)
}
