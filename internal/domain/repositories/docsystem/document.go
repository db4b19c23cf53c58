package docsystem

import (
	"context"

	"docvault/internal/domain/models/docsystem"
)

// DocumentRepository defines data access operations for documents and folders
type DocumentRepository interface {
	// Create inserts a document or folder, filling ID and timestamps
	Create(ctx context.Context, doc *docsystem.Document) error

	// GetByID retrieves a live (not soft-deleted) document
	GetByID(ctx context.Context, id string) (*docsystem.Document, error)

	// GetByIDIncludingDeleted retrieves a document regardless of deleted_at
	GetByIDIncludingDeleted(ctx context.Context, id string) (*docsystem.Document, error)

	// GetOwnerID returns the owner of a live document
	GetOwnerID(ctx context.Context, id string) (string, error)

	// List lists live documents under a folder (or the root) for one owner
	List(ctx context.Context, opts docsystem.ListOptions) ([]docsystem.Document, error)

	// UpdateMetadata changes name, description and/or tags
	UpdateMetadata(ctx context.Context, id string, update *docsystem.MetadataUpdate) (*docsystem.Document, error)

	// Move sets parent_folder_id (nil = root)
	Move(ctx context.Context, id string, parentFolderID *string) (*docsystem.Document, error)

	// SoftDelete sets deleted_at
	SoftDelete(ctx context.Context, id string) error

	// ApplyNewVersion points the document at a new blob and bumps version by
	// one, only if the stored version still equals expectedVersion.
	// Returns ErrConflict when another writer got there first.
	ApplyNewVersion(ctx context.Context, id string, expectedVersion int, filePath string, fileSize int64) (*docsystem.Document, error)
}
