package docsystem

import (
	"context"
	"io"
	"time"

	"docvault/internal/domain/models/docsystem"
)

// DocumentService handles document and folder business logic.
// Every method that targets an existing document goes through the Gateway.
type DocumentService interface {
	// CreateFolder creates a folder, requiring Write on the parent if one is given
	CreateFolder(ctx context.Context, req *CreateFolderRequest) (*docsystem.Document, error)

	// UploadDocument stores the blob and creates the document row
	UploadDocument(ctx context.Context, req *UploadDocumentRequest) (*docsystem.Document, error)

	// GetDocument requires Read
	GetDocument(ctx context.Context, userID, documentID string) (*docsystem.Document, error)

	// ListDocuments lists the caller's own documents in a folder (or the root)
	ListDocuments(ctx context.Context, req *ListDocumentsRequest) ([]docsystem.Document, error)

	// UpdateDocument changes metadata and requires Write
	UpdateDocument(ctx context.Context, userID, documentID string, req *UpdateDocumentRequest) (*docsystem.Document, error)

	// MoveDocument requires Write on the document and on the target folder
	MoveDocument(ctx context.Context, userID, documentID string, req *MoveDocumentRequest) (*docsystem.Document, error)

	// DownloadDocument returns a presigned URL and requires Read
	DownloadDocument(ctx context.Context, userID, documentID string) (*DownloadLink, error)

	// ListVersions returns version history and requires Read
	ListVersions(ctx context.Context, userID, documentID string) ([]docsystem.DocumentVersion, error)

	// ListAccessLogs returns recent audit entries and requires Admin
	ListAccessLogs(ctx context.Context, userID, documentID string) ([]docsystem.AccessLog, error)

	// SearchDocuments returns hits filtered to documents the caller can read
	SearchDocuments(ctx context.Context, userID string, req *SearchDocumentsRequest) (*docsystem.SearchResults, error)
}

// CreateFolderRequest represents a folder creation request
type CreateFolderRequest struct {
	UserID         string  `json:"-"` // Set by handler from auth context, not from request body
	Name           string  `json:"name"`
	Description    *string `json:"description,omitempty"`
	ParentFolderID *string `json:"parent_folder_id,omitempty"`
}

// UploadDocumentRequest is built by the handler from a multipart form
type UploadDocumentRequest struct {
	UserID         string
	FileName       string
	ContentType    string
	Size           int64
	Content        io.Reader
	ParentFolderID *string
	Description    *string
	Tags           []string
}

// ListDocumentsRequest represents a folder listing request
type ListDocumentsRequest struct {
	UserID   string
	FolderID *string
	Limit    int
	Offset   int
}

// UpdateDocumentRequest represents a metadata update; at least one field is required
type UpdateDocumentRequest struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// MoveDocumentRequest moves a document; nil target means the root
type MoveDocumentRequest struct {
	TargetFolderID *string `json:"target_folder_id"`
}

// DownloadLink is a presigned URL for a document's current blob
type DownloadLink struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SearchDocumentsRequest represents a search request
type SearchDocumentsRequest struct {
	Query    string `json:"q"`
	OwnerID  string `json:"owner_id,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
	IsFolder *bool  `json:"is_folder,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}
