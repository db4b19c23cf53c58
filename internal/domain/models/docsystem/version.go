package docsystem

import "time"

// DocumentVersion is an immutable history entry. A new row is appended on
// every accepted editor save; rows are never deleted.
type DocumentVersion struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	Version    int       `json:"version"`
	FilePath   string    `json:"file_path"`
	FileSize   int64     `json:"file_size"`
	Comment    *string   `json:"comment,omitempty"`
	CreatedBy  string    `json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewBlob describes a blob that has already been written to storage and is
// about to become the document's current version.
type NewBlob struct {
	FilePath  string
	FileSize  int64
	Comment   string
	CreatedBy string
}
