package docsystem

import (
	"time"
)

// FolderMimeType is the mime type stored for folder rows.
const FolderMimeType = "inode/directory"

// Document is a file or folder in the tree. Folders are documents with
// IsFolder set and no blob behind them.
type Document struct {
	ID             string                 `json:"id" db:"id"`
	Name           string                 `json:"name" db:"name"`
	Description    *string                `json:"description,omitempty" db:"description"`
	FilePath       string                 `json:"file_path" db:"file_path"` // Storage key, empty for folders
	FileSize       int64                  `json:"file_size" db:"file_size"`
	MimeType       string                 `json:"mime_type" db:"mime_type"`
	Version        int                    `json:"version" db:"version"`
	Status         string                 `json:"status" db:"status"`
	OwnerID        string                 `json:"owner_id" db:"owner_id"`
	ParentFolderID *string                `json:"parent_folder_id" db:"parent_folder_id"` // NULL = root level
	IsFolder       bool                   `json:"is_folder" db:"is_folder"`
	Tags           []string               `json:"tags" db:"tags"`
	Metadata       map[string]interface{} `json:"metadata,omitempty" db:"metadata"`
	CreatedAt      time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at" db:"updated_at"`
	DeletedAt      *time.Time             `json:"deleted_at,omitempty" db:"deleted_at"`
}

// DocumentStatusActive is the status of every live document.
const DocumentStatusActive = "active"

// ListOptions filters a folder listing.
type ListOptions struct {
	OwnerID        string
	ParentFolderID *string // nil = root
	Limit          int
	Offset         int
}

// MetadataUpdate carries the optional fields of a metadata update.
// A nil field is left unchanged.
type MetadataUpdate struct {
	Name        *string
	Description *string
	Tags        []string
	TagsSet     bool
}

// IsEmpty reports whether no field would change.
func (u *MetadataUpdate) IsEmpty() bool {
	return u.Name == nil && u.Description == nil && !u.TagsSet
}
