package docsystem

import (
	"fmt"
	"time"
)

// SearchField defines which indexed fields to search
type SearchField string

const (
	// SearchFieldName matches rank 2x higher than other fields
	SearchFieldName        SearchField = "name"
	SearchFieldDescription SearchField = "description"
	SearchFieldTags        SearchField = "tags"
)

// Default search configuration values
const (
	DefaultSearchLimit = 50
	MaxSearchLimit     = 100
)

// IndexedDocument is the projection of a Document kept in the search index.
type IndexedDocument struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	MimeType    string    `json:"mime_type"`
	OwnerID     string    `json:"owner_id"`
	IsFolder    bool      `json:"is_folder"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewIndexedDocument projects a document for indexing.
func NewIndexedDocument(doc *Document) *IndexedDocument {
	tags := doc.Tags
	if tags == nil {
		tags = []string{}
	}
	return &IndexedDocument{
		ID:          doc.ID,
		Name:        doc.Name,
		Description: doc.Description,
		MimeType:    doc.MimeType,
		OwnerID:     doc.OwnerID,
		IsFolder:    doc.IsFolder,
		Tags:        tags,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}
}

// SearchOptions configures a search request
type SearchOptions struct {
	// Query is the search string (required)
	Query string

	// ViewerID restricts hits to documents this user may read.
	// Set by the service from the authenticated principal, never from input.
	ViewerID string

	// Optional filters
	OwnerID  string
	MimeType string
	IsFolder *bool

	// Fields to match; default all
	Fields []SearchField

	// Pagination
	Limit  int
	Offset int
}

// ApplyDefaults fills in default values for unset fields
func (opts *SearchOptions) ApplyDefaults() {
	if len(opts.Fields) == 0 {
		opts.Fields = []SearchField{SearchFieldName, SearchFieldDescription, SearchFieldTags}
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultSearchLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
}

// Validate checks that required fields are set and values are reasonable
func (opts *SearchOptions) Validate() error {
	if opts.Query == "" {
		return fmt.Errorf("search query cannot be empty")
	}
	if opts.ViewerID == "" {
		return fmt.Errorf("viewer is required")
	}
	if opts.Limit > MaxSearchLimit {
		return fmt.Errorf("limit cannot exceed %d (requested: %d)", MaxSearchLimit, opts.Limit)
	}
	for _, field := range opts.Fields {
		switch field {
		case SearchFieldName, SearchFieldDescription, SearchFieldTags:
		default:
			return fmt.Errorf("invalid search field: %q (supported: name, description, tags)", field)
		}
	}
	return nil
}

// SearchResult represents a single hit with its ts_rank score
type SearchResult struct {
	Document IndexedDocument `json:"document"`
	Score    float64         `json:"score"`
}

// SearchResults contains the hits plus pagination metadata
type SearchResults struct {
	Results    []SearchResult `json:"results"`
	TotalCount int            `json:"total_count"`
	HasMore    bool           `json:"has_more"`
	Offset     int            `json:"offset"`
	Limit      int            `json:"limit"`
}

// NewSearchResults creates a SearchResults with calculated HasMore flag
func NewSearchResults(results []SearchResult, totalCount int, opts *SearchOptions) *SearchResults {
	return &SearchResults{
		Results:    results,
		TotalCount: totalCount,
		HasMore:    (opts.Offset + len(results)) < totalCount,
		Offset:     opts.Offset,
		Limit:      opts.Limit,
	}
}
