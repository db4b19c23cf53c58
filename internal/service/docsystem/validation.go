package docsystem

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"docvault/internal/config"
	"docvault/internal/domain"
	models "docvault/internal/domain/models/docsystem"
	docsysSvc "docvault/internal/domain/services/docsystem"
)

var noSlash = regexp.MustCompile(`^[^/\\]+$`)

func nameRules() []validation.Rule {
	return []validation.Rule{
		validation.Length(1, config.MaxDocumentNameLength),
		validation.Match(noSlash).Error("name cannot contain slashes"),
	}
}

var tagRules = []validation.Rule{
	validation.Length(0, config.MaxTags),
	validation.Each(validation.Length(1, config.MaxTagLength)),
}

func validateCreateFolderRequest(req *docsysSvc.CreateFolderRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Name, append([]validation.Rule{validation.Required}, nameRules()...)...),
		validation.Field(&req.Description, validation.Length(0, config.MaxDescriptionLength)),
	)
}

func validateUploadRequest(req *docsysSvc.UploadDocumentRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.FileName, append([]validation.Rule{validation.Required}, nameRules()...)...),
		validation.Field(&req.Content, validation.NotNil),
		validation.Field(&req.Size, validation.Max(int64(config.MaxUploadSize)).Error(
			fmt.Sprintf("file exceeds maximum size of %d bytes", config.MaxUploadSize),
		)),
		validation.Field(&req.Description, validation.Length(0, config.MaxDescriptionLength)),
		validation.Field(&req.Tags, tagRules...),
	)
}

func validateUpdateRequest(req *docsysSvc.UpdateDocumentRequest) error {
	// At least one field must be provided
	if req.Name == nil && req.Description == nil && req.Tags == nil {
		return fmt.Errorf("at least one field must be provided")
	}

	return validation.ValidateStruct(req,
		validation.Field(&req.Name, append([]validation.Rule{validation.NilOrNotEmpty}, nameRules()...)...),
		validation.Field(&req.Description, validation.Length(0, config.MaxDescriptionLength)),
		validation.Field(&req.Tags, tagRules...),
	)
}

func validateSearchRequest(req *docsysSvc.SearchDocumentsRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Query, validation.Required, validation.Length(1, 500)),
		validation.Field(&req.Limit, validation.Min(0), validation.Max(models.MaxSearchLimit)),
		validation.Field(&req.Offset, validation.Min(0)),
	)
}

func requireUser(userID string) error {
	if userID == "" {
		return &domain.UnauthorizedError{Message: "authentication required"}
	}
	return nil
}

// normalizeFolderID treats an empty folder id as the root
func normalizeFolderID(id *string) *string {
	if id == nil || strings.TrimSpace(*id) == "" {
		return nil
	}
	return id
}

// normalizeTags trims and de-duplicates tags, dropping empty ones
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = config.DefaultPageSize
	}
	if limit > config.MaxPageSize {
		limit = config.MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// countingReader records how many bytes were read through it
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
