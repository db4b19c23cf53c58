package config

import "time"

const (
	// MaxDocumentNameLength is the maximum length for document and folder names.
	MaxDocumentNameLength = 255

	// MaxDescriptionLength caps free-text descriptions.
	MaxDescriptionLength = 2000

	// MaxTags is the number of tags a document may carry.
	MaxTags = 50

	// MaxTagLength caps a single tag.
	MaxTagLength = 64

	// MaxUploadSize is the largest accepted upload (100MB).
	MaxUploadSize = 100 << 20

	// DownloadURLTTL is how long a presigned download URL stays valid.
	DownloadURLTTL = time.Hour

	// DefaultPageSize applies to listings without an explicit limit.
	DefaultPageSize = 50

	// MaxPageSize caps listing limits.
	MaxPageSize = 200

	// AccessLogPageSize is the number of audit entries returned per request.
	AccessLogPageSize = 100

	// ShareTokenBytes is the entropy of a share token before encoding (256 bits).
	ShareTokenBytes = 32

	// MinSharePasswordLength is enforced when a password is set on a link.
	MinSharePasswordLength = 4

	// EditorDownloadTimeout bounds fetching a saved file from the document server.
	EditorDownloadTimeout = 2 * time.Minute
)
