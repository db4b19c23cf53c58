package docsystem

import (
	"context"

	"docvault/internal/domain/models/docsystem"
)

// AccessLogRepository appends and reads audit entries
type AccessLogRepository interface {
	Append(ctx context.Context, entry *docsystem.AccessLog) error
	ListByDocument(ctx context.Context, documentID string, limit int) ([]docsystem.AccessLog, error)
}
