// Package audit records the best-effort side effects of document operations:
// access log rows and domain events. Neither ever fails the calling request.
package audit

import (
	"context"
	"log/slog"

	"docvault/internal/domain/models"
	"docvault/internal/domain/models/docsystem"
	docsysRepo "docvault/internal/domain/repositories/docsystem"
	"docvault/internal/domain/services"
)

// Recorder appends access logs and publishes events
type Recorder struct {
	logs      docsysRepo.AccessLogRepository
	publisher services.EventPublisher
	logger    *slog.Logger
}

// NewRecorder creates a recorder. publisher may be nil.
func NewRecorder(logs docsysRepo.AccessLogRepository, publisher services.EventPublisher, logger *slog.Logger) *Recorder {
	return &Recorder{logs: logs, publisher: publisher, logger: logger}
}

// Access appends an access log row for userID (empty = anonymous).
// Caller details come from the request meta stored in ctx.
func (r *Recorder) Access(ctx context.Context, documentID, userID, action string) {
	entry := &docsystem.AccessLog{
		DocumentID: documentID,
		Action:     action,
	}
	if userID != "" {
		entry.UserID = &userID
	}

	meta := docsystem.RequestMetaFrom(ctx)
	if meta.IPAddress != "" {
		entry.IPAddress = &meta.IPAddress
	}
	if meta.UserAgent != "" {
		entry.UserAgent = &meta.UserAgent
	}

	// Detached from the request ctx so a client disconnect doesn't drop the row
	if err := r.logs.Append(context.WithoutCancel(ctx), entry); err != nil {
		r.logger.Warn("failed to write access log",
			"document_id", documentID,
			"action", action,
			"error", err,
		)
	}
}

// Publish emits an event built from its parts
func (r *Recorder) Publish(ctx context.Context, t models.EventType, documentID, actorID string, attrs map[string]string) {
	if r.publisher == nil {
		return
	}
	event := models.NewEvent(t, documentID, actorID, attrs)
	if err := r.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		r.logger.Warn("failed to publish event",
			"type", t,
			"document_id", documentID,
			"error", err,
		)
	}
}
