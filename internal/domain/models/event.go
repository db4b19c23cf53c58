package models

import "time"

// EventType is the routing key of a domain event
type EventType string

const (
	EventDocumentDeleted        EventType = "document.deleted"
	EventDocumentVersionCreated EventType = "document.version_created"
	EventPermissionGranted      EventType = "permission.granted"
	EventPermissionRevoked      EventType = "permission.revoked"
	EventShareLinkCreated       EventType = "share.created"
	EventShareLinkRedeemed      EventType = "share.redeemed"
	EventShareLinkRevoked       EventType = "share.revoked"
)

// Event is published after the change it describes has been committed.
type Event struct {
	Type       EventType         `json:"type"`
	DocumentID string            `json:"document_id"`
	ActorID    string            `json:"actor_id,omitempty"` // empty for anonymous or server-to-server
	Attributes map[string]string `json:"attributes,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// NewEvent stamps an event with the current time
func NewEvent(t EventType, documentID, actorID string, attrs map[string]string) *Event {
	return &Event{
		Type:       t,
		DocumentID: documentID,
		ActorID:    actorID,
		Attributes: attrs,
		OccurredAt: time.Now().UTC(),
	}
}
