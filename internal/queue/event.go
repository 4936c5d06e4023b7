// Package queue defines message payloads exchanged over the message broker
// and the publisher that sends them.
package queue

import "time"

// DocumentEventsQueue is the durable queue lifecycle events are published to.
const DocumentEventsQueue = "document.events"

// Event types carried in DocumentEvent.Type.
const (
	EventDocumentCreated       = "document.created"
	EventDocumentStatusChanged = "document.status_changed"
	EventDocumentDeleted       = "document.deleted"
)

// DocumentEvent is published whenever a document is created, has its status
// fields changed, or is deleted.  It carries enough for downstream consumers
// to react without querying the primary database.
type DocumentEvent struct {
	Type            string    `json:"type"`
	DocumentID      string    `json:"document_id"`
	Title           string    `json:"title"`
	ActorID         string    `json:"actor_id"`
	ActorRole       string    `json:"actor_role"`
	Status          string    `json:"status,omitempty"`
	IngestionStatus string    `json:"ingestion_status,omitempty"`
	PrevStatus      string    `json:"prev_status,omitempty"`
	PrevIngestion   string    `json:"prev_ingestion_status,omitempty"`
	OccurredAt      time.Time `json:"occurred_at"`
}
