package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/ticket-tracker/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated          EventType = "ticket.created"
	EventTicketUpdated          EventType = "ticket.updated"
	EventTicketStatusChanged    EventType = "ticket.status_changed"
	EventTicketDeleted          EventType = "ticket.deleted"
	EventTemplateCreated        EventType = "template.created"
	EventTemplateUpdated        EventType = "template.updated"
	EventTemplateDeleted        EventType = "template.deleted"
	EventTemplateDefaultChanged EventType = "template.default_changed"
)

// AllEventTypes lists every event the services emit.
var AllEventTypes = []EventType{
	EventTicketCreated,
	EventTicketUpdated,
	EventTicketStatusChanged,
	EventTicketDeleted,
	EventTemplateCreated,
	EventTemplateUpdated,
	EventTemplateDeleted,
	EventTemplateDefaultChanged,
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	EntityID  string    `json:"entity_id"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(eventType EventType, entityID string, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		EntityID:  entityID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// TicketPayload summarizes a created or updated ticket.
type TicketPayload struct {
	TemplateID string              `json:"template_id"`
	Status     domain.TicketStatus `json:"status"`
	Title      string              `json:"title"`
	Tags       []string            `json:"tags"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TemplatePayload summarizes a template change.
type TemplatePayload struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	IsDefault bool   `json:"is_default"`
}
