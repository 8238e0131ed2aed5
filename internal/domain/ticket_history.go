package domain

import (
	"time"

	"github.com/google/uuid"
)

// TicketChangeType captures what changed in a history entry.
type TicketChangeType string

const (
	ChangeTypeStatus TicketChangeType = "STATUS_CHANGE"
	ChangeTypeTags   TicketChangeType = "TAGS_CHANGE"
)

// TicketHistory is an immutable audit trail entry.
type TicketHistory struct {
	ID         string           `json:"id"`
	TicketID   string           `json:"ticket_id"`
	ChangedBy  string           `json:"changed_by,omitempty"`
	ChangeType TicketChangeType `json:"change_type"`
	OldValue   map[string]any   `json:"old_value"`
	NewValue   map[string]any   `json:"new_value"`
	CreatedAt  time.Time        `json:"created_at"`
}

// NewTicketHistory stamps an entry with the current millisecond and a
// version 7 id. V7 ids increase within the process, so entries written in
// the same millisecond still list in the order they were recorded.
func NewTicketHistory(ticketID, changedBy string, changeType TicketChangeType, oldValue, newValue map[string]any) *TicketHistory {
	return &TicketHistory{
		ID:         newHistoryID(),
		TicketID:   ticketID,
		ChangedBy:  changedBy,
		ChangeType: changeType,
		OldValue:   oldValue,
		NewValue:   newValue,
		CreatedAt:  time.Now().UTC().Truncate(time.Millisecond),
	}
}

func newHistoryID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
