package dto

import (
	"time"

	"github.com/spec-kit/ticket-tracker/internal/domain"
	"github.com/spec-kit/ticket-tracker/internal/service"
)

// TicketRequest is the create and replace payload. Server-managed fields such as
// created_at and completed_at are accepted but ignored.
type TicketRequest struct {
	ID              string                `json:"id"`
	TemplateID      string                `json:"template_id"`
	TemplateVersion string                `json:"template_version"`
	Status          domain.TicketStatus   `json:"status"`
	Data            map[string]any        `json:"data"`
	Metadata        domain.TicketMetadata `json:"metadata"`
	Tags            []string              `json:"tags"`
}

// ToDomain builds the ticket the service validates.
func (r TicketRequest) ToDomain() *domain.Ticket {
	return &domain.Ticket{
		ID:              r.ID,
		TemplateID:      r.TemplateID,
		TemplateVersion: r.TemplateVersion,
		Status:          r.Status,
		Data:            r.Data,
		Metadata:        r.Metadata,
		Tags:            r.Tags,
	}
}

// UpdateStatusRequest payload for PATCH /tickets/:id/status.
type UpdateStatusRequest struct {
	Status domain.TicketStatus `json:"status"`
}

// BulkStatusRequest payload for POST /tickets/bulk/status.
type BulkStatusRequest struct {
	IDs    []string            `json:"ids"`
	Status domain.TicketStatus `json:"status"`
}

// BulkDeleteRequest payload for POST /tickets/bulk/delete.
type BulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

// TagRequest payload for POST /tickets/:id/tags.
type TagRequest struct {
	Tag string `json:"tag"`
}

// TicketResponse is a ticket plus the values lists and cards display.
type TicketResponse struct {
	domain.Ticket
	DisplayTitle       string `json:"display_title"`
	DisplayDescription string `json:"display_description,omitempty"`
	DisplayBlocker     string `json:"display_blocker,omitempty"`
}

// NewTicketResponse maps a ticket.
func NewTicketResponse(ticket *domain.Ticket) TicketResponse {
	return TicketResponse{
		Ticket:             *ticket,
		DisplayTitle:       ticket.Title(),
		DisplayDescription: ticket.Description(),
		DisplayBlocker:     ticket.Blocker(),
	}
}

// NewTicketResponses maps a slice, never returning nil.
func NewTicketResponses(tickets []domain.Ticket) []TicketResponse {
	out := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		out = append(out, NewTicketResponse(&tickets[i]))
	}
	return out
}

// BulkFailureResponse describes one id a bulk operation skipped.
type BulkFailureResponse struct {
	ID     string          `json:"id"`
	Ticket *TicketResponse `json:"ticket,omitempty"`
	Error  string          `json:"error"`
}

// BulkResultResponse summarizes a bulk operation.
type BulkResultResponse struct {
	Successful []TicketResponse      `json:"successful"`
	Failed     []BulkFailureResponse `json:"failed"`
}

// NewBulkResultResponse maps a service bulk result.
func NewBulkResultResponse(result *service.BulkResult) BulkResultResponse {
	resp := BulkResultResponse{
		Successful: NewTicketResponses(result.Successful),
		Failed:     make([]BulkFailureResponse, 0, len(result.Failed)),
	}
	for _, failure := range result.Failed {
		item := BulkFailureResponse{ID: failure.ID, Error: failure.Error}
		if failure.Ticket != nil {
			ticket := NewTicketResponse(failure.Ticket)
			item.Ticket = &ticket
		}
		resp.Failed = append(resp.Failed, item)
	}
	return resp
}

// HistoryResponse is one audit trail entry.
type HistoryResponse struct {
	ID         string                  `json:"id"`
	ChangeType domain.TicketChangeType `json:"change_type"`
	ChangedBy  string                  `json:"changed_by,omitempty"`
	OldValue   map[string]any          `json:"old_value"`
	NewValue   map[string]any          `json:"new_value"`
	CreatedAt  time.Time               `json:"created_at"`
}

// NewHistoryResponses maps history entries.
func NewHistoryResponses(entries []domain.TicketHistory) []HistoryResponse {
	out := make([]HistoryResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, HistoryResponse{
			ID:         entry.ID,
			ChangeType: entry.ChangeType,
			ChangedBy:  entry.ChangedBy,
			OldValue:   entry.OldValue,
			NewValue:   entry.NewValue,
			CreatedAt:  entry.CreatedAt,
		})
	}
	return out
}
