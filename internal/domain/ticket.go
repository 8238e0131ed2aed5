package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/spec-kit/ticket-tracker/pkg/util/errorutil"
)

// Ticket is data filled in against a specific template version.
type Ticket struct {
	ID              string         `json:"id"`
	TemplateID      string         `json:"template_id"`
	TemplateVersion string         `json:"template_version"`
	Status          TicketStatus   `json:"status"`
	Data            map[string]any `json:"data"`
	Metadata        TicketMetadata `json:"metadata"`
	Tags            []string       `json:"tags"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	CompletedAt     *time.Time     `json:"completed_at,omitempty"`
}

// RequiredFieldsResult reports which required template fields a ticket leaves empty.
type RequiredFieldsResult struct {
	IsValid       bool    `json:"is_valid"`
	MissingFields []Field `json:"missing_fields"`
}

// NewTicket builds a draft ticket pinned to the template's current version.
func NewTicket(template *Template, data map[string]any, metadata TicketMetadata) *Ticket {
	ts := now()
	return &Ticket{
		ID:              uuid.NewString(),
		TemplateID:      template.ID,
		TemplateVersion: template.Version,
		Status:          TicketStatusDraft,
		Data:            data,
		Metadata:        metadata,
		Tags:            []string{},
		CreatedAt:       ts,
		UpdatedAt:       ts,
	}
}

// Touch bumps UpdatedAt.
func (t *Ticket) Touch() {
	t.UpdatedAt = now()
}

// Validate checks the ticket invariants and returns the first violation found.
func (t *Ticket) Validate() error {
	if strings.TrimSpace(t.TemplateID) == "" {
		return invalid("Template ID is required")
	}
	if strings.TrimSpace(t.TemplateVersion) == "" {
		return invalid("Template version is required")
	}
	if len(t.Data) == 0 {
		return invalid("Ticket data is required")
	}
	if strings.TrimSpace(t.Metadata.Dev) == "" {
		return invalid("Developer name is required")
	}
	if !t.Status.IsValid() {
		return invalid(fmt.Sprintf("Invalid ticket status: %s", t.Status))
	}
	if t.Status == TicketStatusCompleted && t.CompletedAt == nil {
		return invalid("Completed tickets must have completion date")
	}
	return nil
}

// IsCompleted reports whether the ticket is in the completed state.
func (t *Ticket) IsCompleted() bool {
	return t.Status == TicketStatusCompleted
}

// CanBeArchived reports whether Archive would succeed.
func (t *Ticket) CanBeArchived() bool {
	return t.Status == TicketStatusCompleted
}

// MarkAsCompleted moves a draft or in-progress ticket to completed.
func (t *Ticket) MarkAsCompleted() error {
	switch t.Status {
	case TicketStatusCompleted:
		return apperrors.NewInvalidOperation("Ticket is already completed", nil)
	case TicketStatusArchived:
		return apperrors.NewInvalidOperation("Archived tickets cannot be modified", nil)
	}
	ts := now()
	t.Status = TicketStatusCompleted
	t.CompletedAt = &ts
	t.UpdatedAt = ts
	return nil
}

// MarkAsInProgress moves a draft ticket to in_progress.
func (t *Ticket) MarkAsInProgress() error {
	switch t.Status {
	case TicketStatusCompleted:
		return apperrors.NewInvalidOperation("Completed tickets cannot be moved back to in progress", nil)
	case TicketStatusArchived:
		return apperrors.NewInvalidOperation("Archived tickets cannot be modified", nil)
	case TicketStatusInProgress:
		return apperrors.NewInvalidOperation("Ticket is already in progress", nil)
	}
	t.Status = TicketStatusInProgress
	t.Touch()
	return nil
}

// Archive moves a completed ticket to archived; archived is terminal.
func (t *Ticket) Archive() error {
	if !t.CanBeArchived() {
		return apperrors.NewInvalidOperation("Only completed tickets can be archived", nil)
	}
	t.Status = TicketStatusArchived
	t.Touch()
	return nil
}

// TransitionTo routes a requested status through the lifecycle methods above.
// Moving to the current draft status is a no-op; every other draft request is refused.
func (t *Ticket) TransitionTo(status TicketStatus) error {
	switch status {
	case TicketStatusCompleted:
		return t.MarkAsCompleted()
	case TicketStatusInProgress:
		return t.MarkAsInProgress()
	case TicketStatusArchived:
		return t.Archive()
	case TicketStatusDraft:
		if t.Status == TicketStatusDraft {
			return nil
		}
		return apperrors.NewInvalidOperation("Tickets cannot be moved back to draft", nil)
	default:
		return invalid(fmt.Sprintf("Invalid ticket status: %s", status))
	}
}

// AddTag adds a trimmed, lower-cased tag; adding an existing tag is a no-op.
func (t *Ticket) AddTag(tag string) error {
	normalized := NormalizeTag(tag)
	if normalized == "" {
		return invalid("Tag cannot be empty")
	}
	for _, existing := range t.Tags {
		if existing == normalized {
			return nil
		}
	}
	t.Tags = append(t.Tags, normalized)
	t.Touch()
	return nil
}

// RemoveTag removes a tag if present.
func (t *Ticket) RemoveTag(tag string) {
	normalized := NormalizeTag(tag)
	for i, existing := range t.Tags {
		if existing == normalized {
			t.Tags = append(t.Tags[:i], t.Tags[i+1:]...)
			t.Touch()
			return
		}
	}
}

// NormalizeTag trims and lower-cases a tag.
func NormalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

// NormalizeTags normalizes, drops empties and de-duplicates while keeping order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		normalized := NormalizeTag(tag)
		if normalized == "" {
			continue
		}
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	return out
}

// ValidateRequiredFields lists the template's required fields that have no value.
func (t *Ticket) ValidateRequiredFields(template *Template) RequiredFieldsResult {
	missing := []Field{}
	for _, field := range template.RequiredFields() {
		if isEmptyValue(t.Data[field.ID]) {
			missing = append(missing, field)
		}
	}
	return RequiredFieldsResult{IsValid: len(missing) == 0, MissingFields: missing}
}

func isEmptyValue(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case []any:
		return len(val) == 0
	case []string:
		return len(val) == 0
	default:
		return false
	}
}
