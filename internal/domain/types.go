package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusDraft      TicketStatus = "draft"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusCompleted  TicketStatus = "completed"
	TicketStatusArchived   TicketStatus = "archived"
)

// TicketStatuses lists every known status in lifecycle order.
var TicketStatuses = []TicketStatus{
	TicketStatusDraft,
	TicketStatusInProgress,
	TicketStatusCompleted,
	TicketStatusArchived,
}

// IsValid reports whether s is one of the known statuses.
func (s TicketStatus) IsValid() bool {
	for _, known := range TicketStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// FieldType enumerates the input kinds a template field can have.
type FieldType string

const (
	FieldTypeText        FieldType = "text"
	FieldTypeTextarea    FieldType = "textarea"
	FieldTypeNumber      FieldType = "number"
	FieldTypeDate        FieldType = "date"
	FieldTypeSelect      FieldType = "select"
	FieldTypeMultiSelect FieldType = "multiselect"
	FieldTypeCheckbox    FieldType = "checkbox"
	FieldTypeURL         FieldType = "url"
	FieldTypeEmail       FieldType = "email"
)

// IsValid reports whether t is one of the known field types.
func (t FieldType) IsValid() bool {
	switch t {
	case FieldTypeText, FieldTypeTextarea, FieldTypeNumber, FieldTypeDate, FieldTypeSelect,
		FieldTypeMultiSelect, FieldTypeCheckbox, FieldTypeURL, FieldTypeEmail:
		return true
	}
	return false
}

// FieldOption is a selectable value for select-like fields.
type FieldOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// FieldValidation holds optional input constraints for a field.
type FieldValidation struct {
	MinLength *int     `json:"min_length,omitempty"`
	MaxLength *int     `json:"max_length,omitempty"`
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
	Pattern   string   `json:"pattern,omitempty"`
	Message   string   `json:"message,omitempty"`
}

// Field is a single typed input slot within a Section.
type Field struct {
	ID           string           `json:"id"`
	Label        string           `json:"label"`
	Type         FieldType        `json:"type"`
	Required     bool             `json:"required"`
	Placeholder  string           `json:"placeholder,omitempty"`
	HelpText     string           `json:"help_text,omitempty"`
	Options      []FieldOption    `json:"options,omitempty"`
	Validation   *FieldValidation `json:"validation,omitempty"`
	DefaultValue any              `json:"default_value,omitempty"`
	Order        int              `json:"order"`
}

// Section is a named, ordered group of fields within a Template.
type Section struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Fields      []Field `json:"fields"`
	Order       int     `json:"order"`
}

// SectionPatch carries the optional changes accepted by Template.UpdateSection.
type SectionPatch struct {
	Title       *string
	Description *string
	Order       *int
}

// TicketMetadata carries who worked a ticket and how long it took.
type TicketMetadata struct {
	Dev        string `json:"dev"`
	Estimate   string `json:"estimate,omitempty"`
	ActualTime string `json:"actual_time,omitempty"`
	Priority   string `json:"priority,omitempty"`
}

// now returns the current time at the precision the store keeps.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
