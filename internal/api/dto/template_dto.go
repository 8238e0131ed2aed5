package dto

import (
	"github.com/spec-kit/ticket-tracker/internal/domain"
)

// TemplateRequest is the create and replace payload.
type TemplateRequest struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Version     string           `json:"version"`
	IsDefault   bool             `json:"is_default"`
	Sections    []domain.Section `json:"sections"`
	Author      string           `json:"author"`
}

// ToDomain builds the template the service validates.
func (r TemplateRequest) ToDomain() *domain.Template {
	return &domain.Template{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Version:     r.Version,
		IsDefault:   r.IsDefault,
		Sections:    r.Sections,
		Author:      r.Author,
	}
}

// DuplicateTemplateRequest payload for POST /templates/:id/duplicate.
type DuplicateTemplateRequest struct {
	Name string `json:"name"`
}

// TemplateResponse is a template plus its field counts.
type TemplateResponse struct {
	domain.Template
	FieldCount         int `json:"field_count"`
	RequiredFieldCount int `json:"required_field_count"`
}

// NewTemplateResponse adds field counts to a template.
func NewTemplateResponse(template *domain.Template) TemplateResponse {
	return TemplateResponse{
		Template:           *template,
		FieldCount:         template.TotalFieldCount(),
		RequiredFieldCount: template.RequiredFieldCount(),
	}
}

func NewTemplateResponses(templates []domain.Template) []TemplateResponse {
	out := make([]TemplateResponse, 0, len(templates))
	for i := range templates {
		out = append(out, NewTemplateResponse(&templates[i]))
	}
	return out
}
