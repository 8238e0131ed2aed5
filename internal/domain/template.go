package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	apperrors "github.com/spec-kit/ticket-tracker/pkg/util/errorutil"
)

const (
	templateNameMin = 3
	templateNameMax = 200
)

var (
	titleFieldHints       = []string{"title", "titulo", "nome"}
	descriptionFieldHints = []string{"description", "descricao", "desc"}
)

// Template is a user-defined form schema: named, versioned, made of ordered sections.
//
// Templates are built freely and checked with Validate before they are persisted.
type Template struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Version     string    `json:"version"`
	IsDefault   bool      `json:"is_default"`
	Sections    []Section `json:"sections"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Author      string    `json:"author,omitempty"`
}

// NewTemplate builds a template at the initial version with fresh id and timestamps.
func NewTemplate(name, description string, sections []Section) *Template {
	ts := now()
	return &Template{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Version:     InitialVersion,
		Sections:    sections,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
}

// Touch bumps UpdatedAt.
func (t *Template) Touch() {
	t.UpdatedAt = now()
}

// Validate checks the template invariants and returns the first violation found.
func (t *Template) Validate() error {
	nameLen := utf8.RuneCountInString(strings.TrimSpace(t.Name))
	if nameLen < templateNameMin || nameLen > templateNameMax {
		return invalid("Template name must be between 3 and 200 characters")
	}
	if strings.TrimSpace(t.Version) == "" {
		return invalid("Template version is required")
	}
	if len(t.Sections) == 0 {
		return invalid("Template must have at least one section")
	}
	if !IsValidVersion(t.Version) {
		return invalid("Template version must follow semantic versioning (x.y.z)")
	}
	if t.CreatedAt.IsZero() {
		return invalid("Template creation date is invalid")
	}
	if t.UpdatedAt.IsZero() {
		return invalid("Template update date is invalid")
	}

	sectionIDs := make(map[string]struct{}, len(t.Sections))
	for _, section := range t.Sections {
		if err := validateSection(section, sectionIDs); err != nil {
			return err
		}
	}

	titleFields := 0
	var titleField Field
	for _, section := range t.Sections {
		for _, field := range section.Fields {
			if isTitleField(field) {
				titleFields++
				titleField = field
			}
		}
	}
	if titleFields != 1 {
		return invalid("Template must have exactly one title field")
	}
	if !titleField.Required {
		return invalid("Title field must be required")
	}
	if _, ok := t.descriptionField(); !ok {
		return invalid("Template must have a description field")
	}
	return nil
}

func validateSection(section Section, seen map[string]struct{}) error {
	if strings.TrimSpace(section.ID) == "" {
		return invalid("Section id is required")
	}
	if _, dup := seen[section.ID]; dup {
		return invalid(fmt.Sprintf("Duplicate section id: %s", section.ID))
	}
	seen[section.ID] = struct{}{}
	if strings.TrimSpace(section.Title) == "" {
		return invalid(fmt.Sprintf("Section %s must have a title", section.ID))
	}
	if len(section.Fields) == 0 {
		return invalid(fmt.Sprintf("Section %s must have at least one field", section.ID))
	}

	fieldIDs := make(map[string]struct{}, len(section.Fields))
	for _, field := range section.Fields {
		if strings.TrimSpace(field.ID) == "" {
			return invalid(fmt.Sprintf("Field id is required in section %s", section.ID))
		}
		if _, dup := fieldIDs[field.ID]; dup {
			return invalid(fmt.Sprintf("Duplicate field id %s in section %s", field.ID, section.ID))
		}
		fieldIDs[field.ID] = struct{}{}
		if strings.TrimSpace(field.Label) == "" {
			return invalid(fmt.Sprintf("Field %s must have a label", field.ID))
		}
		if field.Type == "" {
			return invalid(fmt.Sprintf("Field %s must have a type", field.ID))
		}
	}
	return nil
}

// AddSection appends a section, numbering it after the existing ones when Order is unset.
func (t *Template) AddSection(section Section) error {
	if strings.TrimSpace(section.ID) == "" {
		return invalid("Section id is required")
	}
	if t.sectionIndex(section.ID) >= 0 {
		return apperrors.NewDuplicate(fmt.Sprintf("Section with id %s already exists", section.ID), map[string]any{"section_id": section.ID})
	}
	if section.Order == 0 {
		section.Order = len(t.Sections) + 1
	}
	t.Sections = append(t.Sections, section)
	t.Touch()
	return nil
}

// RemoveSection deletes a section and renumbers the remaining ones from 1.
func (t *Template) RemoveSection(id string) error {
	if strings.TrimSpace(id) == "" {
		return invalid("Section id is required")
	}
	idx := t.sectionIndex(id)
	if idx < 0 {
		return apperrors.NewNotFound("Section", map[string]any{"section_id": id})
	}
	if len(t.Sections) == 1 {
		return apperrors.NewInvalidOperation("Template must have at least one section", nil)
	}
	t.Sections = append(t.Sections[:idx], t.Sections[idx+1:]...)
	for i := range t.Sections {
		t.Sections[i].Order = i + 1
	}
	t.Touch()
	return nil
}

// UpdateSection applies a patch to the section with the given id.
func (t *Template) UpdateSection(id string, patch SectionPatch) error {
	idx := t.sectionIndex(id)
	if idx < 0 {
		return apperrors.NewNotFound("Section", map[string]any{"section_id": id})
	}
	section := &t.Sections[idx]
	if patch.Title != nil {
		if strings.TrimSpace(*patch.Title) == "" {
			return invalid(fmt.Sprintf("Section %s must have a title", id))
		}
		section.Title = *patch.Title
	}
	if patch.Description != nil {
		section.Description = *patch.Description
	}
	if patch.Order != nil {
		section.Order = *patch.Order
	}
	t.Touch()
	return nil
}

// AddFieldToSection appends a field to one section.
func (t *Template) AddFieldToSection(sectionID string, field Field) error {
	idx := t.sectionIndex(sectionID)
	if idx < 0 {
		return apperrors.NewNotFound("Section", map[string]any{"section_id": sectionID})
	}
	if strings.TrimSpace(field.ID) == "" {
		return invalid(fmt.Sprintf("Field id is required in section %s", sectionID))
	}
	section := &t.Sections[idx]
	if fieldIndex(section.Fields, field.ID) >= 0 {
		return apperrors.NewDuplicate(
			fmt.Sprintf("Field with id %s already exists in section %s", field.ID, sectionID),
			map[string]any{"section_id": sectionID, "field_id": field.ID},
		)
	}
	if field.Order == 0 {
		field.Order = len(section.Fields) + 1
	}
	section.Fields = append(section.Fields, field)
	t.Touch()
	return nil
}

// RemoveFieldFromSection deletes a field and renumbers the section's remaining fields.
func (t *Template) RemoveFieldFromSection(sectionID, fieldID string) error {
	idx := t.sectionIndex(sectionID)
	if idx < 0 {
		return apperrors.NewNotFound("Section", map[string]any{"section_id": sectionID})
	}
	section := &t.Sections[idx]
	fIdx := fieldIndex(section.Fields, fieldID)
	if fIdx < 0 {
		return apperrors.NewNotFound("Field", map[string]any{"section_id": sectionID, "field_id": fieldID})
	}
	if len(section.Fields) == 1 {
		return apperrors.NewInvalidOperation("Section must have at least one field", nil)
	}
	section.Fields = append(section.Fields[:fIdx], section.Fields[fIdx+1:]...)
	for i := range section.Fields {
		section.Fields[i].Order = i + 1
	}
	t.Touch()
	return nil
}

// ReorderSections rearranges sections to follow ids, which must name every section once.
func (t *Template) ReorderSections(ids []string) error {
	if len(ids) != len(t.Sections) {
		return invalid("Section order must list every section exactly once")
	}
	reordered := make([]Section, 0, len(ids))
	used := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := used[id]; dup {
			return invalid("Section order must list every section exactly once")
		}
		idx := t.sectionIndex(id)
		if idx < 0 {
			return apperrors.NewNotFound("Section", map[string]any{"section_id": id})
		}
		used[id] = struct{}{}
		reordered = append(reordered, t.Sections[idx])
	}
	for i := range reordered {
		reordered[i].Order = i + 1
	}
	t.Sections = reordered
	t.Touch()
	return nil
}

// Duplicate copies the template under a new name, reset to the initial version.
func (t *Template) Duplicate(newName string) (*Template, error) {
	if utf8.RuneCountInString(strings.TrimSpace(newName)) < templateNameMin {
		return nil, invalid("Template name must be at least 3 characters")
	}
	ts := now()
	return &Template{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(newName),
		Description: t.Description,
		Version:     InitialVersion,
		IsDefault:   false,
		Sections:    cloneSections(t.Sections),
		CreatedAt:   ts,
		UpdatedAt:   ts,
		Author:      t.Author,
	}, nil
}

// CreateNewVersion copies the template with its major version incremented.
func (t *Template) CreateNewVersion() (*Template, error) {
	next, err := NextMajorVersion(t.Version)
	if err != nil {
		return nil, invalid("Template version must follow semantic versioning (x.y.z)")
	}
	ts := now()
	return &Template{
		ID:          uuid.NewString(),
		Name:        t.Name,
		Description: t.Description,
		Version:     next,
		IsDefault:   false,
		Sections:    cloneSections(t.Sections),
		CreatedAt:   ts,
		UpdatedAt:   ts,
		Author:      t.Author,
	}, nil
}

// FieldByID finds a field anywhere in the template.
func (t *Template) FieldByID(id string) (Field, bool) {
	for _, section := range t.Sections {
		if idx := fieldIndex(section.Fields, id); idx >= 0 {
			return section.Fields[idx], true
		}
	}
	return Field{}, false
}

// TotalFieldCount counts fields across all sections.
func (t *Template) TotalFieldCount() int {
	total := 0
	for _, section := range t.Sections {
		total += len(section.Fields)
	}
	return total
}

// RequiredFieldCount counts required fields across all sections.
func (t *Template) RequiredFieldCount() int {
	return len(t.RequiredFields())
}

// RequiredFields returns the required fields in section order.
func (t *Template) RequiredFields() []Field {
	var out []Field
	for _, section := range t.Sections {
		for _, field := range section.Fields {
			if field.Required {
				out = append(out, field)
			}
		}
	}
	return out
}

// TitleField returns the first field recognised as the ticket title.
func (t *Template) TitleField() (Field, bool) {
	for _, section := range t.Sections {
		for _, field := range section.Fields {
			if isTitleField(field) {
				return field, true
			}
		}
	}
	return Field{}, false
}

func (t *Template) descriptionField() (Field, bool) {
	for _, section := range t.Sections {
		for _, field := range section.Fields {
			if !isTitleField(field) && fieldMatches(field, descriptionFieldHints) {
				return field, true
			}
		}
	}
	return Field{}, false
}

func (t *Template) sectionIndex(id string) int {
	for i, section := range t.Sections {
		if section.ID == id {
			return i
		}
	}
	return -1
}

func fieldIndex(fields []Field, id string) int {
	for i, field := range fields {
		if field.ID == id {
			return i
		}
	}
	return -1
}

func isTitleField(field Field) bool {
	return fieldMatches(field, titleFieldHints)
}

func fieldMatches(field Field, hints []string) bool {
	id := strings.ToLower(field.ID)
	label := strings.ToLower(field.Label)
	for _, hint := range hints {
		if strings.Contains(id, hint) || strings.Contains(label, hint) {
			return true
		}
	}
	return false
}

func invalid(message string) error {
	return apperrors.NewValidationError(message, nil)
}
