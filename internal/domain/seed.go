package domain

// DefaultTemplateName names the template seeded into an empty store.
const DefaultTemplateName = "Daily Standup"

// DefaultTemplate builds the standup template used when no template exists yet.
func DefaultTemplate() *Template {
	t := NewTemplate(DefaultTemplateName, "Ticket notes for the daily standup", []Section{
		{
			ID:    "ticket",
			Title: "Ticket",
			Order: 1,
			Fields: []Field{
				{ID: "title", Label: "Title", Type: FieldTypeText, Required: true, Placeholder: "What is this ticket about?", Order: 1},
				{ID: "description", Label: "Description", Type: FieldTypeTextarea, Order: 2},
			},
		},
		{
			ID:    "standup",
			Title: "Standup",
			Order: 2,
			Fields: []Field{
				{ID: "yesterday", Label: "What did you do yesterday?", Type: FieldTypeTextarea, Order: 1},
				{ID: "today", Label: "What will you do today?", Type: FieldTypeTextarea, Order: 2},
				{ID: "blockers", Label: "Blockers", Type: FieldTypeTextarea, Order: 3},
			},
		},
	})
	t.IsDefault = true
	return t
}
