package service

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-tracker/internal/domain"
	"github.com/spec-kit/ticket-tracker/internal/events"
	"github.com/spec-kit/ticket-tracker/internal/repository"
	apperrors "github.com/spec-kit/ticket-tracker/pkg/util/errorutil"
)

func bugTemplate() *domain.Template {
	return &domain.Template{
		Name: "Bug report",
		Sections: []domain.Section{{
			ID:    "bug",
			Title: "Bug",
			Order: 1,
			Fields: []domain.Field{
				{ID: "title", Label: "Title", Type: domain.FieldTypeText, Required: true, Order: 1},
				{ID: "description", Label: "Description", Type: domain.FieldTypeTextarea, Order: 2},
				{ID: "steps", Label: "Steps", Type: domain.FieldTypeTextarea, Required: true, Order: 3},
			},
		}},
	}
}

func TestEnsureDefaultTemplateOnlySeedsEmptyStore(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	assert.Equal(t, domain.DefaultTemplateName, f.template.Name)
	assert.True(t, f.template.IsDefault)

	again, created, err := f.templates.EnsureDefaultTemplate(ctx)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Nil(t, again)

	def, err := f.templates.GetDefaultTemplate(ctx)
	require.NoError(t, err)
	assert.Equal(t, f.template.ID, def.ID)
}

func TestCreateTemplate(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	created, err := f.templates.CreateTemplate(ctx, bugTemplate())
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, domain.InitialVersion, created.Version)
	assert.False(t, created.IsDefault)

	stored, err := f.templates.GetTemplate(ctx, created.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(created, stored); diff != "" {
		t.Fatalf("stored template mismatch (-want +got):\n%s", diff)
	}

	_, err = f.templates.CreateTemplate(ctx, bugTemplate())
	assert.True(t, apperrors.IsDuplicate(err))
	assert.Equal(t, `Template "Bug report" version 1.0.0 already exists`, err.Error())

	invalid := bugTemplate()
	invalid.Name = "ab"
	_, err = f.templates.CreateTemplate(ctx, invalid)
	assert.True(t, apperrors.IsValidation(err))

	sameID := bugTemplate()
	sameID.ID = created.ID
	sameID.Name = "Another name"
	_, err = f.templates.CreateTemplate(ctx, sameID)
	assert.True(t, apperrors.IsDuplicate(err))

	count, err := f.templates.CountTemplates(ctx, repository.TemplateFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Contains(t, f.recorded.types(), events.EventTemplateCreated)
}

func TestCreateDefaultTemplateReplacesPrevious(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	tpl := bugTemplate()
	tpl.IsDefault = true
	created, err := f.templates.CreateTemplate(ctx, tpl)
	require.NoError(t, err)
	assert.True(t, created.IsDefault)

	def, err := f.templates.GetDefaultTemplate(ctx)
	require.NoError(t, err)
	assert.Equal(t, created.ID, def.ID)

	previous, err := f.templates.GetTemplate(ctx, f.template.ID)
	require.NoError(t, err)
	assert.False(t, previous.IsDefault)

	defaults, err := f.templates.ListTemplates(ctx, repository.TemplateFilter{IsDefault: ptr(true)})
	require.NoError(t, err)
	assert.Len(t, defaults, 1)
}

func TestUpdateTemplate(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	created, err := f.templates.CreateTemplate(ctx, bugTemplate())
	require.NoError(t, err)

	edit := *created
	edit.Description = "Something broke"
	edit.Version = ""
	updated, err := f.templates.UpdateTemplate(ctx, &edit)
	require.NoError(t, err)
	assert.Equal(t, "Something broke", updated.Description)
	assert.Equal(t, created.Version, updated.Version)
	assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))

	clash := *updated
	clash.Name = domain.DefaultTemplateName
	_, err = f.templates.UpdateTemplate(ctx, &clash)
	assert.True(t, apperrors.IsDuplicate(err))

	keepDefault := *f.template
	keepDefault.IsDefault = false
	keepDefault.Description = "Edited"
	stillDefault, err := f.templates.UpdateTemplate(ctx, &keepDefault)
	require.NoError(t, err)
	assert.True(t, stillDefault.IsDefault)

	promote := *updated
	promote.IsDefault = true
	promoted, err := f.templates.UpdateTemplate(ctx, &promote)
	require.NoError(t, err)
	assert.True(t, promoted.IsDefault)
	def, err := f.templates.GetDefaultTemplate(ctx)
	require.NoError(t, err)
	assert.Equal(t, created.ID, def.ID)

	_, err = f.templates.UpdateTemplate(ctx, &domain.Template{ID: "missing"})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestDeleteTemplateInUse(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	ticket := f.newTicket(t, map[string]any{"title": "uses template"})

	err := f.templates.DeleteTemplate(ctx, f.template.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidOperation(err))
	assert.Equal(t, "Template is in use by 1 ticket(s) and cannot be deleted", err.Error())

	require.NoError(t, f.tickets.DeleteTicket(ctx, ticket.ID))
	require.NoError(t, f.templates.DeleteTemplate(ctx, f.template.ID))
	assert.True(t, apperrors.IsNotFound(f.templates.DeleteTemplate(ctx, f.template.ID)))
	assert.Contains(t, f.recorded.types(), events.EventTemplateDeleted)
}

func TestSetAsDefault(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	created, err := f.templates.CreateTemplate(ctx, bugTemplate())
	require.NoError(t, err)

	def, err := f.templates.SetAsDefault(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, def.IsDefault)

	previous, err := f.templates.GetTemplate(ctx, f.template.ID)
	require.NoError(t, err)
	assert.False(t, previous.IsDefault)

	_, err = f.templates.SetAsDefault(ctx, "missing")
	assert.True(t, apperrors.IsNotFound(err))
	assert.Contains(t, f.recorded.types(), events.EventTemplateDefaultChanged)
}

func TestDuplicateAndVersionTemplate(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	copied, err := f.templates.DuplicateTemplate(ctx, f.template.ID, "Standup copy")
	require.NoError(t, err)
	assert.NotEqual(t, f.template.ID, copied.ID)
	assert.Equal(t, "Standup copy", copied.Name)
	assert.Equal(t, domain.InitialVersion, copied.Version)
	assert.False(t, copied.IsDefault)
	if diff := cmp.Diff(f.template.Sections, copied.Sections); diff != "" {
		t.Fatalf("sections mismatch (-want +got):\n%s", diff)
	}

	_, err = f.templates.DuplicateTemplate(ctx, f.template.ID, "Standup copy")
	assert.True(t, apperrors.IsDuplicate(err))

	_, err = f.templates.DuplicateTemplate(ctx, f.template.ID, "x")
	assert.True(t, apperrors.IsValidation(err))

	next, err := f.templates.CreateNewVersion(ctx, f.template.ID)
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", next.Version)
	assert.Equal(t, f.template.Name, next.Name)
	assert.False(t, next.IsDefault)

	_, err = f.templates.CreateNewVersion(ctx, f.template.ID)
	assert.True(t, apperrors.IsDuplicate(err))

	_, err = f.templates.CreateNewVersion(ctx, "missing")
	assert.True(t, apperrors.IsNotFound(err))
}

func ptr[T any](v T) *T { return &v }
