package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-tracker/internal/domain"
	apperrors "github.com/spec-kit/ticket-tracker/pkg/util/errorutil"
)

func saveTemplate(t *testing.T, repo TemplateRepository, name, version string, createdAt time.Time) *domain.Template {
	t.Helper()

	tpl := domain.DefaultTemplate()
	tpl.Name = name
	tpl.Description = "Fixture template"
	tpl.Version = version
	tpl.IsDefault = false
	tpl.CreatedAt = createdAt
	tpl.UpdatedAt = createdAt
	require.NoError(t, repo.Save(context.Background(), tpl))
	return tpl
}

func TestTemplateRepositorySaveAndFind(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewTemplateRepository(openTestDB(t))

	minLen := 3
	tpl := domain.DefaultTemplate()
	tpl.Author = "ana"
	tpl.Sections[1].Fields[0].Validation = &domain.FieldValidation{MinLength: &minLen, Pattern: "^.+$"}
	tpl.Sections[1].Fields = append(tpl.Sections[1].Fields, domain.Field{
		ID:       "mood",
		Label:    "Mood",
		Type:     domain.FieldTypeSelect,
		Options:  []domain.FieldOption{{Value: "good", Label: "Good"}},
		Order:    4,
		HelpText: "How did it go?",
	})
	require.NoError(t, repo.Save(ctx, tpl))

	got, err := repo.FindByID(ctx, tpl.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(tpl, got); diff != "" {
		t.Fatalf("template mismatch (-want +got):\n%s", diff)
	}

	tpl.Name = "Renamed standup"
	tpl.Touch()
	require.NoError(t, repo.Save(ctx, tpl))

	got, err = repo.FindByID(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed standup", got.Name)

	count, err := repo.Count(ctx, TemplateFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, repo.Delete(ctx, tpl.ID))
	_, err = repo.FindByID(ctx, tpl.ID)
	require.Error(t, err)
	assert.Equal(t, "Template not found", err.Error())
	assert.True(t, apperrors.IsNotFound(repo.Delete(ctx, tpl.ID)))
}

func TestTemplateRepositoryFilters(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewTemplateRepository(openTestDB(t))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	bug := saveTemplate(t, repo, "Bug report", "1.0.0", base)
	bug2 := saveTemplate(t, repo, "Bug report", "2.0.0", base.Add(time.Hour))
	standup := saveTemplate(t, repo, "Standup", "1.0.0", base.Add(2*time.Hour))
	bug.Description = "Triaged weekly"
	require.NoError(t, repo.Save(ctx, bug))

	idsOf := func(tpls []domain.Template) []string {
		out := []string{}
		for _, tpl := range tpls {
			out = append(out, tpl.ID)
		}
		return out
	}

	tests := []struct {
		name   string
		filter TemplateFilter
		want   []string
	}{
		{"all", TemplateFilter{}, []string{standup.ID, bug2.ID, bug.ID}},
		{"by name", TemplateFilter{Name: "Bug report"}, []string{bug2.ID, bug.ID}},
		{"by name and version", TemplateFilter{Name: "Bug report", Version: "2.0.0"}, []string{bug2.ID}},
		{"search name", TemplateFilter{BaseFilter: BaseFilter{Search: "STAND"}}, []string{standup.ID}},
		{"search description", TemplateFilter{BaseFilter: BaseFilter{Search: "weekly"}}, []string{bug.ID}},
		{"search wildcard is literal", TemplateFilter{BaseFilter: BaseFilter{Search: "%"}}, []string{}},
		{"sort by name asc", TemplateFilter{BaseFilter: BaseFilter{SortBy: "name", SortOrder: SortAsc}}, nil},
		{"not default", TemplateFilter{IsDefault: ptr(false)}, []string{standup.ID, bug2.ID, bug.ID}},
		{"default", TemplateFilter{IsDefault: ptr(true)}, []string{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := repo.FindAll(ctx, tc.filter)
			require.NoError(t, err)
			if tc.want == nil {
				require.Len(t, got, 3)
				assert.Equal(t, "Standup", got[2].Name)
				return
			}
			assert.Equal(t, tc.want, idsOf(got))
		})
	}
}

func TestTemplateRepositorySetAsDefault(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewTemplateRepository(openTestDB(t))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	first := saveTemplate(t, repo, "First", "1.0.0", base)
	second := saveTemplate(t, repo, "Second", "1.0.0", base)

	_, err := repo.FindDefault(ctx)
	assert.True(t, apperrors.IsNotFound(err))

	require.NoError(t, repo.SetAsDefault(ctx, first.ID))
	def, err := repo.FindDefault(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, def.ID)

	require.NoError(t, repo.SetAsDefault(ctx, second.ID))
	def, err = repo.FindDefault(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, def.ID)

	defaults, err := repo.Count(ctx, TemplateFilter{IsDefault: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, 1, defaults)

	err = repo.SetAsDefault(ctx, "missing")
	assert.True(t, apperrors.IsNotFound(err))

	def, err = repo.FindDefault(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, def.ID)
}
