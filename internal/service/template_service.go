package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-tracker/internal/domain"
	"github.com/spec-kit/ticket-tracker/internal/events"
	"github.com/spec-kit/ticket-tracker/internal/repository"
	apperrors "github.com/spec-kit/ticket-tracker/pkg/util/errorutil"
)

// TemplateService coordinates template workflows.
type TemplateService struct {
	templates  repository.TemplateRepository
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// TemplateDependencies bundles collaborators for the template service.
type TemplateDependencies struct {
	TemplateRepo repository.TemplateRepository
	TicketRepo   repository.TicketRepository
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// NewTemplateService constructs the service.
func NewTemplateService(deps TemplateDependencies) *TemplateService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TemplateService{
		templates:  deps.TemplateRepo,
		tickets:    deps.TicketRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// ListTemplates returns the templates matching filter.
func (s *TemplateService) ListTemplates(ctx context.Context, filter repository.TemplateFilter) ([]domain.Template, error) {
	return s.templates.FindAll(ctx, filter)
}

// CountTemplates counts the templates matching filter, ignoring pagination.
func (s *TemplateService) CountTemplates(ctx context.Context, filter repository.TemplateFilter) (int, error) {
	return s.templates.Count(ctx, filter)
}

// GetTemplate loads one template by id.
func (s *TemplateService) GetTemplate(ctx context.Context, id string) (*domain.Template, error) {
	return s.templates.FindByID(ctx, id)
}

// GetDefaultTemplate loads the template flagged as default.
func (s *TemplateService) GetDefaultTemplate(ctx context.Context) (*domain.Template, error) {
	return s.templates.FindDefault(ctx)
}

// CreateTemplate validates and stores a new template. A template created as default
// replaces the previous default.
func (s *TemplateService) CreateTemplate(ctx context.Context, template *domain.Template) (*domain.Template, error) {
	if template.ID == "" {
		template.ID = uuid.NewString()
	}
	if template.Version == "" {
		template.Version = domain.InitialVersion
	}
	template.Touch()
	if template.CreatedAt.IsZero() {
		template.CreatedAt = template.UpdatedAt
	}
	if err := template.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.templates.Exists(ctx, template.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.NewDuplicate(fmt.Sprintf("Template with id %s already exists", template.ID), map[string]any{"id": template.ID})
	}
	if err := s.ensureUniqueName(ctx, template); err != nil {
		return nil, err
	}
	return s.store(ctx, template, events.EventTemplateCreated, template.IsDefault)
}

// UpdateTemplate replaces a template's content, keeping its creation time.
func (s *TemplateService) UpdateTemplate(ctx context.Context, template *domain.Template) (*domain.Template, error) {
	existing, err := s.templates.FindByID(ctx, template.ID)
	if err != nil {
		return nil, err
	}

	updated := *template
	updated.CreatedAt = existing.CreatedAt
	// the default flag moves only through SetAsDefault
	if existing.IsDefault {
		updated.IsDefault = true
	}
	if updated.Version == "" {
		updated.Version = existing.Version
	}
	updated.Touch()
	if err := updated.Validate(); err != nil {
		return nil, err
	}
	if err := s.ensureUniqueName(ctx, &updated); err != nil {
		return nil, err
	}
	return s.store(ctx, &updated, events.EventTemplateUpdated, updated.IsDefault && !existing.IsDefault)
}

// DeleteTemplate removes a template no ticket references.
func (s *TemplateService) DeleteTemplate(ctx context.Context, id string) error {
	template, err := s.templates.FindByID(ctx, id)
	if err != nil {
		return err
	}
	inUse, err := s.tickets.Count(ctx, repository.TicketFilter{TemplateID: id})
	if err != nil {
		return err
	}
	if inUse > 0 {
		return apperrors.NewInvalidOperation(
			fmt.Sprintf("Template is in use by %d ticket(s) and cannot be deleted", inUse),
			map[string]any{"ticket_count": inUse},
		)
	}
	if err := s.templates.Delete(ctx, id); err != nil {
		return err
	}
	s.publishEvent(ctx, events.EventTemplateDeleted, template)
	return nil
}

// SetAsDefault makes id the only default template and returns it.
func (s *TemplateService) SetAsDefault(ctx context.Context, id string) (*domain.Template, error) {
	if err := s.templates.SetAsDefault(ctx, id); err != nil {
		return nil, err
	}
	template, err := s.templates.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.EventTemplateDefaultChanged, template)
	return template, nil
}

// DuplicateTemplate copies a template under newName at the initial version.
func (s *TemplateService) DuplicateTemplate(ctx context.Context, id, newName string) (*domain.Template, error) {
	source, err := s.templates.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	duplicate, err := source.Duplicate(newName)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUniqueName(ctx, duplicate); err != nil {
		return nil, err
	}
	return s.store(ctx, duplicate, events.EventTemplateCreated, false)
}

// CreateNewVersion copies a template with its major version incremented.
func (s *TemplateService) CreateNewVersion(ctx context.Context, id string) (*domain.Template, error) {
	source, err := s.templates.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := source.CreateNewVersion()
	if err != nil {
		return nil, err
	}
	if err := s.ensureUniqueName(ctx, next); err != nil {
		return nil, err
	}
	return s.store(ctx, next, events.EventTemplateCreated, false)
}

// EnsureDefaultTemplate seeds the standup template into an empty store. The bool reports
// whether a template was created.
func (s *TemplateService) EnsureDefaultTemplate(ctx context.Context) (*domain.Template, bool, error) {
	count, err := s.templates.Count(ctx, repository.TemplateFilter{})
	if err != nil {
		return nil, false, err
	}
	if count > 0 {
		return nil, false, nil
	}
	template, err := s.CreateTemplate(ctx, domain.DefaultTemplate())
	if err != nil {
		return nil, false, err
	}
	s.logger.Info("seeded default template", zap.String("template_id", template.ID), zap.String("name", template.Name))
	return template, true, nil
}

func (s *TemplateService) store(ctx context.Context, template *domain.Template, eventType events.EventType, makeDefault bool) (*domain.Template, error) {
	if err := s.templates.Save(ctx, template); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, eventType, template)
	if !makeDefault {
		return template, nil
	}
	return s.SetAsDefault(ctx, template.ID)
}

func (s *TemplateService) ensureUniqueName(ctx context.Context, template *domain.Template) error {
	clashes, err := s.templates.FindAll(ctx, repository.TemplateFilter{Name: template.Name, Version: template.Version})
	if err != nil {
		return err
	}
	for _, other := range clashes {
		if other.ID != template.ID {
			return apperrors.NewDuplicate(
				fmt.Sprintf("Template %q version %s already exists", template.Name, template.Version),
				map[string]any{"name": template.Name, "version": template.Version},
			)
		}
	}
	return nil
}

func (s *TemplateService) publishEvent(ctx context.Context, eventType events.EventType, template *domain.Template) {
	if s.dispatcher == nil {
		return
	}
	payload := events.TemplatePayload{Name: template.Name, Version: template.Version, IsDefault: template.IsDefault}
	if err := s.dispatcher.Publish(ctx, events.NewEvent(eventType, template.ID, payload)); err != nil {
		s.logger.Warn("publish event", zap.String("type", string(eventType)), zap.String("entity_id", template.ID), zap.Error(err))
	}
}
