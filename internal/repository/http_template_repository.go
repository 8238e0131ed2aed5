package repository

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-tracker/internal/domain"
)

type httpTemplateRepository struct {
	client *APIClient
}

// NewHTTPTemplateRepository serves the template repository contract over a remote tracker's API.
func NewHTTPTemplateRepository(client *APIClient) TemplateRepository {
	return &httpTemplateRepository{client: client}
}

func (r *httpTemplateRepository) FindAll(ctx context.Context, filter TemplateFilter) ([]domain.Template, error) {
	var env dataEnvelope[[]domain.Template]
	if err := r.client.get(ctx, "/api/templates", filter.Query(), &env); err != nil {
		return nil, err
	}
	if env.Data == nil {
		return []domain.Template{}, nil
	}
	return env.Data, nil
}

func (r *httpTemplateRepository) FindByID(ctx context.Context, id string) (*domain.Template, error) {
	var env dataEnvelope[domain.Template]
	if err := r.client.get(ctx, "/api/templates/"+escape(id), nil, &env); err != nil {
		return nil, err
	}
	return &env.Data, nil
}

func (r *httpTemplateRepository) FindDefault(ctx context.Context) (*domain.Template, error) {
	var env dataEnvelope[domain.Template]
	if err := r.client.get(ctx, "/api/templates/default", nil, &env); err != nil {
		return nil, err
	}
	return &env.Data, nil
}

func (r *httpTemplateRepository) Save(ctx context.Context, template *domain.Template) error {
	exists, err := r.Exists(ctx, template.ID)
	if err != nil {
		return err
	}

	var env dataEnvelope[domain.Template]
	if exists {
		err = r.client.do(ctx, fiber.MethodPut, "/api/templates/"+escape(template.ID), nil, template, &env)
	} else {
		err = r.client.do(ctx, fiber.MethodPost, "/api/templates", nil, template, &env)
	}
	if err != nil {
		return err
	}
	*template = env.Data
	return nil
}

func (r *httpTemplateRepository) Delete(ctx context.Context, id string) error {
	return r.client.do(ctx, fiber.MethodDelete, "/api/templates/"+escape(id), nil, nil, nil)
}

func (r *httpTemplateRepository) Count(ctx context.Context, filter TemplateFilter) (int, error) {
	return r.client.count(ctx, "/api/templates/count", filter.Query())
}

func (r *httpTemplateRepository) Exists(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	return r.client.exists(ctx, "/api/templates/"+escape(id))
}

func (r *httpTemplateRepository) SetAsDefault(ctx context.Context, id string) error {
	return r.client.do(ctx, fiber.MethodPost, "/api/templates/"+escape(id)+"/default", nil, nil, nil)
}
