package repository

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-tracker/internal/domain"
)

type httpTicketRepository struct {
	client *APIClient
}

// NewHTTPTicketRepository serves the ticket repository contract over a remote tracker's API.
func NewHTTPTicketRepository(client *APIClient) TicketRepository {
	return &httpTicketRepository{client: client}
}

func (r *httpTicketRepository) FindAll(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	var env dataEnvelope[[]domain.Ticket]
	if err := r.client.get(ctx, "/api/tickets", filter.Query(), &env); err != nil {
		return nil, err
	}
	if env.Data == nil {
		return []domain.Ticket{}, nil
	}
	return env.Data, nil
}

func (r *httpTicketRepository) FindByID(ctx context.Context, id string) (*domain.Ticket, error) {
	var env dataEnvelope[domain.Ticket]
	if err := r.client.get(ctx, "/api/tickets/"+escape(id), nil, &env); err != nil {
		return nil, err
	}
	return &env.Data, nil
}

func (r *httpTicketRepository) FindByStatus(ctx context.Context, status domain.TicketStatus) ([]domain.Ticket, error) {
	return r.FindAll(ctx, TicketFilter{Status: status})
}

func (r *httpTicketRepository) FindByTemplateID(ctx context.Context, templateID string) ([]domain.Ticket, error) {
	return r.FindAll(ctx, TicketFilter{TemplateID: templateID})
}

// Save creates or replaces the ticket; the server answers with the stored version,
// which is copied back into ticket.
func (r *httpTicketRepository) Save(ctx context.Context, ticket *domain.Ticket) error {
	exists, err := r.Exists(ctx, ticket.ID)
	if err != nil {
		return err
	}

	var env dataEnvelope[domain.Ticket]
	if exists {
		err = r.client.do(ctx, fiber.MethodPut, "/api/tickets/"+escape(ticket.ID), nil, ticket, &env)
	} else {
		err = r.client.do(ctx, fiber.MethodPost, "/api/tickets", nil, ticket, &env)
	}
	if err != nil {
		return err
	}
	*ticket = env.Data
	return nil
}

func (r *httpTicketRepository) Delete(ctx context.Context, id string) error {
	return r.client.do(ctx, fiber.MethodDelete, "/api/tickets/"+escape(id), nil, nil, nil)
}

func (r *httpTicketRepository) Count(ctx context.Context, filter TicketFilter) (int, error) {
	return r.client.count(ctx, "/api/tickets/count", filter.Query())
}

func (r *httpTicketRepository) Exists(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	return r.client.exists(ctx, "/api/tickets/"+escape(id))
}
