package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/spec-kit/ticket-tracker/internal/api/dto"
	"github.com/spec-kit/ticket-tracker/internal/domain"
	"github.com/spec-kit/ticket-tracker/internal/repository"
	"github.com/spec-kit/ticket-tracker/internal/service"
	apperrors "github.com/spec-kit/ticket-tracker/pkg/util/errorutil"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// ListTickets GET /api/tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	filter, err := repository.ParseTicketFilter(queryValues(c))
	if err != nil {
		return err
	}
	ctx := c.UserContext()
	tickets, err := h.service.ListTickets(ctx, filter)
	if err != nil {
		return err
	}
	total, err := h.service.CountTickets(ctx, filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": dto.NewTicketResponses(tickets),
		"meta": dto.NewListMeta(filter.BaseFilter, total, filter.HasAnyFilter()),
	})
}

// CountTickets GET /api/tickets/count.
func (h *TicketsHandler) CountTickets(c *fiber.Ctx) error {
	filter, err := repository.ParseTicketFilter(queryValues(c))
	if err != nil {
		return err
	}
	total, err := h.service.CountTickets(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.CountResponse{Count: total}})
}

// Stats GET /api/tickets/stats.
func (h *TicketsHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.service.GetStats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stats})
}

// GetTicket GET /api/tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.service.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// CreateTicket POST /api/tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.TicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.CreateTicket(c.UserContext(), req.ToDomain())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// UpdateTicket PUT /api/tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	var req dto.TicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket := req.ToDomain()
	ticket.ID = utils.CopyString(c.Params("id"))
	updated, err := h.service.UpdateTicket(c.UserContext(), ticket)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(updated)})
}

// DeleteTicket DELETE /api/tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	if err := h.service.DeleteTicket(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// UpdateStatus PATCH /api/tickets/:id/status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.UpdateStatusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Status == "" {
		return apperrors.NewValidationError("status is required", nil)
	}
	return respondTicket(c)(h.service.UpdateTicketStatus(c.UserContext(), c.Params("id"), req.Status))
}

// Complete POST /api/tickets/:id/complete.
func (h *TicketsHandler) Complete(c *fiber.Ctx) error {
	return respondTicket(c)(h.service.MarkAsCompleted(c.UserContext(), c.Params("id")))
}

// Start POST /api/tickets/:id/start.
func (h *TicketsHandler) Start(c *fiber.Ctx) error {
	return respondTicket(c)(h.service.MarkAsInProgress(c.UserContext(), c.Params("id")))
}

// Archive POST /api/tickets/:id/archive.
func (h *TicketsHandler) Archive(c *fiber.Ctx) error {
	return respondTicket(c)(h.service.ArchiveTicket(c.UserContext(), c.Params("id")))
}

// AddTag POST /api/tickets/:id/tags.
func (h *TicketsHandler) AddTag(c *fiber.Ctx) error {
	var req dto.TagRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	return respondTicket(c)(h.service.AddTag(c.UserContext(), c.Params("id"), req.Tag))
}

// RemoveTag DELETE /api/tickets/:id/tags/:tag.
func (h *TicketsHandler) RemoveTag(c *fiber.Ctx) error {
	return respondTicket(c)(h.service.RemoveTag(c.UserContext(), c.Params("id"), c.Params("tag")))
}

// History GET /api/tickets/:id/history.
func (h *TicketsHandler) History(c *fiber.Ctx) error {
	entries, err := h.service.ListHistory(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewHistoryResponses(entries)})
}

// BulkStatus POST /api/tickets/bulk/status.
func (h *TicketsHandler) BulkStatus(c *fiber.Ctx) error {
	var req dto.BulkStatusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if len(req.IDs) == 0 {
		return apperrors.NewValidationError("ids is required", nil)
	}
	result, err := h.service.BulkUpdateTicketStatus(c.UserContext(), req.IDs, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewBulkResultResponse(result)})
}

// BulkDelete POST /api/tickets/bulk/delete.
func (h *TicketsHandler) BulkDelete(c *fiber.Ctx) error {
	var req dto.BulkDeleteRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if len(req.IDs) == 0 {
		return apperrors.NewValidationError("ids is required", nil)
	}
	result := h.service.BulkDeleteTickets(c.UserContext(), req.IDs)
	return c.JSON(fiber.Map{"data": dto.NewBulkResultResponse(result)})
}

func respondTicket(c *fiber.Ctx) func(*domain.Ticket, error) error {
	return func(ticket *domain.Ticket, err error) error {
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
	}
}
