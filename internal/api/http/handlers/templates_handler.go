package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/spec-kit/ticket-tracker/internal/api/dto"
	"github.com/spec-kit/ticket-tracker/internal/domain"
	"github.com/spec-kit/ticket-tracker/internal/repository"
	"github.com/spec-kit/ticket-tracker/internal/service"
)

// TemplatesHandler manages template endpoints.
type TemplatesHandler struct {
	service *service.TemplateService
}

// NewTemplatesHandler constructs handler.
func NewTemplatesHandler(templateService *service.TemplateService) *TemplatesHandler {
	return &TemplatesHandler{service: templateService}
}

// ListTemplates GET /api/templates.
func (h *TemplatesHandler) ListTemplates(c *fiber.Ctx) error {
	filter, err := repository.ParseTemplateFilter(queryValues(c))
	if err != nil {
		return err
	}
	ctx := c.UserContext()
	templates, err := h.service.ListTemplates(ctx, filter)
	if err != nil {
		return err
	}
	total, err := h.service.CountTemplates(ctx, filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": dto.NewTemplateResponses(templates),
		"meta": dto.NewListMeta(filter.BaseFilter, total, filter.HasAnyFilter()),
	})
}

// CountTemplates GET /api/templates/count.
func (h *TemplatesHandler) CountTemplates(c *fiber.Ctx) error {
	filter, err := repository.ParseTemplateFilter(queryValues(c))
	if err != nil {
		return err
	}
	total, err := h.service.CountTemplates(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.CountResponse{Count: total}})
}

// GetDefault GET /api/templates/default.
func (h *TemplatesHandler) GetDefault(c *fiber.Ctx) error {
	return respondTemplate(c, fiber.StatusOK)(h.service.GetDefaultTemplate(c.UserContext()))
}

// GetTemplate GET /api/templates/:id.
func (h *TemplatesHandler) GetTemplate(c *fiber.Ctx) error {
	return respondTemplate(c, fiber.StatusOK)(h.service.GetTemplate(c.UserContext(), c.Params("id")))
}

// CreateTemplate POST /api/templates.
func (h *TemplatesHandler) CreateTemplate(c *fiber.Ctx) error {
	var req dto.TemplateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	return respondTemplate(c, fiber.StatusCreated)(h.service.CreateTemplate(c.UserContext(), req.ToDomain()))
}

// UpdateTemplate PUT /api/templates/:id.
func (h *TemplatesHandler) UpdateTemplate(c *fiber.Ctx) error {
	var req dto.TemplateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	template := req.ToDomain()
	template.ID = utils.CopyString(c.Params("id"))
	return respondTemplate(c, fiber.StatusOK)(h.service.UpdateTemplate(c.UserContext(), template))
}

// DeleteTemplate DELETE /api/templates/:id.
func (h *TemplatesHandler) DeleteTemplate(c *fiber.Ctx) error {
	if err := h.service.DeleteTemplate(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SetDefault POST /api/templates/:id/default.
func (h *TemplatesHandler) SetDefault(c *fiber.Ctx) error {
	return respondTemplate(c, fiber.StatusOK)(h.service.SetAsDefault(c.UserContext(), c.Params("id")))
}

// Duplicate POST /api/templates/:id/duplicate.
func (h *TemplatesHandler) Duplicate(c *fiber.Ctx) error {
	var req dto.DuplicateTemplateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	return respondTemplate(c, fiber.StatusCreated)(h.service.DuplicateTemplate(c.UserContext(), c.Params("id"), req.Name))
}

// NewVersion POST /api/templates/:id/versions.
func (h *TemplatesHandler) NewVersion(c *fiber.Ctx) error {
	return respondTemplate(c, fiber.StatusCreated)(h.service.CreateNewVersion(c.UserContext(), c.Params("id")))
}

func respondTemplate(c *fiber.Ctx, status int) func(*domain.Template, error) error {
	return func(template *domain.Template, err error) error {
		if err != nil {
			return err
		}
		return c.Status(status).JSON(fiber.Map{"data": dto.NewTemplateResponse(template)})
	}
}
