package handlers

import (
	"net/url"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/ticket-tracker/pkg/util/errorutil"
)

func queryValues(c *fiber.Ctx) url.Values {
	values, err := url.ParseQuery(string(c.Request().URI().QueryString()))
	if err != nil {
		return url.Values{}
	}
	return values
}

func parseBody(c *fiber.Ctx, out any) error {
	if len(c.Body()) == 0 {
		return apperrors.NewValidationError("request body is required", nil)
	}
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", map[string]any{"reason": err.Error()})
	}
	return nil
}
