package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-tracker/internal/api/dto"
	"github.com/spec-kit/ticket-tracker/internal/service"
	apperrors "github.com/spec-kit/ticket-tracker/pkg/util/errorutil"
)

// AuthHandler issues owner tokens.
type AuthHandler struct {
	service *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{service: authService}
}

// Token POST /auth/token.
func (h *AuthHandler) Token(c *fiber.Ctx) error {
	var req dto.TokenRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Password == "" {
		return apperrors.NewValidationError("password is required", nil)
	}
	token, exp, err := h.service.Login(c.UserContext(), req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TokenResponse{AccessToken: token, TokenType: "Bearer", ExpiresAt: exp}})
}
