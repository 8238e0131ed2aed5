package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/ticket-tracker/pkg/util/errorutil"
)

const ownerLocalsKey = "auth_owner"

// AuthMiddleware guards routes behind an owner bearer token.
type AuthMiddleware struct {
	tokens *TokenManager
}

// NewAuthMiddleware builds the middleware around a token manager.
func NewAuthMiddleware(tokens *TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Handle rejects the request with UNAUTHORIZED unless it carries a valid token. On
// success the owner is stored in the fiber locals and in the user context.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	raw, err := bearerToken(c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return err
	}

	claims, err := m.tokens.ParseToken(raw)
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	owner := claims.Owner()
	c.Locals(ownerLocalsKey, owner)
	c.SetUserContext(WithOwner(c.UserContext(), owner))
	return c.Next()
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", apperrors.NewUnauthorized("missing authorization header")
	}
	scheme, token, ok := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", apperrors.NewUnauthorized("invalid authorization header")
	}
	return token, nil
}

// OwnerFromFiber returns the owner set by Handle.
func OwnerFromFiber(c *fiber.Ctx) (string, bool) {
	owner, ok := c.Locals(ownerLocalsKey).(string)
	return owner, ok && owner != ""
}
