package service

import (
	"context"
	"time"

	"github.com/spec-kit/ticket-tracker/internal/auth"
	"github.com/spec-kit/ticket-tracker/internal/config"
	apperrors "github.com/spec-kit/ticket-tracker/pkg/util/errorutil"
)

// AuthService exchanges the owner's password for an access token.
type AuthService struct {
	passwordHash string
	owner        string
	tokenMgr     *auth.TokenManager
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config) *AuthService {
	return &AuthService{
		passwordHash: cfg.Auth.PasswordHash,
		owner:        cfg.Auth.Owner,
		tokenMgr:     auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.App.Name, cfg.Auth.AccessTokenTTLMinutes),
	}
}

// Enabled reports whether a password is configured.
func (s *AuthService) Enabled() bool {
	return s.passwordHash != ""
}

// Login verifies password and issues a token for the configured owner.
func (s *AuthService) Login(_ context.Context, password string) (string, time.Time, error) {
	if !s.Enabled() {
		return "", time.Time{}, apperrors.NewInvalidOperation("Authentication is disabled", nil)
	}
	if err := auth.ComparePassword(s.passwordHash, password); err != nil {
		return "", time.Time{}, apperrors.NewUnauthorized("invalid password")
	}
	return s.tokenMgr.GenerateToken(s.owner)
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
