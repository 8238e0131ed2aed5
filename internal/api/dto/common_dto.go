package dto

import (
	"time"

	"github.com/spec-kit/ticket-tracker/internal/repository"
)

// TokenRequest payload for POST /auth/token.
type TokenRequest struct {
	Password string `json:"password"`
}

// TokenResponse standard response for the token endpoint.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// CountResponse wraps a count.
type CountResponse struct {
	Count int `json:"count"`
}

// NewListMeta describes the page a list handler returned. Without pagination the page
// spans the whole result.
func NewListMeta(filter repository.BaseFilter, total int, hasFilters bool) repository.ListMeta {
	meta := repository.ListMeta{Page: filter.Page, PageSize: filter.PageSize, Total: total, HasFilters: hasFilters}
	if !filter.HasPagination() {
		meta.Page = 1
		meta.PageSize = total
	}
	return meta
}
