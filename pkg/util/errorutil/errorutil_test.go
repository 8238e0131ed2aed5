package errorutil

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructorsCarryCodeAndStatus(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"validation", NewValidationError("bad", nil), CodeValidation, http.StatusBadRequest},
		{"not found", NewNotFound("Ticket", nil), CodeNotFound, http.StatusNotFound},
		{"invalid operation", NewInvalidOperation("no", nil), CodeInvalidOperation, http.StatusUnprocessableEntity},
		{"duplicate", NewDuplicate("again", nil), CodeDuplicate, http.StatusConflict},
		{"unauthorized", NewUnauthorized("who"), CodeUnauthorized, http.StatusUnauthorized},
		{"internal", NewInternalError(errors.New("boom")), CodeInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			de := ToDomainError(tc.err)
			require.NotNil(t, de)
			assert.Equal(t, tc.code, de.Code)
			assert.Equal(t, tc.status, de.HTTPStatus)
			assert.True(t, HasCode(tc.err, tc.code))
		})
	}
}

func TestNotFoundMessage(t *testing.T) {
	t.Parallel()

	err := NewNotFound("Template", map[string]any{"id": "t1"})
	assert.Equal(t, "Template not found", err.Error())
	assert.True(t, IsNotFound(err))
	assert.False(t, IsValidation(err))
	assert.Equal(t, "t1", ToDomainError(err).Details["id"])
}

func TestWrappedErrorsKeepTheirCode(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("update ticket: %w", NewInvalidOperation("archived", nil))
	assert.True(t, IsInvalidOperation(err))
	assert.Equal(t, "archived", ToDomainError(err).Message)

	dup := fmt.Errorf("save: %w", NewDuplicate("exists", nil))
	assert.True(t, IsDuplicate(dup))
}

func TestToDomainError(t *testing.T) {
	t.Parallel()

	assert.Nil(t, ToDomainError(nil))

	missing := ToDomainError(fmt.Errorf("scan: %w", sql.ErrNoRows))
	assert.Equal(t, CodeNotFound, missing.Code)

	cause := errors.New("disk full")
	internal := ToDomainError(cause)
	assert.Equal(t, CodeInternal, internal.Code)
	assert.ErrorIs(t, internal, cause)
	assert.Equal(t, "internal server error: disk full", internal.Error())
}

func TestFromResponse(t *testing.T) {
	t.Parallel()

	de := FromResponse(http.StatusConflict, "", "", nil)
	assert.Equal(t, CodeDuplicate, de.Code)
	assert.Equal(t, "Conflict", de.Message)

	de = FromResponse(http.StatusUnprocessableEntity, CodeInvalidOperation, "Template is in use", map[string]any{"ticket_count": 2.0})
	assert.True(t, IsInvalidOperation(de))
	assert.Equal(t, "Template is in use", de.Error())
	assert.Equal(t, 2.0, de.Details["ticket_count"])

	assert.Equal(t, CodeInternal, FromResponse(http.StatusBadGateway, "", "", nil).Code)
}
