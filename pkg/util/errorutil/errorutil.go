package errorutil

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
)

// Error codes shared by the domain, services and the HTTP layer.
const (
	CodeValidation       = "VALIDATION_FAILED"
	CodeNotFound         = "NOT_FOUND"
	CodeInvalidOperation = "INVALID_OPERATION"
	CodeDuplicate        = "DUPLICATE"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeInternal         = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil && e.Code == CodeInternal {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

// NewValidationError reports an entity invariant the caller violated.
func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

// NewNotFound reports a missing resource, e.g. NewNotFound("Ticket", ...) -> "Ticket not found".
func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

// NewInvalidOperation reports an illegal state transition or a refused operation.
func NewInvalidOperation(message string, details map[string]any) error {
	return NewDomainError(CodeInvalidOperation, message, http.StatusUnprocessableEntity, details)
}

// NewDuplicate reports a uniqueness violation.
func NewDuplicate(message string, details map[string]any) error {
	return NewDomainError(CodeDuplicate, message, http.StatusConflict, details)
}

// NewUnauthorized reports a missing or rejected credential.
func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

// NewInternalError hides err behind a generic message.
func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// FromResponse rebuilds a DomainError from an API error envelope.
func FromResponse(status int, code, message string, details map[string]any) *DomainError {
	if code == "" {
		code = codeForStatus(status)
	}
	if message == "" {
		message = http.StatusText(status)
	}
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return CodeValidation
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusConflict:
		return CodeDuplicate
	case http.StatusUnprocessableEntity:
		return CodeInvalidOperation
	case http.StatusUnauthorized:
		return CodeUnauthorized
	default:
		return CodeInternal
	}
}

// HasCode reports whether err carries a DomainError with the given code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

func IsValidation(err error) bool       { return HasCode(err, CodeValidation) }
func IsNotFound(err error) bool         { return HasCode(err, CodeNotFound) }
func IsInvalidOperation(err error) bool { return HasCode(err, CodeInvalidOperation) }
func IsDuplicate(err error) bool        { return HasCode(err, CodeDuplicate) }

// ToDomainError converts generic errors to DomainError. sql.ErrNoRows becomes NOT_FOUND;
// anything else unrecognised becomes INTERNAL_ERROR.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, sql.ErrNoRows) {
		return NewNotFound("resource", nil).(*DomainError)
	}
	return NewInternalError(err).(*DomainError)
}
