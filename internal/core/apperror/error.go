// Package apperror defines the error type returned across layer boundaries.
// Handlers turn it into a JSON problem body; anything else becomes a 500.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	CodeInternal = "INTERNAL_ERROR"

	CodeValidation = "VALIDATION_ERROR"

	CodeBusinessRule           = "BUSINESS_RULE_VIOLATION"
	CodeNoActiveBranch         = "NO_ACTIVE_BRANCH"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"

	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"

	CodeNotFound = "NOT_FOUND"

	CodeConflict  = "CONFLICT"
	CodeDuplicate = "DUPLICATE_ENTRY"
)

var statusByCode = map[string]int{
	CodeInternal:               http.StatusInternalServerError,
	CodeValidation:             http.StatusBadRequest,
	CodeBusinessRule:           http.StatusUnprocessableEntity,
	CodeNoActiveBranch:         http.StatusUnprocessableEntity,
	CodeConcurrentModification: http.StatusConflict,
	CodeUnauthorized:           http.StatusUnauthorized,
	CodeForbidden:              http.StatusForbidden,
	CodeNotFound:               http.StatusNotFound,
	CodeConflict:               http.StatusConflict,
	CodeDuplicate:              http.StatusConflict,
}

// AppError carries a machine-readable code, a client-safe message and an
// optional cause that is logged but never serialized.
type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	HTTPStatus int            `json:"-"`
	Err        error          `json:"-"`
}

// New creates an error whose status follows from code. Unknown codes are
// business rule violations.
func New(code, message string) *AppError {
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusUnprocessableEntity
	}
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error.
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

func NewValidation(message string) *AppError {
	return New(CodeValidation, message)
}

func NewNotFound(entity string, id any) *AppError {
	return New(CodeNotFound, entity+" not found").
		WithDetail("entity", entity).
		WithDetail("id", id)
}

// NewBusinessRule creates a 422 with a caller-chosen code.
func NewBusinessRule(code, message string) *AppError {
	e := New(code, message)
	e.HTTPStatus = http.StatusUnprocessableEntity
	return e
}

// NewNoActiveBranch is returned when a branch-scoped operation runs without a
// resolved branch. It never degrades to an unscoped operation.
func NewNoActiveBranch() *AppError {
	return New(CodeNoActiveBranch, "no active branch selected")
}

// NewConcurrentModification reports a failed optimistic version check.
func NewConcurrentModification(entity string, id any) *AppError {
	return New(CodeConcurrentModification, entity+" was modified concurrently, reload and retry").
		WithDetail("entity", entity).
		WithDetail("id", id)
}

// NewInternal hides err from the client; it is kept as the cause for logging.
func NewInternal(err error) *AppError {
	return New(CodeInternal, "internal server error").WithCause(err)
}

func NewUnauthorized(message string) *AppError {
	return New(CodeUnauthorized, message)
}

func NewForbidden(message string) *AppError {
	return New(CodeForbidden, message)
}

func NewConflict(message string) *AppError {
	return New(CodeConflict, message)
}

func NewDuplicate(entity, field, value string) *AppError {
	return New(CodeDuplicate, fmt.Sprintf("%s with this %s already exists", entity, field)).
		WithDetail("entity", entity).
		WithDetail("field", field).
		WithDetail("value", value)
}

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Wrap returns err as an AppError, converting anything foreign to NewInternal.
func Wrap(err error) *AppError {
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}
	return NewInternal(err)
}

// HasCode reports whether err is an AppError with the given code.
func HasCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

func IsNotFound(err error) bool {
	return HasCode(err, CodeNotFound)
}

func IsForbidden(err error) bool {
	return HasCode(err, CodeForbidden)
}

func IsNoActiveBranch(err error) bool {
	return HasCode(err, CodeNoActiveBranch)
}
