package errors

import (
	"errors"
	"net/http"
)

// Domain errors
var (
	ErrNotFound           = errors.New("resource not found")
	ErrConflict           = errors.New("resource conflict")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrStoreUnavailable   = errors.New("store unavailable")
)

// Error codes rendered in the response body
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeTooManyRequests    = "TOO_MANY_REQUESTS"
	CodeStoreUnavailable   = "STORE_UNAVAILABLE"
	CodeInternal           = "INTERNAL_ERROR"
)

// AppError represents application error with HTTP status
type AppError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new app error
func NewAppError(status int, code, message string, err error) *AppError {
	return &AppError{
		Status:  status,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Rejection is a client-correctable failure of a validation rule. Reason is
// the full human readable message, e.g. "username already used".
type Rejection struct {
	Field  string
	Reason string
}

func (r *Rejection) Error() string {
	return r.Reason
}

func (r *Rejection) Unwrap() error {
	return ErrInvalidInput
}

// Reject builds a Rejection for field.
func Reject(field, reason string) *Rejection {
	return &Rejection{Field: field, Reason: reason}
}

// ConflictError is a unique constraint violation reported by the store at
// write time. Field is empty when the violated index could not be determined.
type ConflictError struct {
	Field string
	Err   error
}

func (e *ConflictError) Error() string {
	if e.Field == "" {
		return "record conflicts with an existing user"
	}
	return e.Field + " already used"
}

func (e *ConflictError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrConflict}
	}
	return []error{ErrConflict, e.Err}
}

// Common error constructors
func NotFound(message string) *AppError {
	return NewAppError(http.StatusNotFound, CodeNotFound, message, ErrNotFound)
}

func BadRequest(field, message string) *AppError {
	e := NewAppError(http.StatusBadRequest, CodeValidation, message, ErrInvalidInput)
	e.Field = field
	return e
}

func Conflict(field, message string) *AppError {
	e := NewAppError(http.StatusConflict, CodeConflict, message, ErrConflict)
	e.Field = field
	return e
}

func Unauthorized(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, CodeUnauthorized, message, ErrUnauthorized)
}

func TooManyRequests(message string) *AppError {
	return NewAppError(http.StatusTooManyRequests, CodeTooManyRequests, message, nil)
}

func StoreUnavailable(err error) *AppError {
	return NewAppError(http.StatusServiceUnavailable, CodeStoreUnavailable, "store unavailable", err)
}

func InternalError(err error) *AppError {
	return NewAppError(http.StatusInternalServerError, CodeInternal, "internal server error", err)
}

// FromError maps any error returned by the core onto an AppError.
func FromError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var rejection *Rejection
	if errors.As(err, &rejection) {
		return BadRequest(rejection.Field, rejection.Reason)
	}

	var conflict *ConflictError
	if errors.As(err, &conflict) {
		return Conflict(conflict.Field, conflict.Error())
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return NotFound("user not found")
	case errors.Is(err, ErrConflict):
		return Conflict("", err.Error())
	case errors.Is(err, ErrStoreUnavailable):
		return StoreUnavailable(err)
	case errors.Is(err, ErrInvalidCredentials):
		return NewAppError(http.StatusUnauthorized, CodeInvalidCredentials, "invalid username or password", err)
	case errors.Is(err, ErrTokenExpired):
		return NewAppError(http.StatusUnauthorized, CodeUnauthorized, "token has expired", err)
	case errors.Is(err, ErrUnauthorized):
		return Unauthorized("unauthorized")
	}
	return InternalError(err)
}
