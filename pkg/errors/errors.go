package errors

import "net/http"

// AppError is a custom error type that includes an HTTP status code
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"`
}

func (e *AppError) Error() string {
	return e.Message
}

// NewAppError creates a new AppError
func NewAppError(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Error kinds let clients distinguish the two 409 cases: a transition
// attempted on an already-resolved offer vs. a lost provisioning race
// that should be retried with a fresh lookup.
const (
	KindValidation   = "validation"
	KindNotFound     = "not_found"
	KindForbidden    = "forbidden"
	KindInvalidState = "invalid_state"
	KindConflict     = "conflict"
)

// Common errors
var (
	ErrInvalidRequest = NewAppError(http.StatusBadRequest, "Invalid request parameters")
	ErrUnauthorized   = NewAppError(http.StatusUnauthorized, "Unauthorized access")
	ErrForbidden      = NewAppError(http.StatusForbidden, "Access denied")
	ErrNotFound       = NewAppError(http.StatusNotFound, "Resource not found")
	ErrInternalServer = NewAppError(http.StatusInternalServerError, "Internal server error")
	ErrRateLimit      = NewAppError(http.StatusTooManyRequests, "Rate limit exceeded")
)

// Helper functions to create specific errors

func Validation(msg string) *AppError {
	return &AppError{Code: http.StatusBadRequest, Message: msg, Kind: KindValidation}
}

func NotFound(msg string) *AppError {
	return &AppError{Code: http.StatusNotFound, Message: msg, Kind: KindNotFound}
}

func Unauthorized(msg string) *AppError {
	return &AppError{Code: http.StatusUnauthorized, Message: msg}
}

func Forbidden(msg string) *AppError {
	return &AppError{Code: http.StatusForbidden, Message: msg, Kind: KindForbidden}
}

// InvalidState marks a transition attempted on a terminal offer.
// Callers should treat it as "already resolved", not retry.
func InvalidState(msg string) *AppError {
	return &AppError{Code: http.StatusConflict, Message: msg, Kind: KindInvalidState}
}

// Conflict marks a lost uniqueness race. Callers should re-run the
// idempotent lookup path.
func Conflict(msg string) *AppError {
	return &AppError{Code: http.StatusConflict, Message: msg, Kind: KindConflict}
}

func Internal(msg string) *AppError {
	return &AppError{Code: http.StatusInternalServerError, Message: msg}
}

func kindOf(err error) string {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Kind
	}
	return ""
}

func IsValidation(err error) bool   { return kindOf(err) == KindValidation }
func IsNotFound(err error) bool     { return kindOf(err) == KindNotFound }
func IsForbidden(err error) bool    { return kindOf(err) == KindForbidden }
func IsInvalidState(err error) bool { return kindOf(err) == KindInvalidState }
func IsConflict(err error) bool     { return kindOf(err) == KindConflict }
