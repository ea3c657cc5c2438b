package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("validation error")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrInvalidToken      = errors.New("invalid token")
	ErrActivationExpired = errors.New("activation expired")
)

// AppError carries an error kind together with a caller-facing message.
// The HTTP layer maps kinds to status codes.
type AppError struct {
	Err     error  // sentinel kind
	Message string // human-readable error message
	Field   string // optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource string, id int64) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %d", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

func InvalidToken() *AppError {
	return &AppError{
		Err:     ErrInvalidToken,
		Message: "Invalid token",
	}
}

func ActivationExpired() *AppError {
	return &AppError{
		Err:     ErrActivationExpired,
		Message: "Activation Expired",
	}
}
