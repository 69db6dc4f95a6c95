// Package apperror defines a centralized system for application-specific errors.
// Every failure surfaced to an API client goes through one of these types, which
// keeps error responses consistent and makes the HTTP status mapping explicit
// in a single place instead of being scattered across handlers.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType defines the category of an application error.
type ErrorType int

const (
	// UnknownError is for unspecified errors
	UnknownError ErrorType = iota
	// DatabaseError represents an error originating from the database
	DatabaseError
	// ConfigError represents an error related to application configuration
	ConfigError
	// AuthError represents an authentication error (e.g. invalid credentials, missing token)
	AuthError
	// NotFoundError represents a resource not found error. This also covers
	// rows that exist but belong to another user: within an owner-scoped
	// query there is no observable difference between "absent" and "not
	// yours", and the response must not create one.
	NotFoundError
	// ValidationError represents an input validation error
	ValidationError
	// BadRequestError represents a generic bad request
	BadRequestError
	// InternalError represents a generic internal server error
	InternalError
	// MigrationError represents an error during database migrations
	MigrationError
	// ConflictError represents a conflict, e.g. resource already exists
	ConflictError
)

// AppError is the application's error type. It satisfies the standard `error`
// interface and can wrap an underlying error for debugging while exposing only
// its own Message to clients.
type AppError struct {
	Type    ErrorType
	Message string
	Err     error // Underlying error
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error, making AppError participate in the
// errors.Is / errors.As chain.
func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status code appropriate for the error type.
func (e *AppError) StatusCode() int {
	switch e.Type {
	case DatabaseError, ConfigError, MigrationError, InternalError:
		return http.StatusInternalServerError
	case AuthError:
		return http.StatusUnauthorized
	case NotFoundError:
		return http.StatusNotFound
	case ValidationError, BadRequestError:
		return http.StatusBadRequest
	case ConflictError:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// NewAppError creates a new AppError. Generic constructor for error types not
// covered by the specific constructors below.
func NewAppError(errType ErrorType, message string, underlyingError error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Err:     underlyingError,
	}
}

// NewDatabaseError creates a new DatabaseError
func NewDatabaseError(message string, underlyingError error) *AppError {
	return NewAppError(DatabaseError, message, underlyingError)
}

// NewConfigError creates a new ConfigError
func NewConfigError(message string, underlyingError error) *AppError {
	return NewAppError(ConfigError, message, underlyingError)
}

// NewAuthError creates a new AuthError
func NewAuthError(message string, underlyingError error) *AppError {
	return NewAppError(AuthError, message, underlyingError)
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(message string, underlyingError error) *AppError {
	return NewAppError(NotFoundError, message, underlyingError)
}

// NewValidationError creates a new ValidationError
func NewValidationError(message string, underlyingError error) *AppError {
	return NewAppError(ValidationError, message, underlyingError)
}

// NewBadRequestError creates a new BadRequestError
func NewBadRequestError(message string, underlyingError error) *AppError {
	return NewAppError(BadRequestError, message, underlyingError)
}

// NewInternalError creates a new InternalError
func NewInternalError(message string, underlyingError error) *AppError {
	return NewAppError(InternalError, message, underlyingError)
}

// NewMigrationError creates a new MigrationError
func NewMigrationError(message string, underlyingError error) *AppError {
	return NewAppError(MigrationError, message, underlyingError)
}

// NewConflictError creates a new ConflictError
func NewConflictError(message string, underlyingError error) *AppError {
	return NewAppError(ConflictError, message, underlyingError)
}

// ErrorResponse represents a generic error response payload for API clients.
type ErrorResponse struct {
	Error string `json:"error" example:"A description of the error"`
}

// ToResponse converts an AppError to an ErrorResponse suitable for API
// responses. Only the user-facing Message is included, never the wrapped error.
func (e *AppError) ToResponse() ErrorResponse {
	return ErrorResponse{Error: e.Message}
}

// FromError attempts to convert a generic error to an *AppError.
// It returns the *AppError and true if successful, otherwise nil and false.
func FromError(err error) (*AppError, bool) {
	if err == nil {
		return nil, false
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// IsNotFound checks if an error is a NotFound error
func IsNotFound(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == NotFoundError
}

// IsAuthError checks if an error is an AuthError
func IsAuthError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == AuthError
}

// IsValidationError checks if an error is a Validation error
func IsValidationError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == ValidationError
}

// IsConflictError checks if an error is a Conflict error
func IsConflictError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == ConflictError
}
