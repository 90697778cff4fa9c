package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Common application errors
var (
	ErrUserNotFound  = NewNotFoundError("user", "User not found")
	ErrInvalidUserID = NewInvalidArgumentError("id", "Invalid user id")
	ErrInternal      = NewInternalError("Internal server error", nil)
)

// HTTPStatuser is implemented by errors that know which HTTP status they map to.
type HTTPStatuser interface {
	HTTPStatus() int
}

// InvalidArgumentError represents a malformed or out-of-range argument, such as a path id.
type InvalidArgumentError struct {
	Field   string
	Message string
}

// NewInvalidArgumentError creates a new invalid argument error
func NewInvalidArgumentError(field, message string) *InvalidArgumentError {
	return &InvalidArgumentError{
		Field:   field,
		Message: message,
	}
}

// Error implements the error interface
func (e *InvalidArgumentError) Error() string {
	return e.Message
}

// HTTPStatus returns the HTTP status for this error
func (e *InvalidArgumentError) HTTPStatus() int {
	return http.StatusUnprocessableEntity
}

// ValidationError represents a validation failure with field-level details
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed: %s - %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// HTTPStatus returns the HTTP status for this error
func (e *ValidationError) HTTPStatus() int {
	return http.StatusUnprocessableEntity
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	Message  string
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource, message string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		Message:  message,
	}
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// HTTPStatus returns the HTTP status for this error
func (e *NotFoundError) HTTPStatus() int {
	return http.StatusNotFound
}

// AlreadyExistsError represents a uniqueness conflict, e.g. a duplicate email.
type AlreadyExistsError struct {
	Resource string
	Message  string
	Err      error
}

// NewAlreadyExistsError creates a new already exists error
func NewAlreadyExistsError(resource, message string) *AlreadyExistsError {
	return &AlreadyExistsError{
		Resource: resource,
		Message:  message,
	}
}

// NewIntegrityError creates an already exists error raised by a storage constraint.
// The low-level detail becomes part of the message.
func NewIntegrityError(resource string, err error) *AlreadyExistsError {
	return &AlreadyExistsError{
		Resource: resource,
		Message:  fmt.Sprintf("Database integrity error: %v", err),
		Err:      err,
	}
}

// Error implements the error interface
func (e *AlreadyExistsError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s already exists", e.Resource)
}

// Unwrap returns the wrapped error
func (e *AlreadyExistsError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the HTTP status for this error
func (e *AlreadyExistsError) HTTPStatus() int {
	return http.StatusBadRequest
}

// InternalError represents an internal server error with context
type InternalError struct {
	Message string
	Err     error
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *InternalError {
	return &InternalError{
		Message: message,
		Err:     err,
	}
}

// NewStorageError creates an internal error for a failed storage operation.
func NewStorageError(err error) *InternalError {
	return &InternalError{
		Message: fmt.Sprintf("Database error: %v", err),
		Err:     err,
	}
}

// Error implements the error interface
func (e *InternalError) Error() string {
	return e.Message
}

// Unwrap returns the wrapped error
func (e *InternalError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the HTTP status for this error
func (e *InternalError) HTTPStatus() int {
	return http.StatusInternalServerError
}

// StatusCode returns the HTTP status carried by err, or 500 for unclassified errors.
func StatusCode(err error) int {
	var s HTTPStatuser
	if errors.As(err, &s) {
		return s.HTTPStatus()
	}
	return http.StatusInternalServerError
}

// IsClassified reports whether err belongs to the application error taxonomy.
func IsClassified(err error) bool {
	var s HTTPStatuser
	return errors.As(err, &s)
}
