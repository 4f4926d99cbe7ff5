package errors

import (
	"errors"
	"fmt"
)

// Error types for different failure classes
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeArithmetic ErrorType = "arithmetic"
	ErrorTypeIntegrity  ErrorType = "integrity"
	ErrorTypeStorage    ErrorType = "storage"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeInternal   ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type      ErrorType              `json:"type"`
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Cause     error                  `json:"-"`
	Retryable bool                   `json:"retryable"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// Error constructors
func NewValidationError(code, message string) *AppError {
	return &AppError{
		Type:      ErrorTypeValidation,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

func NewArithmeticError(code, message string) *AppError {
	return &AppError{
		Type:      ErrorTypeArithmetic,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

func NewIntegrityError(code, message string) *AppError {
	return &AppError{
		Type:      ErrorTypeIntegrity,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

func NewStorageError(message string) *AppError {
	return &AppError{
		Type:      ErrorTypeStorage,
		Code:      "STORAGE_FAULT",
		Message:   message,
		Retryable: true,
	}
}

func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Type:      ErrorTypeNotFound,
		Code:      "RESOURCE_NOT_FOUND",
		Message:   fmt.Sprintf("%s not found", resource),
		Retryable: false,
	}
}

func NewInternalError(message string) *AppError {
	return &AppError{
		Type:      ErrorTypeInternal,
		Code:      "INTERNAL_ERROR",
		Message:   message,
		Retryable: true,
	}
}

// Predefined common errors
var (
	ErrInvalidInput = NewValidationError("INVALID_INPUT", "Invalid input provided")
)

// Wrap wraps an error with a message using fmt.Errorf with %w
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsType checks if an error is of a specific type
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Retryable
	}
	return false
}
