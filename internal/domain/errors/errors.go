package errors

import (
	"context"
	"errors"
	"fmt"
)

var (
	// Booking errors
	ErrBookingNotFound        = errors.New("booking not found")
	ErrInvalidServiceType     = errors.New("invalid service type")
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// Payment errors
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidCurrency = errors.New("invalid currency")
	ErrPaymentDeclined = errors.New("payment declined by gateway")

	// Gateway errors
	ErrGatewayNotConfigured = errors.New("no payment gateway configured")
	ErrUnsupportedCurrency  = errors.New("currency not supported by gateway")
	ErrGatewayTimeout       = errors.New("gateway request timeout")
	ErrGatewayUnavailable   = errors.New("gateway unavailable")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrInvalidInput     = errors.New("invalid input")
)

// IsTransient reports whether err is a network/server-class failure worth
// retrying. Declines and validation failures are never transient.
func IsTransient(err error) bool {
	return errors.Is(err, ErrGatewayTimeout) ||
		errors.Is(err, ErrGatewayUnavailable) ||
		errors.Is(err, context.DeadlineExceeded)
}

// IsDeclined reports whether err is a business decline: a terminal outcome
// that must surface immediately without a retry.
func IsDeclined(err error) bool {
	return errors.Is(err, ErrPaymentDeclined) || errors.Is(err, ErrUnsupportedCurrency)
}

// DomainError wraps errors with a stable code and additional context.
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func NewDomainError(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ValidationError reports a single invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}
