package model

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound is returned when a key or remote entity is absent.
	ErrNotFound = errors.New("not found")
	// ErrMalformedRecord is returned when a stored value cannot be decoded or fails validation.
	ErrMalformedRecord = errors.New("malformed record")
	// ErrVersionConflict is returned when a conditional write loses against a concurrent writer.
	ErrVersionConflict = errors.New("version conflict")

	ErrUnauthenticated = errors.New("not authenticated")
	ErrSessionExpired  = errors.New("session expired")
	ErrInvalidQuantity = errors.New("quantity cannot be less than 1")
	ErrEmptySnapshot   = errors.New("checkout snapshot is empty")
	ErrEmptyCart       = errors.New("cart is empty")
	ErrBusy            = errors.New("operation already in progress")
	ErrInvalidState    = errors.New("operation not allowed in current checkout state")

	ErrNoMatch             = errors.New("no geocoding match")
	ErrLocationUnavailable = errors.New("location unavailable")

	ErrGatewayUnavailable = errors.New("payment gateway failed to load")
	ErrPaymentDismissed   = errors.New("payment dismissed")

	ErrRegistrationTimeout = errors.New("registration request timed out")
	ErrResendCooldown      = errors.New("otp resend is cooling down")
)

// ValidationError describes a form field that failed validation before any network call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a ValidationError for field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// APIError is a non-2xx response of the remote API. Message is the server's
// own message when the body carried one.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, http.StatusText(e.Status))
}

// APIMessage returns the server message carried by err, or fallback.
func APIMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// HasStatus reports whether err is an APIError with the given status.
func HasStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}
