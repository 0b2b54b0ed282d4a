package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Custom error types for the QR code service

// ErrQRCodeNotFound is returned when a QR code id doesn't resolve to a stored record
var ErrQRCodeNotFound = errors.New("qr code not found")

// ErrShortIDGenerationFailed is returned when we can't generate a unique short id
var ErrShortIDGenerationFailed = errors.New("failed to generate unique short id")

// ErrDatabaseConnection is returned when database connection fails
var ErrDatabaseConnection = errors.New("database connection failed")

// ErrQuotaExceeded is returned when the external rate-limit collaborator signals over-limit
var ErrQuotaExceeded = errors.New("rate limit exceeded")

// ErrUnavailable is returned when an external dependency is unreachable
var ErrUnavailable = errors.New("dependency unavailable")

// FieldError describes a single invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when request fields or persistence constraints
// are violated. It carries the field-level detail list exposed to the caller.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return "validation failed: " + strings.Join(msgs, ", ")
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// EncodingError is returned when the underlying QR encoder cannot render the
// given inputs (e.g. text too dense for the chosen error correction level).
type EncodingError struct {
	Reason string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("qr encoding failed: %s", e.Reason)
}

// EventRecordingError is returned when persisting an analytics event fails.
// Event recording is best-effort, so callers typically log this and move on.
type EventRecordingError struct {
	QRCodeID string
	Reason   string
}

func (e *EventRecordingError) Error() string {
	return fmt.Sprintf("failed to record event for qr code %s: %s", e.QRCodeID, e.Reason)
}
