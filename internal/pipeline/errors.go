package pipeline

import (
	"errors"
	"fmt"
)

// Request error codes. Stable: callers and the CLI match on these.
const (
	// CodeUnknownAction indicates a verb outside the accepted set.
	CodeUnknownAction = "unknown_action"

	// CodeEventNotFound indicates no original event exists for the
	// tenant and id in the request.
	CodeEventNotFound = "event_not_found"
)

// RequestError represents a rejected feedback request. These are caller
// mistakes (bad verb, unknown event), distinct from policy no-ops,
// which are successful acks, and from storage failures, which wrap
// through as plain errors.
type RequestError struct {
	// Code identifies the error category.
	Code string

	// Message is a human-readable description.
	Message string

	// EventID identifies the referenced event, when relevant.
	EventID string
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	if e.EventID != "" {
		return fmt.Sprintf("%s: %s (event=%s)", e.Code, e.Message, e.EventID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsUnknownActionError returns true for unknown-verb rejections.
// Uses errors.As to handle wrapped errors.
func IsUnknownActionError(err error) bool {
	var re *RequestError
	if errors.As(err, &re) {
		return re.Code == CodeUnknownAction
	}
	return false
}

// IsEventNotFoundError returns true for missing-original rejections.
// Uses errors.As to handle wrapped errors.
func IsEventNotFoundError(err error) bool {
	var re *RequestError
	if errors.As(err, &re) {
		return re.Code == CodeEventNotFound
	}
	return false
}

// NewUnknownActionError creates a RequestError for a verb outside the
// accepted set.
func NewUnknownActionError(action string) *RequestError {
	return &RequestError{
		Code:    CodeUnknownAction,
		Message: fmt.Sprintf("action %q is not one of approved, rejected, drm_triggered, undo", action),
	}
}

// NewEventNotFoundError creates a RequestError for a request naming an
// event the tenant does not have.
func NewEventNotFoundError(eventID string) *RequestError {
	return &RequestError{
		Code:    CodeEventNotFound,
		Message: "no original event for this tenant and id",
		EventID: eventID,
	}
}
