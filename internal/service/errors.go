package service

import "fmt"

// MissingFieldsMessage is the client-facing message for any malformed alert request.
const MissingFieldsMessage = "Missing required fields: emails, platform, link"

// ValidationError is returned when request data fails validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for %q: %s", e.Field, e.Message)
	}
	return e.Message
}

// DeliveryError is returned when an alert could not be handed to the
// dispatcher at all. Per-recipient failures are never reported this way.
type DeliveryError struct {
	Err error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivering alert: %v", e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
