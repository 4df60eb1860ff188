package domain

import (
	"errors"
	"fmt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrSessionExpired = errors.New("session expired")
var ErrNoIdentity = errors.New("no authenticated identity")
var ErrNotFound = errors.New("not found")
var ErrGatewayUnavailable = errors.New("gateway unavailable")

// APIError is a non-2xx gateway response carrying the server's JSON error
// envelope ({"error": "..."} or a bare detail string).
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gateway returned status %d", e.Status)
	}
	return fmt.Sprintf("gateway returned status %d: %s", e.Status, e.Message)
}

// ValidationError is a rejected write carrying field-level messages, as
// returned by the registration endpoint (one list of messages per field).
type ValidationError struct {
	Status  int
	Fields  map[string][]string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("validation failed (%d fields)", len(e.Fields))
}

// FieldMessage returns the first message recorded for the named field, or
// "" when the field passed validation.
func (e *ValidationError) FieldMessage(field string) string {
	if msgs := e.Fields[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}
