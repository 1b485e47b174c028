package errs

import (
	"errors"
	"fmt"
)

// StatusClass is the transport-level class of a Condition.
// It is the only input used to pick the HTTP status of an error response.
type StatusClass int

const (
	BadRequest StatusClass = iota
	Unauthorized
	NotFound
	Conflict
	ServiceUnavailable
	Internal
	NotImplemented
)

func (s StatusClass) String() string {
	switch s {
	case BadRequest:
		return "bad_request"
	case Unauthorized:
		return "unauthorized"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	case ServiceUnavailable:
		return "service_unavailable"
	case NotImplemented:
		return "not_implemented"
	default:
		return "internal"
	}
}

// Name identifies an entry of the registry.
type Name string

// Condition is a named, classified failure outcome.
//
// It is a comparable value type: two Conditions are equal when all their
// fields are equal, which lets callers use errors.Is against the exported
// registry variables, e.g.
//
//	if errors.Is(err, errs.ErrDbRowNotFound) { ... }
type Condition struct {
	Name    Name
	Code    int64
	Class   StatusClass
	Message string
}

// Error makes Condition satisfy the error interface.
//
// The text includes the name and code for server-side logs. Clients only ever
// receive Message through the response envelope.
func (c Condition) Error() string {
	return fmt.Sprintf("%s (%d): %s", c.Name, c.Code, c.Message)
}

// Status returns the HTTP status code derived from the condition's class.
func (c Condition) Status() int {
	return c.Class.HTTPStatus()
}

// IsZero reports whether c is the zero Condition (not a registry entry).
func (c Condition) IsZero() bool {
	return c == Condition{}
}

// FromError extracts the Condition carried by err.
//
// The second result is false when err holds no Condition at all; the returned
// value is then the unknown-error entry so the caller still has something safe
// to put on the wire.
func FromError(err error) (Condition, bool) {
	var cond Condition
	if errors.As(err, &cond) {
		return cond, true
	}
	return ErrDbUnknownError, false
}
