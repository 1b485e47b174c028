// Package validation binds and validates request data.
//
// It uses the `validator` library to enforce rules defined in struct tags.
// Field-level problems are logged for the server; the client only ever sees
// the registry's bad_request condition.
package validation
