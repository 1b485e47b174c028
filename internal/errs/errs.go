// Package errs defines the closed error vocabulary of the service.
//
// Every failure, whatever produced it, is resolved to exactly one Condition
// before it leaves the core. A Condition carries a stable numeric code, a
// transport status class and a fixed client-safe message, so clients never
// see driver text, file paths or credentials.
package errs
