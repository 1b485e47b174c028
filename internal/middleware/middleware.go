// Package middleware stores global and route-specific middleware.
//
// These intercept requests to handle cross-cutting concerns such as request
// ids, request-scoped logging, tracing, CORS, panic recovery and turning
// every error into a failure envelope.
package middleware
