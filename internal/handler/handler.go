// Package handler is the first layer after the router.
//
// It binds and validates requests using the validation package, calls the
// service layer and hands the result to the response envelope.
package handler
