// Package service contains the business logic.
//
// It sits between the handler and repository layers: it receives validated
// data from the handler, performs business operations and calls the
// repositories and the cache.
package service
