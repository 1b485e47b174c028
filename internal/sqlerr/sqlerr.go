// Package sqlerr translates native store failures into errs.Condition values.
//
// It is the single boundary where pgx, pgxpool, go-redis and network errors
// are inspected. Callers above it only ever see Conditions: the native error is
// logged here, with its vendor code, and then dropped.
package sqlerr
