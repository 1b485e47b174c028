// Package repository handles all interactions with the database.
//
// It contains the SQL and maps rows to models. Every failure leaves this
// package as a registry condition.
package repository
