// Package common defines sentinel errors shared across layers of the
// prompta server. Callers should match them with errors.Is.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// ErrConflict covers duplicate prompt names per owner and write races
	// that survived the serialization retry budget.
	ErrConflict = errors.New("conflict")

	// Service-level errors.
	ErrValidation = errors.New("validation error")
	ErrInternal   = errors.New("internal error")

	// Auth errors at the HTTP boundary.
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
