// Package common defines shared constants and sentinel errors used across
// the devfolio server layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")

	// Validation errors (missing or malformed input).
	ErrValidation = errors.New("validation error")

	// Auth and ownership errors.
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")

	// Downstream failures (database, object storage).
	ErrUnavailable = errors.New("service unavailable")

	// Generic internal flow control.
	ErrInternal = errors.New("internal error")
)
