package domain

import "errors"

var (
	// ErrNotFound is returned when the requested resource does not exist.
	// Keeping this sentinel in domain allows adapters to map it consistently to 404/NOT_FOUND.
	ErrNotFound = errors.New("resource not found")
	// ErrInvalidCredentials hides whether email or password failed.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidCode covers mismatched, expired, and absent one-time codes alike.
	ErrInvalidCode  = errors.New("invalid or expired code")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrTokenExpired = errors.New("token expired")
	// ErrDelivery signals an upstream mail delivery failure; any code stored
	// before the attempt remains valid.
	ErrDelivery = errors.New("delivery failed")
)
