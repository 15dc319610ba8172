package domain

import "errors"

// Sentinel errors matched with errors.Is across services and the HTTP layer.
var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrAlreadyInState    = errors.New("already in requested state")
	ErrNotInState        = errors.New("not in required state")
	ErrSyncFailure       = errors.New("external sync failed")
)
