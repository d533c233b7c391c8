package domain

import "errors"

var (
	ErrInvalidInput           = errors.New("invalid input")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrForbidden              = errors.New("forbidden")
	ErrNotFound               = errors.New("resource not found")
	ErrConflict               = errors.New("conflict")
	ErrRateLimitExceeded      = errors.New("rate limit exceeded")
	ErrIdempotencyConflict    = errors.New("idempotency conflict")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrNoSlotsAvailable       = errors.New("no slots available")
	ErrNotEligible            = errors.New("tester not eligible")
	ErrAccountLocked          = errors.New("account temporarily locked")
	ErrUnsupportedEventType   = errors.New("unsupported event type")
	ErrStorageUnavailable     = errors.New("storage unavailable")
	ErrDependencyUnavailable  = errors.New("dependency unavailable")
)
