package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrGatewayUnavailable    = errors.New("payment gateway unavailable")
	ErrConflict              = errors.New("resource conflict")
	ErrDependencyUnavailable = errors.New("dependency unavailable")

	// ErrSignatureMismatch marks a notification whose signature did not
	// verify. The webhook surface still acknowledges it; the business layer
	// drops it.
	ErrSignatureMismatch = errors.New("notification signature mismatch")
)
