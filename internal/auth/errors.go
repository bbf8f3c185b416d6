package auth

import "errors"

// Closed error set for the authentication flow. Handlers dispatch on these
// with errors.Is instead of matching error strings.
var (
	ErrInvalidCredential = errors.New("auth: invalid address or signData")
	ErrDeactivated       = errors.New("auth: account deactivated")
	ErrInvalidToken      = errors.New("auth: invalid token")
	ErrUpstream          = errors.New("auth: upstream failure")
	ErrForbidden         = errors.New("auth: forbidden")
	ErrNotFound          = errors.New("auth: not found")
	ErrConflict          = errors.New("auth: already exists")
	ErrInvalidInput      = errors.New("auth: invalid input")
)
