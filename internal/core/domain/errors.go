package domain

import "errors"

// Validation errors, reported before any storage access.
var (
	ErrInvalidIdentifier = errors.New("invalid identifier")
	ErrWeakSecret        = errors.New("secret does not meet policy")
)

// Account errors.
var (
	ErrDuplicateIdentifier = errors.New("identifier already registered")
	ErrAccountNotFound     = errors.New("account not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrTooManyAttempts     = errors.New("too many failed login attempts")
)

// Token errors. Callers should surface all of them as "unauthorized".
var (
	ErrMalformedToken   = errors.New("malformed token")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrTokenExpired     = errors.New("token expired")
	ErrTokenNotYetValid = errors.New("token not yet valid")
)

// IsTokenError reports whether err is one of the token validation failures.
func IsTokenError(err error) bool {
	return errors.Is(err, ErrMalformedToken) ||
		errors.Is(err, ErrInvalidSignature) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrTokenNotYetValid)
}
