package domain

import (
	"github.com/allisson/billvault/internal/errors"
)

// Credential guard errors.
var (
	// ErrPrincipalNotFound indicates no principal exists with the given ID.
	ErrPrincipalNotFound = errors.Wrap(errors.ErrNotFound, "principal not found")

	// ErrPrincipalAlreadyExists indicates the principal name is taken.
	ErrPrincipalAlreadyExists = errors.Wrap(errors.ErrConflict, "principal already exists")

	// ErrPolicyViolation indicates a password that does not satisfy the password policy.
	ErrPolicyViolation = errors.Wrap(errors.ErrInvalidInput, "password policy violation")

	// ErrInvalidCredentials indicates a rejected password or API key.
	ErrInvalidCredentials = errors.Wrap(errors.ErrUnauthorized, "invalid credentials")

	// ErrPrincipalLocked indicates password attempts are suspended for the principal.
	ErrPrincipalLocked = errors.Wrap(errors.ErrLocked, "principal locked")

	// ErrAttemptTooSoon indicates a password attempt inside the minimum attempt interval.
	ErrAttemptTooSoon = errors.Wrap(errors.ErrTooManyRequests, "attempt too soon")

	// ErrInvalidTTL indicates a negative API key lifetime or one above the maximum.
	ErrInvalidTTL = errors.Wrap(errors.ErrInvalidInput, "api key ttl out of range")
)

// VerdictError maps a rejected verdict to the error a transport should report.
// It returns nil for VerdictAccepted.
func VerdictError(v Verdict) error {
	switch v {
	case VerdictAccepted:
		return nil
	case VerdictLocked:
		return ErrPrincipalLocked
	case VerdictThrottled:
		return ErrAttemptTooSoon
	default:
		return ErrInvalidCredentials
	}
}
