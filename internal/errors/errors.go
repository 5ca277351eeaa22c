// Package errors holds the error categories shared by every billvault domain.
// Domain packages wrap their own sentinels around one of these categories and
// the HTTP layer maps each category to a status code.
package errors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized covers unknown principals as well as wrong secrets.
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// ErrLocked means the principal is locked out until its lockout expires.
	ErrLocked = errors.New("locked")
	// ErrTooManyRequests means an attempt arrived before the throttle delay elapsed.
	ErrTooManyRequests = errors.New("too many requests")

	// ErrUnavailable marks failures of an external dependency, such as the
	// key service or the object store. Callers may retry.
	ErrUnavailable = errors.New("service unavailable")
	// ErrIntegrity marks stored data that failed authentication on read.
	ErrIntegrity = errors.New("integrity violation")
)

// categories lists every category in match order. A joined error carrying
// more than one category resolves to the first listed here.
var categories = []error{
	ErrUnavailable,
	ErrIntegrity,
	ErrLocked,
	ErrTooManyRequests,
	ErrUnauthorized,
	ErrForbidden,
	ErrNotFound,
	ErrConflict,
	ErrInvalidInput,
}

// Category returns the category err belongs to, or nil for uncategorized errors.
func Category(err error) error {
	if err == nil {
		return nil
	}
	for _, category := range categories {
		if errors.Is(err, category) {
			return category
		}
	}
	return nil
}

// Wrap prefixes err with message. It returns nil when err is nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target any) bool { return errors.As(err, target) }

func Join(errs ...error) error { return errors.Join(errs...) }
