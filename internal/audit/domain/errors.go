package domain

import (
	"github.com/allisson/billvault/internal/errors"
)

// RedactionFailedPlaceholder replaces a detail that could not be safely redacted.
const RedactionFailedPlaceholder = "[redaction failed]"

// Mask replaces every redacted value.
const Mask = "*****"

// Audit trail errors.
var (
	// ErrSignatureInvalid indicates an entry whose signature does not match its content.
	ErrSignatureInvalid = errors.Wrap(errors.ErrIntegrity, "audit signature invalid")

	// ErrInvalidSigningKey indicates missing or malformed audit signing key material.
	ErrInvalidSigningKey = errors.Wrap(errors.ErrInvalidInput, "invalid audit signing key")

	// ErrWriteFailed indicates the audit sink rejected an entry.
	ErrWriteFailed = errors.Wrap(errors.ErrUnavailable, "audit write failed")
)
