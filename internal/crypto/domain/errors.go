package domain

import (
	"github.com/allisson/billvault/internal/errors"
)

// Envelope encryption and key gateway errors.
//
// Key service errors describe failures of the external key-management
// service and are surfaced to callers unchanged so they can decide whether to
// retry. Decryption errors are uniform: a bad unwrap, bad padding
// and a truncated ciphertext all produce ErrDecryptionFailed.
var (
	// ErrKeyServiceUnavailable indicates the key-management service could not be
	// reached or timed out. HTTP Status: 503 Service Unavailable
	ErrKeyServiceUnavailable = errors.Wrap(errors.ErrUnavailable, "key service unavailable")

	// ErrKeyServiceDenied indicates the key-management service rejected the caller.
	// HTTP Status: 403 Forbidden
	ErrKeyServiceDenied = errors.Wrap(errors.ErrForbidden, "key service denied")

	// ErrKeyUnwrapFailed indicates a wrapped key could not be recovered.
	ErrKeyUnwrapFailed = errors.Wrap(errors.ErrIntegrity, "key unwrap failed")

	// ErrInvalidKeySize indicates a data key that is not KeySize bytes long.
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "invalid key size")

	// ErrMalformedEnvelope indicates an envelope whose fields cannot be parsed.
	ErrMalformedEnvelope = errors.Wrap(errors.ErrIntegrity, "malformed envelope")

	// ErrDecryptionFailed indicates an envelope could not be opened.
	// HTTP Status: 422 Unprocessable Entity
	ErrDecryptionFailed = errors.Wrap(errors.ErrIntegrity, "decryption failed")
)
