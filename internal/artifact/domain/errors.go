package domain

import (
	"github.com/allisson/billvault/internal/errors"
)

// Artifact store rejection reasons.
var (
	// ErrUnsupportedType indicates the sniffed content type is not allow-listed.
	ErrUnsupportedType = errors.Wrap(errors.ErrInvalidInput, "unsupported content type")

	// ErrExtensionMismatch indicates the declared filename extension does not
	// match the sniffed content type.
	ErrExtensionMismatch = errors.Wrap(errors.ErrInvalidInput, "extension does not match content")

	// ErrEmptyArtifact indicates an upload with no content.
	ErrEmptyArtifact = errors.Wrap(errors.ErrInvalidInput, "empty artifact")

	// ErrInvalidName indicates a storage name that is not hash plus allow-listed extension.
	ErrInvalidName = errors.Wrap(errors.ErrInvalidInput, "invalid artifact name")

	// ErrArtifactNotFound indicates no object is stored under the requested name.
	ErrArtifactNotFound = errors.Wrap(errors.ErrNotFound, "artifact not found")

	// ErrIntegrityViolation indicates stored content no longer matches its name
	// or allow-listed type.
	ErrIntegrityViolation = errors.Wrap(errors.ErrIntegrity, "artifact integrity violation")

	// ErrStorage indicates the artifact could not be encrypted or persisted.
	ErrStorage = errors.Wrap(errors.ErrUnavailable, "artifact storage error")
)
