// Package service provides the audit redactor and entry signer.
package service

import (
	auditDomain "github.com/allisson/billvault/internal/audit/domain"
)

// Redactor masks sensitive values before an entry is persisted.
type Redactor interface {
	// Redact masks sensitive name/value pairs in free text. It never returns
	// the input unredacted when redaction cannot be applied.
	Redact(detail string) string

	// RedactMetadata returns a copy of metadata with sensitive keys masked.
	RedactMetadata(metadata map[string]any) map[string]any
}

// Signer computes and checks entry signatures.
type Signer interface {
	Sign(entry *auditDomain.Entry) ([]byte, error)
	Verify(entry *auditDomain.Entry) error
}
