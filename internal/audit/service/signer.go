package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	auditDomain "github.com/allisson/billvault/internal/audit/domain"
	cryptoDomain "github.com/allisson/billvault/internal/crypto/domain"
)

// minKeyMaterial is the shortest accepted signing key material.
const minKeyMaterial = 32

type hmacSigner struct {
	signingKey []byte
}

// NewSigner derives an HMAC-SHA256 key from keyMaterial with HKDF-SHA256
// (info "audit-entry-signing-v1") and returns a Signer using it.
func NewSigner(keyMaterial []byte) (Signer, error) {
	if len(keyMaterial) < minKeyMaterial {
		return nil, auditDomain.ErrInvalidSigningKey
	}

	reader := hkdf.New(sha256.New, keyMaterial, nil, []byte("audit-entry-signing-v1"))
	signingKey := make([]byte, 32)
	if _, err := io.ReadFull(reader, signingKey); err != nil {
		return nil, fmt.Errorf("failed to derive signing key: %w", err)
	}

	return &hmacSigner{signingKey: signingKey}, nil
}

// Sign returns the HMAC-SHA256 of the canonical encoding of entry.
// The Signature field itself is not covered.
func (s *hmacSigner) Sign(entry *auditDomain.Entry) ([]byte, error) {
	canonical, err := canonicalizeEntry(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize entry: %w", err)
	}
	defer cryptoDomain.Zero(canonical)

	mac := hmac.New(sha256.New, s.signingKey)
	mac.Write(canonical)
	return mac.Sum(nil), nil
}

// Verify checks entry.Signature in constant time.
func (s *hmacSigner) Verify(entry *auditDomain.Entry) error {
	expected, err := s.Sign(entry)
	if err != nil {
		return fmt.Errorf("failed to compute expected signature: %w", err)
	}
	if !hmac.Equal(entry.Signature, expected) {
		return auditDomain.ErrSignatureInvalid
	}
	return nil
}

// canonicalizeEntry encodes every signed field in a fixed order.
// Variable-length fields are length-prefixed so field boundaries are unambiguous.
func canonicalizeEntry(entry *auditDomain.Entry) ([]byte, error) {
	buf := make([]byte, 0, 512)
	buf = append(buf, entry.ID[:]...)
	buf = appendLengthPrefixed(buf, []byte(entry.RequestID))

	if entry.ActorID != nil {
		buf = appendLengthPrefixed(buf, entry.ActorID[:])
	} else {
		buf = appendLengthPrefixed(buf, nil)
	}

	buf = appendLengthPrefixed(buf, []byte(entry.Action))
	buf = appendLengthPrefixed(buf, []byte(entry.Resource))
	if entry.ResourceID != nil {
		buf = appendLengthPrefixed(buf, []byte(*entry.ResourceID))
	} else {
		buf = appendLengthPrefixed(buf, nil)
	}
	buf = appendLengthPrefixed(buf, []byte(entry.SourceAddress))
	buf = appendLengthPrefixed(buf, []byte(entry.AgentString))
	buf = appendLengthPrefixed(buf, []byte(entry.Outcome))
	buf = appendLengthPrefixed(buf, []byte(entry.Detail))

	if len(entry.Metadata) > 0 {
		// encoding/json sorts map keys, which keeps this deterministic.
		metadata, err := json.Marshal(entry.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal metadata: %w", err)
		}
		buf = appendLengthPrefixed(buf, metadata)
	} else {
		buf = appendLengthPrefixed(buf, nil)
	}

	buf = binary.BigEndian.AppendUint64(buf, uint64(entry.CreatedAt.UnixMicro()))
	return buf, nil
}

func appendLengthPrefixed(buf []byte, data []byte) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(data)))
	return append(buf, data...)
}
