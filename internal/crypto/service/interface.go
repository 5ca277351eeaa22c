// Package service provides envelope encryption on top of an external
// key-management service: a key gateway, an AES-256-CBC cipher, the envelope
// engine and the field codec built on it.
package service

import (
	"context"

	cryptoDomain "github.com/allisson/billvault/internal/crypto/domain"
)

// KeyGateway is the narrow contract consumed from the key-management service.
type KeyGateway interface {
	// GenerateDataKey returns a fresh data key in plaintext and wrapped form.
	// Fails with ErrKeyServiceUnavailable or ErrKeyServiceDenied.
	GenerateDataKey(ctx context.Context) (*cryptoDomain.DataKey, error)

	// UnwrapDataKey recovers the plaintext of a wrapped data key.
	// Fails with ErrKeyUnwrapFailed, ErrKeyServiceUnavailable or ErrKeyServiceDenied.
	UnwrapDataKey(ctx context.Context, wrapped []byte) ([]byte, error)
}

// Keeper is the subset of *secrets.Keeper used by KeeperGateway.
type Keeper interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
	Close() error
}

// BlockCipher encrypts and decrypts with a caller-supplied key and IV.
type BlockCipher interface {
	Encrypt(key, plaintext []byte) (iv, ciphertext []byte, err error)
	Decrypt(key, iv, ciphertext []byte) ([]byte, error)
}

// EnvelopeEncrypter is implemented by EnvelopeEngine and consumed by the
// artifact store and the field codec.
type EnvelopeEncrypter interface {
	Encrypt(ctx context.Context, plaintext []byte) (*cryptoDomain.Envelope, error)
	Decrypt(ctx context.Context, envelope *cryptoDomain.Envelope) ([]byte, error)
}
