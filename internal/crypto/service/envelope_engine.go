package service

import (
	"context"

	cryptoDomain "github.com/allisson/billvault/internal/crypto/domain"
	"github.com/allisson/billvault/internal/errors"
)

// EnvelopeEngine encrypts payloads under one-time data keys from a KeyGateway.
//
// Each Encrypt call asks the gateway for a new key, so no two envelopes share
// key material. The plaintext key is wiped before returning on every path.
type EnvelopeEngine struct {
	gateway KeyGateway
	cipher  BlockCipher
}

// NewEnvelopeEngine creates an EnvelopeEngine.
func NewEnvelopeEngine(gateway KeyGateway, cipher BlockCipher) *EnvelopeEngine {
	return &EnvelopeEngine{gateway: gateway, cipher: cipher}
}

// Encrypt seals plaintext into a new Envelope.
func (e *EnvelopeEngine) Encrypt(ctx context.Context, plaintext []byte) (*cryptoDomain.Envelope, error) {
	dataKey, err := e.gateway.GenerateDataKey(ctx)
	if err != nil {
		return nil, err
	}
	defer dataKey.Destroy()

	iv, ciphertext, err := e.cipher.Encrypt(dataKey.Plaintext, plaintext)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encrypt payload")
	}

	return &cryptoDomain.Envelope{
		IV:         iv,
		Ciphertext: ciphertext,
		WrappedKey: dataKey.Wrapped,
	}, nil
}

// Decrypt opens an Envelope.
//
// An unreachable key service is reported as ErrKeyServiceUnavailable so the
// caller may retry. Every other failure is ErrDecryptionFailed.
func (e *EnvelopeEngine) Decrypt(ctx context.Context, envelope *cryptoDomain.Envelope) ([]byte, error) {
	if envelope == nil || len(envelope.WrappedKey) == 0 {
		return nil, cryptoDomain.ErrDecryptionFailed
	}

	key, err := e.gateway.UnwrapDataKey(ctx, envelope.WrappedKey)
	if err != nil {
		if errors.Is(err, cryptoDomain.ErrKeyServiceUnavailable) {
			return nil, err
		}
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	defer cryptoDomain.Zero(key)

	plaintext, err := e.cipher.Decrypt(key, envelope.IV, envelope.Ciphertext)
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}

	return plaintext, nil
}
