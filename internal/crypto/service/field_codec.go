package service

import (
	"context"
	"encoding/base64"

	cryptoDomain "github.com/allisson/billvault/internal/crypto/domain"
	"github.com/allisson/billvault/internal/errors"
)

// FieldCodec turns string values into StoredField records and back.
type FieldCodec struct {
	engine EnvelopeEncrypter
}

// NewFieldCodec creates a FieldCodec over an envelope engine.
func NewFieldCodec(engine EnvelopeEncrypter) *FieldCodec {
	return &FieldCodec{engine: engine}
}

// Encode encrypts the UTF-8 bytes of value.
func (c *FieldCodec) Encode(ctx context.Context, value string) (cryptoDomain.StoredField, error) {
	plaintext := []byte(value)
	defer cryptoDomain.Zero(plaintext)

	envelope, err := c.engine.Encrypt(ctx, plaintext)
	if err != nil {
		return cryptoDomain.StoredField{}, errors.Wrap(err, "failed to encode field")
	}

	return cryptoDomain.StoredField{
		Data: base64.StdEncoding.EncodeToString(envelope.Payload()),
		Key:  base64.StdEncoding.EncodeToString(envelope.WrappedKey),
	}, nil
}

// Decode reverses Encode. It reports false instead of an error on any
// structural or decryption failure, so a single corrupt legacy field does not
// abort reading the rest of a record.
func (c *FieldCodec) Decode(ctx context.Context, stored cryptoDomain.StoredField) (string, bool) {
	payload, err := base64.StdEncoding.DecodeString(stored.Data)
	if err != nil {
		return "", false
	}
	wrappedKey, err := base64.StdEncoding.DecodeString(stored.Key)
	if err != nil || len(wrappedKey) == 0 {
		return "", false
	}

	envelope, err := cryptoDomain.EnvelopeFromPayload(payload, wrappedKey)
	if err != nil {
		return "", false
	}

	plaintext, err := c.engine.Decrypt(ctx, envelope)
	if err != nil {
		return "", false
	}
	defer cryptoDomain.Zero(plaintext)

	return string(plaintext), true
}
