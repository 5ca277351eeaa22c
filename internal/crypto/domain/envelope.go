package domain

// Envelope is the transportable result of one envelope encryption.
//
// Ciphertext is the PKCS#7 padded payload encrypted with AES-256-CBC under a
// data key that exists only for this envelope. WrappedKey is that data key as
// returned by the key-management service, so the envelope can only be opened
// by a gateway able to unwrap it.
type Envelope struct {
	IV         []byte
	Ciphertext []byte
	WrappedKey []byte
}

// Payload returns iv||ciphertext, the layout used when an envelope is
// serialized into a single opaque value.
func (e *Envelope) Payload() []byte {
	out := make([]byte, 0, len(e.IV)+len(e.Ciphertext))
	out = append(out, e.IV...)
	return append(out, e.Ciphertext...)
}

// EnvelopeFromPayload splits iv||ciphertext back into an Envelope.
func EnvelopeFromPayload(payload, wrappedKey []byte) (*Envelope, error) {
	if len(payload) <= IVSize {
		return nil, ErrMalformedEnvelope
	}
	return &Envelope{
		IV:         payload[:IVSize],
		Ciphertext: payload[IVSize:],
		WrappedKey: wrappedKey,
	}, nil
}
