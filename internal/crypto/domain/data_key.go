package domain

// DataKey is the per-operation symmetric key produced by the key gateway.
//
// Plaintext exists only in process memory for the duration of one encrypt or
// decrypt call and must be wiped with Destroy once the cipher work is done.
// Wrapped is the opaque blob returned by the key-management service; it is
// safe to persist next to the ciphertext.
type DataKey struct {
	Plaintext []byte
	Wrapped   []byte
}

// Destroy wipes the plaintext key material. Safe to call on a nil receiver.
func (k *DataKey) Destroy() {
	if k == nil {
		return
	}
	Zero(k.Plaintext)
	k.Plaintext = nil
}
