package service

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/subtle"
	"fmt"

	cryptoDomain "github.com/allisson/billvault/internal/crypto/domain"
)

// CBCCipher implements BlockCipher with AES-256 in CBC mode and PKCS#7 padding.
//
// A fresh random IV is drawn for every call to Encrypt. The cipher carries no
// authentication tag; integrity of stored data is checked by the callers
// (content re-sniffing for artifacts). Every decryption failure, whatever the
// cause, is reported as ErrDecryptionFailed so padding errors cannot be told
// apart from length errors.
type CBCCipher struct{}

// NewCBCCipher creates a new AES-256-CBC cipher.
func NewCBCCipher() *CBCCipher {
	return &CBCCipher{}
}

// Encrypt pads plaintext and encrypts it under key with a random IV.
func (c *CBCCipher) Encrypt(key, plaintext []byte) ([]byte, []byte, error) {
	if len(key) != cryptoDomain.KeySize {
		return nil, nil, cryptoDomain.ErrInvalidKeySize
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	iv := make([]byte, cryptoDomain.IVSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, nil, fmt.Errorf("failed to generate iv: %w", err)
	}

	padded := pkcs7Pad(plaintext, aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)
	cryptoDomain.Zero(padded)

	return iv, ciphertext, nil
}

// Decrypt decrypts ciphertext under key and iv and strips the padding.
func (c *CBCCipher) Decrypt(key, iv, ciphertext []byte) ([]byte, error) {
	if len(key) != cryptoDomain.KeySize {
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	if len(iv) != cryptoDomain.IVSize {
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, cryptoDomain.ErrDecryptionFailed
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}

	padded := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(padded, ciphertext)

	plaintext, ok := pkcs7Unpad(padded, aes.BlockSize)
	if !ok {
		cryptoDomain.Zero(padded)
		return nil, cryptoDomain.ErrDecryptionFailed
	}

	return plaintext, nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	out := make([]byte, len(data), len(data)+n)
	copy(out, data)
	return append(out, bytes.Repeat([]byte{byte(n)}, n)...)
}

// pkcs7Unpad checks every padding byte without branching on which one differs.
func pkcs7Unpad(data []byte, blockSize int) ([]byte, bool) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, false
	}

	n := int(data[len(data)-1])
	valid := subtle.ConstantTimeLessOrEq(1, n) & subtle.ConstantTimeLessOrEq(n, blockSize)

	// Clamp so the comparisons below stay in range for an out-of-range n.
	span := subtle.ConstantTimeSelect(valid, n, blockSize)

	tail := data[len(data)-blockSize:]
	for i := range blockSize {
		inPad := subtle.ConstantTimeLessOrEq(blockSize-span, i)
		match := subtle.ConstantTimeByteEq(tail[i], byte(n))
		// Bytes inside the padding must equal n; bytes before it are ignored.
		valid &= match | (inPad ^ 1)
	}

	if valid != 1 {
		return nil, false
	}
	return data[:len(data)-n], true
}
