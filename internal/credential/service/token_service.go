package service

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"

	apperrors "github.com/allisson/billvault/internal/errors"
)

// tokenSize is the number of random bytes in an API key (256 bits).
const tokenSize = 32

type tokenService struct{}

// NewTokenService creates a TokenService using SHA-256 for token hashing.
func NewTokenService() TokenService {
	return &tokenService{}
}

// Generate creates a base64 URL-encoded random token and its hash.
func (t *tokenService) Generate() (string, string, error) {
	randomBytes := make([]byte, tokenSize)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", "", apperrors.Wrap(err, "failed to generate random token")
	}

	token := base64.RawURLEncoding.EncodeToString(randomBytes)
	return token, t.Hash(token), nil
}

func (t *tokenService) Hash(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// Equal hashes candidate first, so both inputs to the comparison have the
// same length whatever the caller sent.
func (t *tokenService) Equal(candidate, tokenHash string) bool {
	if tokenHash == "" {
		return false
	}
	candidateHash := t.Hash(candidate)
	return subtle.ConstantTimeCompare([]byte(candidateHash), []byte(tokenHash)) == 1
}
