package service

import (
	"github.com/allisson/go-pwdhash"

	apperrors "github.com/allisson/billvault/internal/errors"
)

// dummyPassword is hashed once at startup so DummyVerify runs a full Argon2id pass.
const dummyPassword = "dummy-password-for-timing"

type argon2Hasher struct {
	hasher      *pwdhash.PasswordHasher
	dummyDigest string
}

// NewPasswordHasher creates an Argon2id PasswordHasher using the Moderate policy.
func NewPasswordHasher() (PasswordHasher, error) {
	hasher, err := pwdhash.New(
		pwdhash.WithPolicy(pwdhash.PolicyModerate),
	)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create password hasher")
	}

	dummyDigest, err := hasher.Hash([]byte(dummyPassword))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to hash dummy password")
	}

	return &argon2Hasher{hasher: hasher, dummyDigest: dummyDigest}, nil
}

func (a *argon2Hasher) Hash(password string) (string, error) {
	digest, err := a.hasher.Hash([]byte(password))
	if err != nil {
		return "", apperrors.Wrap(err, "failed to hash password")
	}
	return digest, nil
}

func (a *argon2Hasher) Verify(password, digest string) bool {
	if digest == "" {
		a.DummyVerify(password)
		return false
	}
	ok, err := a.hasher.Verify([]byte(password), digest)
	if err != nil {
		return false
	}
	return ok
}

func (a *argon2Hasher) DummyVerify(password string) {
	_, _ = a.hasher.Verify([]byte(password), a.dummyDigest)
}
