// Package service provides password and API key primitives for the credential guard.
package service

// PasswordPolicy validates candidate passwords.
type PasswordPolicy interface {
	// Validate returns an error wrapping ErrPolicyViolation with a readable reason.
	Validate(password string) error
}

// PasswordHasher produces and checks salted one-way password digests.
type PasswordHasher interface {
	Hash(password string) (string, error)

	// Verify reports whether password matches digest. Malformed digests never match.
	Verify(password, digest string) bool

	// DummyVerify spends about the same time as a real Verify. It keeps locked
	// or unknown principals from answering faster than a wrong password.
	DummyVerify(password string)
}

// TokenService generates API keys and compares them in constant time.
type TokenService interface {
	// Generate returns a new random token and its SHA-256 hash.
	Generate() (token string, tokenHash string, err error)

	// Hash returns the hex SHA-256 of token.
	Hash(token string) string

	// Equal compares candidate against a stored hash in constant time.
	Equal(candidate, tokenHash string) bool
}
