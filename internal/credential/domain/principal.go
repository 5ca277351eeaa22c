// Package domain defines principals and their credential state.
//
// A principal authenticates with a password or an API key. Password attempts
// move the credential between two states, Active and Locked; all transitions
// go through the methods on Credential so that counters and lockout stay
// consistent.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Principal is an identity that owns a credential and at most one API key.
type Principal struct {
	ID         uuid.UUID
	Name       string
	Credential Credential
	APIKey     APIKey
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// State is the authentication state of a credential.
type State string

const (
	StateActive State = "active"
	StateLocked State = "locked"
)

// LockoutPolicy configures throttling and lockout of password attempts.
type LockoutPolicy struct {
	MaxAttempts        int
	LockoutDuration    time.Duration
	MinAttemptInterval time.Duration
}

// Credential is the password state of a principal.
type Credential struct {
	PasswordDigest     string
	FailedAttemptCount int
	LastAttemptAt      *time.Time
	LockedUntil        *time.Time
	PasswordSetAt      *time.Time
}

// State reports Locked while LockedUntil is in the future. An expired lock
// reads as Active without any write.
func (c *Credential) State(now time.Time) State {
	if c.LockedUntil != nil && now.Before(*c.LockedUntil) {
		return StateLocked
	}
	return StateActive
}

// HasPassword reports whether a password was ever set.
func (c *Credential) HasPassword() bool {
	return c.PasswordDigest != ""
}

// TooSoon reports whether an attempt at now comes within interval of the last one.
func (c *Credential) TooSoon(now time.Time, interval time.Duration) bool {
	if c.LastAttemptAt == nil || interval <= 0 {
		return false
	}
	return now.Sub(*c.LastAttemptAt) < interval
}

// RecordFailure counts a mismatched password and locks the credential when
// the count reaches the policy threshold. It reports whether this failure
// caused the lock.
func (c *Credential) RecordFailure(now time.Time, policy LockoutPolicy) bool {
	attemptAt := now
	c.LastAttemptAt = &attemptAt

	// A lock that has run out starts a fresh window.
	if c.LockedUntil != nil && !now.Before(*c.LockedUntil) {
		c.LockedUntil = nil
		c.FailedAttemptCount = 0
	}

	c.FailedAttemptCount++
	if c.FailedAttemptCount >= policy.MaxAttempts {
		lockedUntil := now.Add(policy.LockoutDuration)
		c.LockedUntil = &lockedUntil
		return true
	}
	return false
}

// RecordSuccess resets the failure counter and clears any lock.
func (c *Credential) RecordSuccess(now time.Time) {
	attemptAt := now
	c.LastAttemptAt = &attemptAt
	c.FailedAttemptCount = 0
	c.LockedUntil = nil
}

// SetPassword replaces the digest and clears failure state.
func (c *Credential) SetPassword(digest string, now time.Time) {
	setAt := now
	c.PasswordDigest = digest
	c.PasswordSetAt = &setAt
	c.FailedAttemptCount = 0
	c.LockedUntil = nil
}

// APIKey holds the SHA-256 hash of the one live API key of a principal.
// The token itself is shown once at issuance and never stored.
type APIKey struct {
	TokenHash string
	ExpiresAt *time.Time
}

// IsSet reports whether a key has been issued and not revoked.
func (k *APIKey) IsSet() bool {
	return k.TokenHash != "" && k.ExpiresAt != nil
}

// ValidAt reports whether the key is set and now is strictly before its expiry.
func (k *APIKey) ValidAt(now time.Time) bool {
	return k.IsSet() && now.Before(*k.ExpiresAt)
}

// Revoke clears the key and its expiry.
func (k *APIKey) Revoke() {
	k.TokenHash = ""
	k.ExpiresAt = nil
}

// IssuedAPIKey is the result of issuing a key. Token is the only copy of the
// plaintext key and must not be logged.
type IssuedAPIKey struct {
	PrincipalID uuid.UUID
	Token       string
	ExpiresAt   time.Time
}
