package service

import (
	validation "github.com/jellydator/validation"

	credentialDomain "github.com/allisson/billvault/internal/credential/domain"
	apperrors "github.com/allisson/billvault/internal/errors"
	customValidation "github.com/allisson/billvault/internal/validation"
)

const (
	// DefaultPasswordMinLength is the minimum length when none is configured.
	DefaultPasswordMinLength = 12
	// MaxPasswordLength bounds the input handed to the Argon2id hasher.
	MaxPasswordLength = 128
)

type passwordPolicy struct {
	rule customValidation.PasswordStrength
}

// NewPasswordPolicy requires between minLength and MaxPasswordLength characters
// with mixed case, a digit and a symbol.
func NewPasswordPolicy(minLength int) PasswordPolicy {
	if minLength <= 0 {
		minLength = DefaultPasswordMinLength
	}
	if minLength > MaxPasswordLength {
		minLength = MaxPasswordLength
	}
	return &passwordPolicy{
		rule: customValidation.PasswordStrength{
			MinLength:      minLength,
			MaxLength:      MaxPasswordLength,
			RequireUpper:   true,
			RequireLower:   true,
			RequireNumber:  true,
			RequireSpecial: true,
		},
	}
}

func (p *passwordPolicy) Validate(password string) error {
	if err := validation.Validate(password, validation.Required, p.rule); err != nil {
		return apperrors.Wrap(credentialDomain.ErrPolicyViolation, err.Error())
	}
	return nil
}
