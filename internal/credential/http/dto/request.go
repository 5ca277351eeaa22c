// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	"math"
	"time"

	validation "github.com/jellydator/validation"

	customValidation "github.com/allisson/billvault/internal/validation"
)

// MaxTTLSeconds is the largest ttl_seconds that still fits a time.Duration.
const MaxTTLSeconds = math.MaxInt64 / int64(time.Second)

// IssueAPIKeyRequest contains the credentials exchanged for a new API key.
type IssueAPIKeyRequest struct {
	PrincipalID string `json:"principal_id"`
	Password    string `json:"password"`
	// TTLSeconds overrides the default key lifetime when positive.
	TTLSeconds int64 `json:"ttl_seconds"`
}

// Validate checks if the issue API key request is valid.
func (r *IssueAPIKeyRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.PrincipalID,
			validation.Required,
			customValidation.NotBlank,
		),
		validation.Field(&r.Password,
			validation.Required,
		),
		validation.Field(&r.TTLSeconds,
			validation.Min(int64(0)),
			validation.Max(MaxTTLSeconds),
		),
	)
}

// SetPasswordRequest contains the current and the new password of the caller.
type SetPasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Validate checks if the set password request is valid. Strength rules are
// enforced by the password policy, not here.
func (r *SetPasswordRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.CurrentPassword,
			validation.Required,
		),
		validation.Field(&r.NewPassword,
			validation.Required,
		),
	)
}
