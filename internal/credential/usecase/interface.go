// Package usecase implements the credential guard: password policy,
// throttled password checks with timed lockout and API key lifecycle.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	credentialDomain "github.com/allisson/billvault/internal/credential/domain"
)

// PrincipalRepository persists principals and their credential state.
type PrincipalRepository interface {
	Create(ctx context.Context, principal *credentialDomain.Principal) error
	Get(ctx context.Context, principalID uuid.UUID) (*credentialDomain.Principal, error)

	// GetForUpdate reads the principal and locks its row until the surrounding
	// transaction ends.
	GetForUpdate(ctx context.Context, principalID uuid.UUID) (*credentialDomain.Principal, error)

	UpdateCredential(ctx context.Context, principalID uuid.UUID, credential credentialDomain.Credential) error
	UpdateAPIKey(ctx context.Context, principalID uuid.UUID, apiKey credentialDomain.APIKey) error
}

// Guard is the only writer of credential and API key state.
type Guard interface {
	// CreatePrincipal creates a principal with an initial password.
	CreatePrincipal(ctx context.Context, name, password string) (*credentialDomain.Principal, error)

	// SetPassword validates password against the policy and stores its digest.
	SetPassword(ctx context.Context, principalID uuid.UUID, password string) error

	// CheckPassword checks password under throttling and lockout. Rejections
	// come back as a Verdict; err is reserved for infrastructure failures.
	CheckPassword(ctx context.Context, principalID uuid.UUID, password string) (credentialDomain.Verdict, error)

	// IssueAPIKey replaces any existing key. A zero ttl selects the default lifetime.
	IssueAPIKey(ctx context.Context, principalID uuid.UUID, ttl time.Duration) (*credentialDomain.IssuedAPIKey, error)

	// VerifyAPIKey reports whether candidate is the live key of the principal.
	VerifyAPIKey(ctx context.Context, principalID uuid.UUID, candidate string) (bool, error)

	// RevokeAPIKey clears the key of the principal.
	RevokeAPIKey(ctx context.Context, principalID uuid.UUID) error
}
