package dto

import (
	"time"

	credentialDomain "github.com/allisson/billvault/internal/credential/domain"
)

// IssueAPIKeyResponse contains a freshly issued API key.
// SECURITY: The key is only returned once and must be saved securely.
type IssueAPIKeyResponse struct {
	PrincipalID string    `json:"principal_id"`
	APIKey      string    `json:"api_key"` //nolint:gosec // returned once on issuance
	ExpiresAt   time.Time `json:"expires_at"`
}

// MapIssuedAPIKeyToResponse converts an issued key to an API response.
func MapIssuedAPIKeyToResponse(issued *credentialDomain.IssuedAPIKey) IssueAPIKeyResponse {
	return IssueAPIKeyResponse{
		PrincipalID: issued.PrincipalID.String(),
		APIKey:      issued.Token,
		ExpiresAt:   issued.ExpiresAt,
	}
}
