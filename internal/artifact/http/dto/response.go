// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	"time"

	artifactDomain "github.com/allisson/billvault/internal/artifact/domain"
)

// ArtifactResponse describes a stored artifact. It never carries content.
type ArtifactResponse struct {
	Name        string    `json:"name"`
	ContentHash string    `json:"content_hash"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	OwnerID     string    `json:"owner_id"`
	StoredAt    time.Time `json:"stored_at"`
}

// MapStoredArtifactToResponse converts a stored artifact to an API response.
func MapStoredArtifactToResponse(artifact *artifactDomain.StoredArtifact) ArtifactResponse {
	return ArtifactResponse{
		Name:        artifact.Name(),
		ContentHash: artifact.ContentHash,
		ContentType: artifact.ContentType.MIME,
		Size:        artifact.Size,
		OwnerID:     artifact.OwnerID.String(),
		StoredAt:    artifact.StoredAt,
	}
}
