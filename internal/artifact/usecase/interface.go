// Package usecase implements the secure artifact store.
package usecase

import (
	"context"

	"github.com/google/uuid"

	artifactDomain "github.com/allisson/billvault/internal/artifact/domain"
)

// ObjectStore is the backing object store. Names are content-derived, so a
// Put under an existing name writes the same content again.
type ObjectStore interface {
	Put(ctx context.Context, name string, object *artifactDomain.Object) error
	Get(ctx context.Context, name string) (*artifactDomain.Object, error)
	Exists(ctx context.Context, name string) (bool, error)
	Delete(ctx context.Context, name string) error
}

// StoreUseCase validates, encrypts and persists uploaded artifacts.
type StoreUseCase interface {
	// Submit verifies the content type of data against declaredFilename,
	// encrypts it and stores it under its content hash.
	Submit(
		ctx context.Context,
		data []byte,
		declaredFilename string,
		ownerID uuid.UUID,
	) (*artifactDomain.StoredArtifact, error)

	// Retrieve decrypts the artifact stored under name and re-checks its content.
	Retrieve(ctx context.Context, name string, requesterID uuid.UUID) (*artifactDomain.RetrievedArtifact, error)

	// Purge deletes the artifact stored under name.
	Purge(ctx context.Context, name string, requesterID uuid.UUID) error
}
