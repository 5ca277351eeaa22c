package app

import (
	"fmt"

	artifactHTTP "github.com/allisson/billvault/internal/artifact/http"
	artifactRepository "github.com/allisson/billvault/internal/artifact/repository"
	artifactService "github.com/allisson/billvault/internal/artifact/service"
	artifactUseCase "github.com/allisson/billvault/internal/artifact/usecase"
)

// Artifact store drivers.
const (
	ArtifactStoreBlob  = "blob"
	ArtifactStoreMinio = "minio"
)

// ObjectStore returns the artifact object store for the configured driver.
func (c *Container) ObjectStore() (artifactUseCase.ObjectStore, error) {
	c.objectStoreInit.Do(func() {
		err := c.initObjectStore()
		c.record("objectStore", err)
	})
	if err := c.initError("objectStore"); err != nil {
		return nil, err
	}
	return c.objectStore, nil
}

// StoreUseCase returns the artifact store use case, wrapped with metrics.
func (c *Container) StoreUseCase() (artifactUseCase.StoreUseCase, error) {
	c.storeUseCaseInit.Do(func() {
		useCase, err := c.initStoreUseCase()
		c.record("storeUseCase", err)
		c.storeUseCase = useCase
	})
	if err := c.initError("storeUseCase"); err != nil {
		return nil, err
	}
	return c.storeUseCase, nil
}

// ArtifactHandler returns the HTTP handler for artifact endpoints.
func (c *Container) ArtifactHandler() (*artifactHTTP.ArtifactHandler, error) {
	c.artifactHandlerInit.Do(func() {
		useCase, err := c.StoreUseCase()
		if err != nil {
			c.record("artifactHandler", fmt.Errorf("failed to get store use case for artifact handler: %w", err))
			return
		}
		c.artifactHandler = artifactHTTP.NewArtifactHandler(useCase, c.config.ArtifactMaxSizeBytes, c.Logger())
	})
	if err := c.initError("artifactHandler"); err != nil {
		return nil, err
	}
	return c.artifactHandler, nil
}

func (c *Container) initObjectStore() error {
	switch c.config.ArtifactStoreDriver {
	case ArtifactStoreBlob:
		store, err := artifactRepository.OpenBlobObjectStore(c.ctx, c.config.ArtifactBucketURL)
		if err != nil {
			return fmt.Errorf("failed to open artifact bucket: %w", err)
		}
		c.objectStore = store
		c.objectStoreCloser = store
	case ArtifactStoreMinio:
		store, err := artifactRepository.NewMinioObjectStore(c.ctx, artifactRepository.MinioConfig{
			Endpoint:        c.config.MinioEndpoint,
			AccessKeyID:     c.config.MinioAccessKeyID,
			SecretAccessKey: c.config.MinioSecretAccessKey,
			Bucket:          c.config.MinioBucket,
			UseSSL:          c.config.MinioUseSSL,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to minio: %w", err)
		}
		c.objectStore = store
		c.objectStoreCloser = store
	default:
		return fmt.Errorf("unsupported artifact store driver: %s", c.config.ArtifactStoreDriver)
	}
	return nil
}

func (c *Container) initStoreUseCase() (artifactUseCase.StoreUseCase, error) {
	objects, err := c.ObjectStore()
	if err != nil {
		return nil, fmt.Errorf("failed to get object store for store use case: %w", err)
	}

	engine, err := c.EnvelopeEngine()
	if err != nil {
		return nil, fmt.Errorf("failed to get envelope engine for store use case: %w", err)
	}

	trail, err := c.AuditTrail()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit trail for store use case: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for store use case: %w", err)
	}

	useCase := artifactUseCase.NewStoreUseCase(objects, engine, artifactService.NewSniffer(), trail, c.Logger())
	return artifactUseCase.NewStoreUseCaseWithMetrics(useCase, businessMetrics), nil
}
