package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	artifactDomain "github.com/allisson/billvault/internal/artifact/domain"
	"github.com/allisson/billvault/internal/metrics"
)

// storeUseCaseWithMetrics decorates StoreUseCase with metrics instrumentation.
type storeUseCaseWithMetrics struct {
	next    StoreUseCase
	metrics metrics.BusinessMetrics
}

// NewStoreUseCaseWithMetrics wraps a StoreUseCase with metrics recording.
func NewStoreUseCaseWithMetrics(useCase StoreUseCase, m metrics.BusinessMetrics) StoreUseCase {
	return &storeUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Submit records metrics for artifact uploads.
func (s *storeUseCaseWithMetrics) Submit(
	ctx context.Context,
	data []byte,
	declaredFilename string,
	ownerID uuid.UUID,
) (*artifactDomain.StoredArtifact, error) {
	start := time.Now()
	artifact, err := s.next.Submit(ctx, data, declaredFilename, ownerID)
	s.record(ctx, "artifact_submit", start, err)
	if err == nil {
		s.metrics.RecordArtifactSize(ctx, artifact.ContentType.MIME, artifact.Size)
	}
	return artifact, err
}

// Retrieve records metrics for artifact reads.
func (s *storeUseCaseWithMetrics) Retrieve(
	ctx context.Context,
	name string,
	requesterID uuid.UUID,
) (*artifactDomain.RetrievedArtifact, error) {
	start := time.Now()
	artifact, err := s.next.Retrieve(ctx, name, requesterID)
	s.record(ctx, "artifact_retrieve", start, err)
	return artifact, err
}

// Purge records metrics for artifact deletes.
func (s *storeUseCaseWithMetrics) Purge(ctx context.Context, name string, requesterID uuid.UUID) error {
	start := time.Now()
	err := s.next.Purge(ctx, name, requesterID)
	s.record(ctx, "artifact_purge", start, err)
	return err
}

func (s *storeUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, metrics.DomainArtifact, operation, status)
	s.metrics.RecordDuration(ctx, metrics.DomainArtifact, operation, time.Since(start), status)
}
