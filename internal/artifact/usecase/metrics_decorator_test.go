package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	artifactDomain "github.com/allisson/billvault/internal/artifact/domain"
	"github.com/allisson/billvault/internal/metrics"
)

// mockBusinessMetrics is a mock implementation of metrics.BusinessMetrics for testing.
type mockBusinessMetrics struct {
	mock.Mock
}

func (m *mockBusinessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	m.Called(ctx, domain, operation, status)
}

func (m *mockBusinessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	m.Called(ctx, domain, operation, duration, status)
}

func (m *mockBusinessMetrics) RecordArtifactSize(ctx context.Context, contentType string, size int64) {
	m.Called(ctx, contentType, size)
}

var _ metrics.BusinessMetrics = (*mockBusinessMetrics)(nil)

// stubStore returns fixed results.
type stubStore struct {
	err error
}

func (s *stubStore) Submit(
	ctx context.Context,
	data []byte,
	declaredFilename string,
	ownerID uuid.UUID,
) (*artifactDomain.StoredArtifact, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &artifactDomain.StoredArtifact{
		OwnerID:     ownerID,
		ContentType: artifactDomain.ContentTypePDF,
		Size:        int64(len(data)),
	}, nil
}

func (s *stubStore) Retrieve(
	ctx context.Context,
	name string,
	requesterID uuid.UUID,
) (*artifactDomain.RetrievedArtifact, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &artifactDomain.RetrievedArtifact{Name: name}, nil
}

func (s *stubStore) Purge(ctx context.Context, name string, requesterID uuid.UUID) error {
	return s.err
}

func expectMetrics(m *mockBusinessMetrics, operation, status string) {
	m.On("RecordOperation", mock.Anything, "artifact", operation, status).Once()
	m.On("RecordDuration", mock.Anything, "artifact", operation, mock.AnythingOfType("time.Duration"), status).
		Once()
}

func TestStoreMetricsDecorator(t *testing.T) {
	ctx := context.Background()
	requester := uuid.Must(uuid.NewV7())

	t.Run("Success_RecordsSuccessMetrics", func(t *testing.T) {
		m := &mockBusinessMetrics{}
		decorator := NewStoreUseCaseWithMetrics(&stubStore{}, m)

		expectMetrics(m, "artifact_submit", "success")
		m.On("RecordArtifactSize", mock.Anything, "application/pdf", int64(1)).Once()
		expectMetrics(m, "artifact_retrieve", "success")
		expectMetrics(m, "artifact_purge", "success")

		_, err := decorator.Submit(ctx, []byte("x"), "a.pdf", requester)
		assert.NoError(t, err)
		_, err = decorator.Retrieve(ctx, "a.pdf", requester)
		assert.NoError(t, err)
		assert.NoError(t, decorator.Purge(ctx, "a.pdf", requester))

		m.AssertExpectations(t)
	})

	t.Run("Error_RecordsErrorMetrics", func(t *testing.T) {
		m := &mockBusinessMetrics{}
		storeErr := errors.New("store failure")
		decorator := NewStoreUseCaseWithMetrics(&stubStore{err: storeErr}, m)

		expectMetrics(m, "artifact_submit", "error")
		expectMetrics(m, "artifact_retrieve", "error")
		expectMetrics(m, "artifact_purge", "error")

		_, err := decorator.Submit(ctx, []byte("x"), "a.pdf", requester)
		assert.ErrorIs(t, err, storeErr)
		_, err = decorator.Retrieve(ctx, "a.pdf", requester)
		assert.ErrorIs(t, err, storeErr)
		assert.ErrorIs(t, decorator.Purge(ctx, "a.pdf", requester), storeErr)

		m.AssertExpectations(t)
	})
}
