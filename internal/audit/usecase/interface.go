// Package usecase implements the audit trail.
package usecase

import (
	"context"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/billvault/internal/audit/domain"
)

// Repository is the append-only audit sink. It exposes no update or delete.
type Repository interface {
	Create(ctx context.Context, entry *auditDomain.Entry) error
	List(ctx context.Context, offset, limit int) ([]*auditDomain.Entry, error)
}

// Trail records security-relevant events.
type Trail interface {
	// Record redacts, signs and persists one entry. A write failure is
	// returned; callers performing security-critical work must fail with it.
	Record(ctx context.Context, event auditDomain.Event) error

	// RecordBestEffort is Record for low-value diagnostic events: a write
	// failure is logged and dropped.
	RecordBestEffort(ctx context.Context, event auditDomain.Event)

	// Verify recomputes the signature of every stored entry.
	Verify(ctx context.Context, batchSize int) (*VerifyReport, error)
}

// VerifyReport summarizes a signature verification pass.
type VerifyReport struct {
	Total   int
	Valid   int
	Invalid []uuid.UUID
}
