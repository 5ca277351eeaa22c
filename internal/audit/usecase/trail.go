package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/billvault/internal/audit/domain"
	auditService "github.com/allisson/billvault/internal/audit/service"
	apperrors "github.com/allisson/billvault/internal/errors"
)

type auditTrail struct {
	repo     Repository
	redactor auditService.Redactor
	signer   auditService.Signer
	logger   *slog.Logger
	now      func() time.Time
}

// NewTrail creates a Trail. now may be nil, in which case time.Now is used.
func NewTrail(
	repo Repository,
	redactor auditService.Redactor,
	signer auditService.Signer,
	logger *slog.Logger,
	now func() time.Time,
) Trail {
	if now == nil {
		now = time.Now
	}
	return &auditTrail{
		repo:     repo,
		redactor: redactor,
		signer:   signer,
		logger:   logger,
		now:      now,
	}
}

func (a *auditTrail) Record(ctx context.Context, event auditDomain.Event) error {
	entry := a.buildEntry(ctx, event)

	signature, err := a.signer.Sign(entry)
	if err != nil {
		return apperrors.Wrap(err, "failed to sign audit entry")
	}
	entry.Signature = signature

	if err := a.repo.Create(ctx, entry); err != nil {
		a.logger.Error("failed to write audit entry",
			slog.String("action", entry.Action),
			slog.String("outcome", string(entry.Outcome)),
			slog.Any("error", err),
		)
		return apperrors.Join(auditDomain.ErrWriteFailed, err)
	}

	return nil
}

func (a *auditTrail) RecordBestEffort(ctx context.Context, event auditDomain.Event) {
	if err := a.Record(ctx, event); err != nil {
		a.logger.Warn("dropping audit entry",
			slog.String("action", event.Action),
			slog.Any("error", err),
		)
	}
}

func (a *auditTrail) Verify(ctx context.Context, batchSize int) (*VerifyReport, error) {
	if batchSize <= 0 {
		batchSize = 500
	}

	report := &VerifyReport{Invalid: make([]uuid.UUID, 0)}
	for offset := 0; ; offset += batchSize {
		entries, err := a.repo.List(ctx, offset, batchSize)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to list audit entries")
		}

		for _, entry := range entries {
			report.Total++
			if err := a.signer.Verify(entry); err != nil {
				report.Invalid = append(report.Invalid, entry.ID)
				continue
			}
			report.Valid++
		}

		if len(entries) < batchSize {
			return report, nil
		}
	}
}

func (a *auditTrail) buildEntry(ctx context.Context, event auditDomain.Event) *auditDomain.Entry {
	meta := auditDomain.RequestMetaFrom(ctx)

	source := event.SourceAddress
	if source == "" {
		source = meta.SourceAddress
	}
	agent := event.AgentString
	if agent == "" {
		agent = meta.AgentString
	}

	var resourceID *string
	if event.ResourceID != "" {
		id := event.ResourceID
		resourceID = &id
	}

	outcome := event.Outcome
	if outcome == "" {
		outcome = auditDomain.OutcomeSuccess
	}

	return &auditDomain.Entry{
		ID:            uuid.Must(uuid.NewV7()),
		RequestID:     meta.RequestID,
		ActorID:       event.ActorID,
		Action:        event.Action,
		Resource:      event.Resource,
		ResourceID:    resourceID,
		SourceAddress: source,
		AgentString:   agent,
		Outcome:       outcome,
		Detail:        a.redactor.Redact(event.Detail),
		Metadata:      a.redactor.RedactMetadata(event.Metadata),
		// Stored timestamps keep microsecond precision; signing must agree.
		CreatedAt: a.now().UTC().Truncate(time.Microsecond),
	}
}
