package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	credentialDomain "github.com/allisson/billvault/internal/credential/domain"
	"github.com/allisson/billvault/internal/metrics"
)

// guardWithMetrics decorates Guard with metrics instrumentation.
type guardWithMetrics struct {
	next    Guard
	metrics metrics.BusinessMetrics
}

// NewGuardWithMetrics wraps a Guard with metrics recording.
func NewGuardWithMetrics(g Guard, m metrics.BusinessMetrics) Guard {
	return &guardWithMetrics{
		next:    g,
		metrics: m,
	}
}

// CreatePrincipal records metrics for principal creation.
func (g *guardWithMetrics) CreatePrincipal(
	ctx context.Context,
	name, password string,
) (*credentialDomain.Principal, error) {
	start := time.Now()
	principal, err := g.next.CreatePrincipal(ctx, name, password)
	g.record(ctx, "principal_create", start, statusOf(err))
	return principal, err
}

// SetPassword records metrics for password changes.
func (g *guardWithMetrics) SetPassword(ctx context.Context, principalID uuid.UUID, password string) error {
	start := time.Now()
	err := g.next.SetPassword(ctx, principalID, password)
	g.record(ctx, "password_set", start, statusOf(err))
	return err
}

// CheckPassword records metrics for password checks. A completed check is
// labeled with its verdict so lockouts and throttling show up as their own series.
func (g *guardWithMetrics) CheckPassword(
	ctx context.Context,
	principalID uuid.UUID,
	password string,
) (credentialDomain.Verdict, error) {
	start := time.Now()
	verdict, err := g.next.CheckPassword(ctx, principalID, password)

	status := statusOf(err)
	if err == nil {
		status = string(verdict)
	}
	g.record(ctx, "password_check", start, status)

	return verdict, err
}

// IssueAPIKey records metrics for API key issuance.
func (g *guardWithMetrics) IssueAPIKey(
	ctx context.Context,
	principalID uuid.UUID,
	ttl time.Duration,
) (*credentialDomain.IssuedAPIKey, error) {
	start := time.Now()
	issued, err := g.next.IssueAPIKey(ctx, principalID, ttl)
	g.record(ctx, "api_key_issue", start, statusOf(err))
	return issued, err
}

// VerifyAPIKey records metrics for API key verification.
func (g *guardWithMetrics) VerifyAPIKey(ctx context.Context, principalID uuid.UUID, candidate string) (bool, error) {
	start := time.Now()
	ok, err := g.next.VerifyAPIKey(ctx, principalID, candidate)

	status := statusOf(err)
	if err == nil && !ok {
		status = "rejected"
	}
	g.record(ctx, "api_key_verify", start, status)

	return ok, err
}

// RevokeAPIKey records metrics for API key revocation.
func (g *guardWithMetrics) RevokeAPIKey(ctx context.Context, principalID uuid.UUID) error {
	start := time.Now()
	err := g.next.RevokeAPIKey(ctx, principalID)
	g.record(ctx, "api_key_revoke", start, statusOf(err))
	return err
}

func (g *guardWithMetrics) record(ctx context.Context, operation string, start time.Time, status string) {
	g.metrics.RecordOperation(ctx, metrics.DomainCredential, operation, status)
	g.metrics.RecordDuration(ctx, metrics.DomainCredential, operation, time.Since(start), status)
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
