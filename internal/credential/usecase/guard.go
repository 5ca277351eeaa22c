package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	auditDomain "github.com/allisson/billvault/internal/audit/domain"
	auditUseCase "github.com/allisson/billvault/internal/audit/usecase"
	credentialDomain "github.com/allisson/billvault/internal/credential/domain"
	credentialService "github.com/allisson/billvault/internal/credential/service"
	"github.com/allisson/billvault/internal/database"
	apperrors "github.com/allisson/billvault/internal/errors"
	customValidation "github.com/allisson/billvault/internal/validation"
)

// GuardConfig holds the lockout policy and API key lifetimes. A zero
// APIKeyMaxTTL leaves requested lifetimes unbounded.
type GuardConfig struct {
	Lockout      credentialDomain.LockoutPolicy
	APIKeyTTL    time.Duration
	APIKeyMaxTTL time.Duration
}

type guard struct {
	repo      PrincipalRepository
	txManager database.TxManager
	policy    credentialService.PasswordPolicy
	hasher    credentialService.PasswordHasher
	tokens    credentialService.TokenService
	trail     auditUseCase.Trail
	cfg       GuardConfig
	logger    *slog.Logger
	now       func() time.Time

	// dummyTokenHash stands in for a missing key so verification always compares.
	dummyTokenHash string
}

// NewGuard creates the credential Guard.
func NewGuard(
	repo PrincipalRepository,
	txManager database.TxManager,
	policy credentialService.PasswordPolicy,
	hasher credentialService.PasswordHasher,
	tokens credentialService.TokenService,
	trail auditUseCase.Trail,
	cfg GuardConfig,
	logger *slog.Logger,
) (Guard, error) {
	_, dummyTokenHash, err := tokens.Generate()
	if err != nil {
		return nil, err
	}

	return &guard{
		repo:           repo,
		txManager:      txManager,
		policy:         policy,
		hasher:         hasher,
		tokens:         tokens,
		trail:          trail,
		cfg:            cfg,
		logger:         logger,
		now:            time.Now,
		dummyTokenHash: dummyTokenHash,
	}, nil
}

func (g *guard) CreatePrincipal(
	ctx context.Context,
	name, password string,
) (*credentialDomain.Principal, error) {
	err := validation.Validate(name,
		validation.Required,
		customValidation.NotBlank,
		customValidation.NoWhitespace,
		validation.Length(1, 255),
	)
	if err != nil {
		return nil, customValidation.WrapValidationError(err)
	}
	if err := g.policy.Validate(password); err != nil {
		return nil, err
	}

	digest, err := g.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	now := g.now().UTC()
	principal := &credentialDomain.Principal{
		ID:        uuid.Must(uuid.NewV7()),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	principal.Credential.SetPassword(digest, now)

	if err := g.repo.Create(ctx, principal); err != nil {
		return nil, err
	}

	event := g.event(auditDomain.ActionPrincipalCreate, principal.ID, auditDomain.OutcomeSuccess)
	event.Detail = fmt.Sprintf("principal %q created", name)
	if err := g.trail.Record(ctx, event); err != nil {
		return nil, err
	}

	return principal, nil
}

// SetPassword does not audit policy rejections; they are input errors, not incidents.
func (g *guard) SetPassword(ctx context.Context, principalID uuid.UUID, password string) error {
	if err := g.policy.Validate(password); err != nil {
		return err
	}

	digest, err := g.hasher.Hash(password)
	if err != nil {
		return err
	}

	err = g.txManager.WithTx(ctx, func(ctx context.Context) error {
		principal, err := g.repo.GetForUpdate(ctx, principalID)
		if err != nil {
			return err
		}
		principal.Credential.SetPassword(digest, g.now().UTC())
		return g.repo.UpdateCredential(ctx, principalID, principal.Credential)
	})
	if err != nil {
		return err
	}

	event := g.event(auditDomain.ActionSetPassword, principalID, auditDomain.OutcomeSuccess)
	event.Detail = "password changed"
	return g.trail.Record(ctx, event)
}

func (g *guard) CheckPassword(
	ctx context.Context,
	principalID uuid.UUID,
	password string,
) (credentialDomain.Verdict, error) {
	var (
		verdict  credentialDomain.Verdict
		failures int
		lockedAt bool
	)

	err := g.txManager.WithTx(ctx, func(ctx context.Context) error {
		principal, err := g.repo.GetForUpdate(ctx, principalID)
		if err != nil {
			return err
		}

		now := g.now().UTC()
		credential := &principal.Credential

		// Locked and throttled attempts still pay for one hash so that they
		// cannot be told apart from a wrong password by timing.
		if credential.State(now) == credentialDomain.StateLocked {
			g.hasher.DummyVerify(password)
			verdict = credentialDomain.VerdictLocked
			return nil
		}
		if credential.TooSoon(now, g.cfg.Lockout.MinAttemptInterval) {
			g.hasher.DummyVerify(password)
			verdict = credentialDomain.VerdictThrottled
			return nil
		}

		if g.hasher.Verify(password, credential.PasswordDigest) {
			credential.RecordSuccess(now)
			verdict = credentialDomain.VerdictAccepted
		} else {
			lockedAt = credential.RecordFailure(now, g.cfg.Lockout)
			failures = credential.FailedAttemptCount
			verdict = credentialDomain.VerdictRejected
		}

		return g.repo.UpdateCredential(ctx, principalID, *credential)
	})
	if err != nil {
		if !apperrors.Is(err, credentialDomain.ErrPrincipalNotFound) {
			return "", err
		}
		// Unknown principals look like a wrong password.
		g.hasher.DummyVerify(password)
		verdict = credentialDomain.VerdictRejected
	}

	event := g.event(auditDomain.ActionLogin, principalID, auditDomain.OutcomeSuccess)
	switch {
	case verdict == credentialDomain.VerdictAccepted:
		event.Detail = "password accepted"
	case verdict == credentialDomain.VerdictLocked:
		event.Outcome = auditDomain.OutcomeBlocked
		event.Detail = "attempt while locked"
	case verdict == credentialDomain.VerdictThrottled:
		event.Outcome = auditDomain.OutcomeBlocked
		event.Detail = "attempt inside minimum interval"
	case err != nil:
		event.ActorID = nil
		event.Outcome = auditDomain.OutcomeFailure
		event.Detail = "unknown principal"
	default:
		event.Outcome = auditDomain.OutcomeFailure
		event.Detail = fmt.Sprintf("password mismatch, %d consecutive failures", failures)
		if lockedAt {
			event.Detail += fmt.Sprintf(", locked for %s", g.cfg.Lockout.LockoutDuration)
		}
	}
	if err := g.trail.Record(ctx, event); err != nil {
		return "", err
	}

	return verdict, nil
}

func (g *guard) IssueAPIKey(
	ctx context.Context,
	principalID uuid.UUID,
	ttl time.Duration,
) (*credentialDomain.IssuedAPIKey, error) {
	if ttl < 0 || (g.cfg.APIKeyMaxTTL > 0 && ttl > g.cfg.APIKeyMaxTTL) {
		return nil, credentialDomain.ErrInvalidTTL
	}
	if ttl == 0 {
		ttl = g.cfg.APIKeyTTL
	}

	token, tokenHash, err := g.tokens.Generate()
	if err != nil {
		return nil, err
	}

	expiresAt := g.now().UTC().Add(ttl)
	apiKey := credentialDomain.APIKey{TokenHash: tokenHash, ExpiresAt: &expiresAt}
	if err := g.repo.UpdateAPIKey(ctx, principalID, apiKey); err != nil {
		return nil, err
	}

	event := g.event(auditDomain.ActionAPIKeyIssue, principalID, auditDomain.OutcomeSuccess)
	event.Detail = fmt.Sprintf("api key issued, expires %s", expiresAt.Format(time.RFC3339))
	if err := g.trail.Record(ctx, event); err != nil {
		return nil, err
	}

	return &credentialDomain.IssuedAPIKey{
		PrincipalID: principalID,
		Token:       token,
		ExpiresAt:   expiresAt,
	}, nil
}

func (g *guard) VerifyAPIKey(ctx context.Context, principalID uuid.UUID, candidate string) (bool, error) {
	principal, err := g.repo.Get(ctx, principalID)
	if err != nil {
		if apperrors.Is(err, credentialDomain.ErrPrincipalNotFound) {
			g.tokens.Equal(candidate, g.dummyTokenHash)
			return false, nil
		}
		return false, err
	}

	storedHash := principal.APIKey.TokenHash
	if storedHash == "" {
		storedHash = g.dummyTokenHash
	}
	match := g.tokens.Equal(candidate, storedHash)

	return match && principal.APIKey.ValidAt(g.now().UTC()), nil
}

func (g *guard) RevokeAPIKey(ctx context.Context, principalID uuid.UUID) error {
	if err := g.repo.UpdateAPIKey(ctx, principalID, credentialDomain.APIKey{}); err != nil {
		return err
	}

	event := g.event(auditDomain.ActionAPIKeyRevoke, principalID, auditDomain.OutcomeSuccess)
	event.Detail = "api key revoked"
	return g.trail.Record(ctx, event)
}

func (g *guard) event(action string, principalID uuid.UUID, outcome auditDomain.Outcome) auditDomain.Event {
	actorID := principalID
	return auditDomain.Event{
		Action:     action,
		Resource:   auditDomain.ResourcePrincipal,
		ResourceID: principalID.String(),
		ActorID:    &actorID,
		Outcome:    outcome,
	}
}
