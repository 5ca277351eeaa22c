package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/allisson/billvault/internal/audit/domain"
	auditUseCase "github.com/allisson/billvault/internal/audit/usecase"
	credentialDomain "github.com/allisson/billvault/internal/credential/domain"
	credentialService "github.com/allisson/billvault/internal/credential/service"
	apperrors "github.com/allisson/billvault/internal/errors"
)

const (
	goodPassword = "Correct-Horse-42"
	badPassword  = "Wrong-Horse-42x"
)

// memoryRepository keeps principals in a map. Reads return copies.
type memoryRepository struct {
	mu         sync.Mutex
	principals map[uuid.UUID]credentialDomain.Principal
	failGet    error
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{principals: make(map[uuid.UUID]credentialDomain.Principal)}
}

func (m *memoryRepository) Create(ctx context.Context, principal *credentialDomain.Principal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.principals {
		if p.Name == principal.Name {
			return credentialDomain.ErrPrincipalAlreadyExists
		}
	}
	m.principals[principal.ID] = *principal
	return nil
}

func (m *memoryRepository) Get(ctx context.Context, principalID uuid.UUID) (*credentialDomain.Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet != nil {
		return nil, m.failGet
	}
	p, ok := m.principals[principalID]
	if !ok {
		return nil, credentialDomain.ErrPrincipalNotFound
	}
	return &p, nil
}

func (m *memoryRepository) GetForUpdate(
	ctx context.Context,
	principalID uuid.UUID,
) (*credentialDomain.Principal, error) {
	return m.Get(ctx, principalID)
}

func (m *memoryRepository) UpdateCredential(
	ctx context.Context,
	principalID uuid.UUID,
	credential credentialDomain.Credential,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.principals[principalID]
	if !ok {
		return credentialDomain.ErrPrincipalNotFound
	}
	p.Credential = credential
	m.principals[principalID] = p
	return nil
}

func (m *memoryRepository) UpdateAPIKey(
	ctx context.Context,
	principalID uuid.UUID,
	apiKey credentialDomain.APIKey,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.principals[principalID]
	if !ok {
		return credentialDomain.ErrPrincipalNotFound
	}
	p.APIKey = apiKey
	m.principals[principalID] = p
	return nil
}

func (m *memoryRepository) credential(t *testing.T, id uuid.UUID) credentialDomain.Credential {
	t.Helper()
	p, err := m.Get(context.Background(), id)
	require.NoError(t, err)
	return p.Credential
}

// serialTxManager runs one transaction at a time, standing in for a row lock.
type serialTxManager struct {
	mu sync.Mutex
}

func (s *serialTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(ctx)
}

// fastHasher replaces Argon2id with SHA-256 to keep tests quick.
type fastHasher struct {
	dummyCalls atomic.Int64
}

func (f *fastHasher) Hash(password string) (string, error) {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:]), nil
}

func (f *fastHasher) Verify(password, digest string) bool {
	hash, _ := f.Hash(password)
	return digest != "" && hash == digest
}

func (f *fastHasher) DummyVerify(password string) {
	f.dummyCalls.Add(1)
}

// recordingTrail keeps every recorded event in memory.
type recordingTrail struct {
	mu     sync.Mutex
	events []auditDomain.Event
	err    error
}

func (r *recordingTrail) Record(ctx context.Context, event auditDomain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, event)
	return nil
}

func (r *recordingTrail) RecordBestEffort(ctx context.Context, event auditDomain.Event) {
	_ = r.Record(ctx, event)
}

func (r *recordingTrail) Verify(ctx context.Context, batchSize int) (*auditUseCase.VerifyReport, error) {
	return &auditUseCase.VerifyReport{}, nil
}

func (r *recordingTrail) last(t *testing.T) auditDomain.Event {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.events)
	return r.events[len(r.events)-1]
}

func (r *recordingTrail) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// clock is a settable time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type guardFixture struct {
	guard  *guard
	repo   *memoryRepository
	hasher *fastHasher
	trail  *recordingTrail
	clock  *clock
}

func newGuardFixture(t *testing.T, lockout credentialDomain.LockoutPolicy) *guardFixture {
	t.Helper()
	repo := newMemoryRepository()
	hasher := &fastHasher{}
	trail := &recordingTrail{}
	clk := &clock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}

	g, err := NewGuard(
		repo,
		&serialTxManager{},
		credentialService.NewPasswordPolicy(12),
		hasher,
		credentialService.NewTokenService(),
		trail,
		GuardConfig{Lockout: lockout, APIKeyTTL: 24 * time.Hour, APIKeyMaxTTL: maxKeyTTL},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	require.NoError(t, err)

	concrete := g.(*guard)
	concrete.now = clk.Now
	return &guardFixture{guard: concrete, repo: repo, hasher: hasher, trail: trail, clock: clk}
}

const maxKeyTTL = 30 * 24 * time.Hour

var defaultLockout = credentialDomain.LockoutPolicy{
	MaxAttempts:        5,
	LockoutDuration:    15 * time.Minute,
	MinAttemptInterval: 2 * time.Second,
}

func (f *guardFixture) createPrincipal(t *testing.T) uuid.UUID {
	t.Helper()
	principal, err := f.guard.CreatePrincipal(context.Background(), "accounts-payable", goodPassword)
	require.NoError(t, err)
	return principal.ID
}

func TestGuard_CreatePrincipal(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newGuardFixture(t, defaultLockout)
		principal, err := f.guard.CreatePrincipal(ctx, "accounts-payable", goodPassword)
		require.NoError(t, err)
		assert.Equal(t, "accounts-payable", principal.Name)
		assert.NotEqual(t, goodPassword, principal.Credential.PasswordDigest)
		assert.NotNil(t, principal.Credential.PasswordSetAt)

		event := f.trail.last(t)
		assert.Equal(t, auditDomain.ActionPrincipalCreate, event.Action)
		assert.Equal(t, principal.ID.String(), event.ResourceID)
	})

	t.Run("InvalidName", func(t *testing.T) {
		f := newGuardFixture(t, defaultLockout)
		for _, name := range []string{"", "   ", " padded "} {
			_, err := f.guard.CreatePrincipal(ctx, name, goodPassword)
			assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput), "name %q", name)
		}
		assert.Equal(t, 0, f.trail.count())
	})

	t.Run("WeakPassword", func(t *testing.T) {
		f := newGuardFixture(t, defaultLockout)
		_, err := f.guard.CreatePrincipal(ctx, "accounts-payable", "password")
		assert.ErrorIs(t, err, credentialDomain.ErrPolicyViolation)
	})

	t.Run("Duplicate", func(t *testing.T) {
		f := newGuardFixture(t, defaultLockout)
		f.createPrincipal(t)
		_, err := f.guard.CreatePrincipal(ctx, "accounts-payable", goodPassword)
		assert.ErrorIs(t, err, credentialDomain.ErrPrincipalAlreadyExists)
	})
}

func TestGuard_Lockout(t *testing.T) {
	ctx := context.Background()
	f := newGuardFixture(t, defaultLockout)
	id := f.createPrincipal(t)

	for i := 1; i <= 5; i++ {
		f.clock.Advance(3 * time.Second)
		verdict, err := f.guard.CheckPassword(ctx, id, badPassword)
		require.NoError(t, err)
		assert.Equal(t, credentialDomain.VerdictRejected, verdict)
		assert.Equal(t, i, f.repo.credential(t, id).FailedAttemptCount)
		assert.Equal(t, auditDomain.OutcomeFailure, f.trail.last(t).Outcome)
	}
	assert.Contains(t, f.trail.last(t).Detail, "locked for 15m0s")

	// The sixth attempt fails even with the right password.
	f.clock.Advance(3 * time.Second)
	dummyBefore := f.hasher.dummyCalls.Load()
	verdict, err := f.guard.CheckPassword(ctx, id, goodPassword)
	require.NoError(t, err)
	assert.Equal(t, credentialDomain.VerdictLocked, verdict)
	assert.False(t, verdict.OK())
	assert.Equal(t, dummyBefore+1, f.hasher.dummyCalls.Load())
	assert.Equal(t, auditDomain.OutcomeBlocked, f.trail.last(t).Outcome)
	assert.Equal(t, 5, f.repo.credential(t, id).FailedAttemptCount)

	f.clock.Advance(15 * time.Minute)
	verdict, err = f.guard.CheckPassword(ctx, id, goodPassword)
	require.NoError(t, err)
	assert.Equal(t, credentialDomain.VerdictAccepted, verdict)
	assert.Equal(t, auditDomain.OutcomeSuccess, f.trail.last(t).Outcome)

	credential := f.repo.credential(t, id)
	assert.Equal(t, 0, credential.FailedAttemptCount)
	assert.Nil(t, credential.LockedUntil)
}

func TestGuard_Throttling(t *testing.T) {
	ctx := context.Background()
	f := newGuardFixture(t, defaultLockout)
	id := f.createPrincipal(t)

	verdict, err := f.guard.CheckPassword(ctx, id, badPassword)
	require.NoError(t, err)
	assert.Equal(t, credentialDomain.VerdictRejected, verdict)

	f.clock.Advance(time.Second)
	verdict, err = f.guard.CheckPassword(ctx, id, badPassword)
	require.NoError(t, err)
	assert.Equal(t, credentialDomain.VerdictThrottled, verdict)
	assert.Equal(t, 1, f.repo.credential(t, id).FailedAttemptCount)
	assert.Equal(t, auditDomain.OutcomeBlocked, f.trail.last(t).Outcome)

	// A throttled correct password is still refused.
	verdict, err = f.guard.CheckPassword(ctx, id, goodPassword)
	require.NoError(t, err)
	assert.Equal(t, credentialDomain.VerdictThrottled, verdict)

	f.clock.Advance(time.Second)
	verdict, err = f.guard.CheckPassword(ctx, id, goodPassword)
	require.NoError(t, err)
	assert.Equal(t, credentialDomain.VerdictAccepted, verdict)
}

func TestGuard_ConcurrentFailuresAreAllCounted(t *testing.T) {
	ctx := context.Background()
	f := newGuardFixture(t, credentialDomain.LockoutPolicy{
		MaxAttempts:     5,
		LockoutDuration: 15 * time.Minute,
	})
	id := f.createPrincipal(t)

	const attempts = 20
	var wg sync.WaitGroup
	verdicts := make(chan credentialDomain.Verdict, attempts)
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			verdict, err := f.guard.CheckPassword(ctx, id, badPassword)
			assert.NoError(t, err)
			verdicts <- verdict
		}()
	}
	wg.Wait()
	close(verdicts)

	counts := make(map[credentialDomain.Verdict]int)
	for v := range verdicts {
		counts[v]++
	}
	assert.Equal(t, 5, counts[credentialDomain.VerdictRejected])
	assert.Equal(t, attempts-5, counts[credentialDomain.VerdictLocked])
	assert.Equal(t, 5, f.repo.credential(t, id).FailedAttemptCount)
}

func TestGuard_ConcurrentAttemptsInsideIntervalIncrementOnce(t *testing.T) {
	ctx := context.Background()
	f := newGuardFixture(t, defaultLockout)
	id := f.createPrincipal(t)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.guard.CheckPassword(ctx, id, badPassword)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, f.repo.credential(t, id).FailedAttemptCount)
}

func TestGuard_CheckPasswordUnknownPrincipal(t *testing.T) {
	f := newGuardFixture(t, defaultLockout)

	verdict, err := f.guard.CheckPassword(context.Background(), uuid.Must(uuid.NewV7()), goodPassword)
	require.NoError(t, err)
	assert.Equal(t, credentialDomain.VerdictRejected, verdict)
	assert.Equal(t, int64(1), f.hasher.dummyCalls.Load())

	event := f.trail.last(t)
	assert.Nil(t, event.ActorID)
	assert.Equal(t, auditDomain.OutcomeFailure, event.Outcome)
}

func TestGuard_CheckPasswordErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("RepositoryFailure", func(t *testing.T) {
		f := newGuardFixture(t, defaultLockout)
		id := f.createPrincipal(t)
		dbErr := errors.New("connection reset")
		f.repo.failGet = dbErr

		_, err := f.guard.CheckPassword(ctx, id, goodPassword)
		assert.ErrorIs(t, err, dbErr)
	})

	t.Run("AuditFailureIsFatal", func(t *testing.T) {
		f := newGuardFixture(t, defaultLockout)
		id := f.createPrincipal(t)
		f.trail.err = auditDomain.ErrWriteFailed

		verdict, err := f.guard.CheckPassword(ctx, id, goodPassword)
		assert.ErrorIs(t, err, auditDomain.ErrWriteFailed)
		assert.False(t, verdict.OK())
	})
}

func TestGuard_SetPassword(t *testing.T) {
	ctx := context.Background()

	t.Run("PolicyViolationIsNotAudited", func(t *testing.T) {
		f := newGuardFixture(t, defaultLockout)
		id := f.createPrincipal(t)
		before := f.trail.count()

		err := f.guard.SetPassword(ctx, id, "short")
		assert.ErrorIs(t, err, credentialDomain.ErrPolicyViolation)
		assert.Contains(t, err.Error(), "at least 12 characters")
		assert.Equal(t, before, f.trail.count())
	})

	t.Run("SuccessClearsLockout", func(t *testing.T) {
		f := newGuardFixture(t, defaultLockout)
		id := f.createPrincipal(t)
		for range 5 {
			f.clock.Advance(3 * time.Second)
			_, err := f.guard.CheckPassword(ctx, id, badPassword)
			require.NoError(t, err)
		}
		locked := f.repo.credential(t, id)
		require.Equal(t, credentialDomain.StateLocked, locked.State(f.clock.Now()))

		f.clock.Advance(time.Minute)
		require.NoError(t, f.guard.SetPassword(ctx, id, "Another-Horse-43"))

		credential := f.repo.credential(t, id)
		assert.Equal(t, credentialDomain.StateActive, credential.State(f.clock.Now()))
		assert.Equal(t, 0, credential.FailedAttemptCount)
		assert.Equal(t, f.clock.Now(), *credential.PasswordSetAt)
		assert.Equal(t, auditDomain.ActionSetPassword, f.trail.last(t).Action)

		f.clock.Advance(3 * time.Second)
		verdict, err := f.guard.CheckPassword(ctx, id, "Another-Horse-43")
		require.NoError(t, err)
		assert.True(t, verdict.OK())
	})

	t.Run("UnknownPrincipal", func(t *testing.T) {
		f := newGuardFixture(t, defaultLockout)
		err := f.guard.SetPassword(ctx, uuid.Must(uuid.NewV7()), "Another-Horse-43")
		assert.ErrorIs(t, err, credentialDomain.ErrPrincipalNotFound)
	})
}

func TestGuard_APIKeyLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newGuardFixture(t, defaultLockout)
	id := f.createPrincipal(t)

	issued, err := f.guard.IssueAPIKey(ctx, id, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, id, issued.PrincipalID)
	assert.Equal(t, f.clock.Now().Add(time.Hour), issued.ExpiresAt)
	assert.Equal(t, auditDomain.ActionAPIKeyIssue, f.trail.last(t).Action)
	assert.NotContains(t, f.trail.last(t).Detail, issued.Token)

	ok, err := f.guard.VerifyAPIKey(ctx, id, issued.Token)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.guard.VerifyAPIKey(ctx, id, issued.Token+"x")
	require.NoError(t, err)
	assert.False(t, ok)

	f.clock.Advance(time.Hour - time.Nanosecond)
	ok, err = f.guard.VerifyAPIKey(ctx, id, issued.Token)
	require.NoError(t, err)
	assert.True(t, ok)

	f.clock.Advance(time.Nanosecond)
	ok, err = f.guard.VerifyAPIKey(ctx, id, issued.Token)
	require.NoError(t, err)
	assert.False(t, ok, "a key is invalid at its expiry instant")

	renewed, err := f.guard.IssueAPIKey(ctx, id, time.Hour)
	require.NoError(t, err)
	ok, err = f.guard.VerifyAPIKey(ctx, id, renewed.Token)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, f.guard.RevokeAPIKey(ctx, id))
	assert.Equal(t, auditDomain.ActionAPIKeyRevoke, f.trail.last(t).Action)
	ok, err = f.guard.VerifyAPIKey(ctx, id, renewed.Token)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGuard_IssueAPIKey(t *testing.T) {
	ctx := context.Background()

	t.Run("OverwritesPreviousKey", func(t *testing.T) {
		f := newGuardFixture(t, defaultLockout)
		id := f.createPrincipal(t)

		first, err := f.guard.IssueAPIKey(ctx, id, time.Hour)
		require.NoError(t, err)
		second, err := f.guard.IssueAPIKey(ctx, id, time.Hour)
		require.NoError(t, err)
		assert.NotEqual(t, first.Token, second.Token)

		ok, err := f.guard.VerifyAPIKey(ctx, id, first.Token)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("DefaultTTL", func(t *testing.T) {
		f := newGuardFixture(t, defaultLockout)
		id := f.createPrincipal(t)

		issued, err := f.guard.IssueAPIKey(ctx, id, 0)
		require.NoError(t, err)
		assert.Equal(t, f.clock.Now().Add(24*time.Hour), issued.ExpiresAt)
	})

	t.Run("NegativeTTL", func(t *testing.T) {
		f := newGuardFixture(t, defaultLockout)
		id := f.createPrincipal(t)

		_, err := f.guard.IssueAPIKey(ctx, id, -time.Second)
		assert.ErrorIs(t, err, credentialDomain.ErrInvalidTTL)
	})

	t.Run("TTLAtMax", func(t *testing.T) {
		f := newGuardFixture(t, defaultLockout)
		id := f.createPrincipal(t)

		issued, err := f.guard.IssueAPIKey(ctx, id, maxKeyTTL)
		require.NoError(t, err)
		assert.Equal(t, f.clock.Now().Add(maxKeyTTL), issued.ExpiresAt)
	})

	t.Run("TTLAboveMaxKeepsPreviousKey", func(t *testing.T) {
		f := newGuardFixture(t, defaultLockout)
		id := f.createPrincipal(t)

		issued, err := f.guard.IssueAPIKey(ctx, id, time.Hour)
		require.NoError(t, err)
		entries := f.trail.count()

		for _, ttl := range []time.Duration{maxKeyTTL + time.Nanosecond, time.Duration(math.MaxInt64)} {
			_, err = f.guard.IssueAPIKey(ctx, id, ttl)
			assert.ErrorIs(t, err, credentialDomain.ErrInvalidTTL)
		}
		assert.Equal(t, entries, f.trail.count())

		ok, err := f.guard.VerifyAPIKey(ctx, id, issued.Token)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("UnknownPrincipal", func(t *testing.T) {
		f := newGuardFixture(t, defaultLockout)
		_, err := f.guard.IssueAPIKey(ctx, uuid.Must(uuid.NewV7()), time.Hour)
		assert.ErrorIs(t, err, credentialDomain.ErrPrincipalNotFound)
	})
}

func TestGuard_VerifyAPIKeyWithoutKey(t *testing.T) {
	ctx := context.Background()
	f := newGuardFixture(t, defaultLockout)
	id := f.createPrincipal(t)

	ok, err := f.guard.VerifyAPIKey(ctx, id, "")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.guard.VerifyAPIKey(ctx, uuid.Must(uuid.NewV7()), "anything")
	require.NoError(t, err)
	assert.False(t, ok)
}
