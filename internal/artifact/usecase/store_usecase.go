package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	artifactDomain "github.com/allisson/billvault/internal/artifact/domain"
	artifactService "github.com/allisson/billvault/internal/artifact/service"
	auditDomain "github.com/allisson/billvault/internal/audit/domain"
	auditUseCase "github.com/allisson/billvault/internal/audit/usecase"
	cryptoDomain "github.com/allisson/billvault/internal/crypto/domain"
	cryptoService "github.com/allisson/billvault/internal/crypto/service"
	apperrors "github.com/allisson/billvault/internal/errors"
)

// Object metadata keys. Values are base64 where binary.
const (
	metaIV         = "iv"
	metaWrappedKey = "wrapped-key"
	metaOwnerID    = "owner-id"
	metaSize       = "plaintext-size"
)

type storeUseCase struct {
	objects ObjectStore
	engine  cryptoService.EnvelopeEncrypter
	sniffer artifactService.Sniffer
	trail   auditUseCase.Trail
	logger  *slog.Logger
	now     func() time.Time
}

// NewStoreUseCase creates the artifact StoreUseCase.
func NewStoreUseCase(
	objects ObjectStore,
	engine cryptoService.EnvelopeEncrypter,
	sniffer artifactService.Sniffer,
	trail auditUseCase.Trail,
	logger *slog.Logger,
) StoreUseCase {
	return &storeUseCase{
		objects: objects,
		engine:  engine,
		sniffer: sniffer,
		trail:   trail,
		logger:  logger,
		now:     time.Now,
	}
}

// Submit runs detached from ctx cancellation: once started, the write and its
// audit entry always complete together.
func (s *storeUseCase) Submit(
	ctx context.Context,
	data []byte,
	declaredFilename string,
	ownerID uuid.UUID,
) (*artifactDomain.StoredArtifact, error) {
	ctx = context.WithoutCancel(ctx)

	artifact, existed, err := s.submit(ctx, data, declaredFilename, ownerID)
	if err != nil {
		event := s.event(auditDomain.ActionArtifactSubmit, "", ownerID, auditDomain.OutcomeFailure)
		event.Detail = fmt.Sprintf("submit rejected: %v", err)
		event.Metadata = map[string]any{"declared_filename": filepath.Base(declaredFilename), "size": len(data)}
		if auditErr := s.trail.Record(ctx, event); auditErr != nil {
			return nil, apperrors.Join(err, auditErr)
		}
		return nil, err
	}

	event := s.event(auditDomain.ActionArtifactSubmit, artifact.Name(), ownerID, auditDomain.OutcomeSuccess)
	event.Detail = fmt.Sprintf("stored artifact %s for owner %s", hashPrefix(artifact.ContentHash), ownerID)
	event.Metadata = map[string]any{"content_type": artifact.ContentType.MIME, "size": artifact.Size}
	if err := s.trail.Record(ctx, event); err != nil {
		// A write nobody can account for is rolled back. Content that was
		// already present stays, since an earlier submit audited it.
		if !existed {
			if delErr := s.objects.Delete(ctx, artifact.Name()); delErr != nil {
				s.logger.Error("failed to roll back unaudited artifact",
					slog.String("name", artifact.Name()),
					slog.Any("error", delErr),
				)
			}
		}
		return nil, err
	}

	return artifact, nil
}

func (s *storeUseCase) submit(
	ctx context.Context,
	data []byte,
	declaredFilename string,
	ownerID uuid.UUID,
) (*artifactDomain.StoredArtifact, bool, error) {
	if len(data) == 0 {
		return nil, false, artifactDomain.ErrEmptyArtifact
	}

	detected, ct, ok := s.sniffer.Sniff(data)
	if !ok {
		return nil, false, apperrors.Wrap(artifactDomain.ErrUnsupportedType, detected)
	}

	if declaredExtension(declaredFilename) != ct.Extension {
		return nil, false, artifactDomain.ErrExtensionMismatch
	}

	sum := sha256.Sum256(data)
	artifact := &artifactDomain.StoredArtifact{
		ContentHash: hex.EncodeToString(sum[:]),
		ContentType: ct,
		OwnerID:     ownerID,
		Size:        int64(len(data)),
		StoredAt:    s.now().UTC(),
	}

	existed, err := s.objects.Exists(ctx, artifact.Name())
	if err != nil {
		return nil, false, apperrors.Join(artifactDomain.ErrStorage, err)
	}

	envelope, err := s.engine.Encrypt(ctx, data)
	if err != nil {
		return nil, false, apperrors.Join(artifactDomain.ErrStorage, err)
	}

	object := &artifactDomain.Object{
		Data: envelope.Ciphertext,
		Metadata: map[string]string{
			metaIV:         base64.StdEncoding.EncodeToString(envelope.IV),
			metaWrappedKey: base64.StdEncoding.EncodeToString(envelope.WrappedKey),
			metaOwnerID:    ownerID.String(),
			metaSize:       strconv.FormatInt(artifact.Size, 10),
		},
	}
	if err := s.objects.Put(ctx, artifact.Name(), object); err != nil {
		return nil, false, apperrors.Join(artifactDomain.ErrStorage, err)
	}

	return artifact, existed, nil
}

func (s *storeUseCase) Retrieve(
	ctx context.Context,
	name string,
	requesterID uuid.UUID,
) (*artifactDomain.RetrievedArtifact, error) {
	ctx = context.WithoutCancel(ctx)

	artifact, err := s.retrieve(ctx, name)

	outcome := auditDomain.OutcomeSuccess
	detail := fmt.Sprintf("artifact read by %s", requesterID)
	if err != nil {
		outcome = auditDomain.OutcomeFailure
		detail = fmt.Sprintf("artifact read by %s failed: %v", requesterID, err)
	}

	event := s.event(auditDomain.ActionArtifactRetrieve, name, requesterID, outcome)
	event.Detail = detail
	if auditErr := s.trail.Record(ctx, event); auditErr != nil {
		return nil, apperrors.Join(err, auditErr)
	}

	if err != nil {
		return nil, err
	}
	return artifact, nil
}

func (s *storeUseCase) retrieve(ctx context.Context, name string) (*artifactDomain.RetrievedArtifact, error) {
	hash, ct, err := artifactDomain.ParseName(name)
	if err != nil {
		return nil, err
	}

	object, err := s.objects.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	envelope, err := envelopeFromObject(object)
	if err != nil {
		return nil, artifactDomain.ErrIntegrityViolation
	}

	data, err := s.engine.Decrypt(ctx, envelope)
	if err != nil {
		if apperrors.Is(err, cryptoDomain.ErrKeyServiceUnavailable) {
			return nil, err
		}
		return nil, apperrors.Join(artifactDomain.ErrIntegrityViolation, err)
	}

	// The store is not trusted: content must still be allow-listed, match the
	// extension in its name and hash to its name.
	_, sniffed, ok := s.sniffer.Sniff(data)
	if !ok || sniffed != ct {
		return nil, artifactDomain.ErrIntegrityViolation
	}
	sum := sha256.Sum256(data)
	if hex.EncodeToString(sum[:]) != hash {
		return nil, artifactDomain.ErrIntegrityViolation
	}

	return &artifactDomain.RetrievedArtifact{
		Name:        name,
		ContentHash: hash,
		ContentType: ct,
		Data:        data,
	}, nil
}

func (s *storeUseCase) Purge(ctx context.Context, name string, requesterID uuid.UUID) error {
	ctx = context.WithoutCancel(ctx)

	err := s.purge(ctx, name)

	outcome := auditDomain.OutcomeSuccess
	detail := fmt.Sprintf("artifact purged by %s", requesterID)
	if err != nil {
		outcome = auditDomain.OutcomeFailure
		detail = fmt.Sprintf("artifact purge by %s failed: %v", requesterID, err)
	}

	event := s.event(auditDomain.ActionArtifactPurge, name, requesterID, outcome)
	event.Detail = detail
	if auditErr := s.trail.Record(ctx, event); auditErr != nil {
		return apperrors.Join(err, auditErr)
	}

	return err
}

func (s *storeUseCase) purge(ctx context.Context, name string) error {
	if _, _, err := artifactDomain.ParseName(name); err != nil {
		return err
	}
	return s.objects.Delete(ctx, name)
}

func (s *storeUseCase) event(action, name string, actor uuid.UUID, outcome auditDomain.Outcome) auditDomain.Event {
	actorID := actor
	return auditDomain.Event{
		Action:     action,
		Resource:   auditDomain.ResourceArtifact,
		ResourceID: name,
		ActorID:    &actorID,
		Outcome:    outcome,
	}
}

func envelopeFromObject(object *artifactDomain.Object) (*cryptoDomain.Envelope, error) {
	iv, err := base64.StdEncoding.DecodeString(object.Metadata[metaIV])
	if err != nil || len(iv) != cryptoDomain.IVSize {
		return nil, cryptoDomain.ErrMalformedEnvelope
	}
	wrappedKey, err := base64.StdEncoding.DecodeString(object.Metadata[metaWrappedKey])
	if err != nil || len(wrappedKey) == 0 {
		return nil, cryptoDomain.ErrMalformedEnvelope
	}
	return &cryptoDomain.Envelope{IV: iv, Ciphertext: object.Data, WrappedKey: wrappedKey}, nil
}

// declaredExtension returns the lowercased extension of the last path element.
func declaredExtension(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	return strings.ToLower(filepath.Ext(base))
}

func hashPrefix(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
