package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"gocloud.dev/gcerrors"
	"gocloud.dev/secrets"

	cryptoDomain "github.com/allisson/billvault/internal/crypto/domain"

	// Register all KMS provider drivers
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

// KeeperGateway implements KeyGateway with a gocloud.dev/secrets keeper.
//
// Data keys are generated locally from crypto/rand and wrapped by the keeper,
// so the master key never leaves the key-management service. Every call is
// bounded by the configured timeout; a timeout surfaces as
// ErrKeyServiceUnavailable and is never retried here.
type KeeperGateway struct {
	keeper  Keeper
	timeout time.Duration
}

// NewKeeperGateway wraps an already opened keeper.
// A zero timeout disables the per-call deadline.
func NewKeeperGateway(keeper Keeper, timeout time.Duration) *KeeperGateway {
	return &KeeperGateway{keeper: keeper, timeout: timeout}
}

// OpenKeeperGateway opens a secrets.Keeper for keyURI and wraps it.
// Supports: gcpkms://, awskms://, azurekeyvault://, hashivault://, base64key://
func OpenKeeperGateway(ctx context.Context, keyURI string, timeout time.Duration) (*KeeperGateway, error) {
	keeper, err := secrets.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	return NewKeeperGateway(keeper, timeout), nil
}

// GenerateDataKey creates a random 32-byte key and wraps it with the keeper.
func (g *KeeperGateway) GenerateDataKey(ctx context.Context) (*cryptoDomain.DataKey, error) {
	plaintext := make([]byte, cryptoDomain.KeySize)
	if _, err := rand.Read(plaintext); err != nil {
		return nil, fmt.Errorf("failed to generate data key: %w", err)
	}

	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	wrapped, err := g.keeper.Encrypt(ctx, plaintext)
	if err != nil {
		cryptoDomain.Zero(plaintext)
		if classified := classifyKeeperError(ctx, err); classified != nil {
			return nil, classified
		}
		return nil, errors.Join(cryptoDomain.ErrKeyServiceUnavailable, err)
	}

	return &cryptoDomain.DataKey{Plaintext: plaintext, Wrapped: wrapped}, nil
}

// UnwrapDataKey decrypts a wrapped key with the keeper.
func (g *KeeperGateway) UnwrapDataKey(ctx context.Context, wrapped []byte) ([]byte, error) {
	if len(wrapped) == 0 {
		return nil, cryptoDomain.ErrKeyUnwrapFailed
	}

	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	plaintext, err := g.keeper.Decrypt(ctx, wrapped)
	if err != nil {
		if classified := classifyKeeperError(ctx, err); classified != nil {
			return nil, classified
		}
		return nil, cryptoDomain.ErrKeyUnwrapFailed
	}
	if len(plaintext) != cryptoDomain.KeySize {
		cryptoDomain.Zero(plaintext)
		return nil, cryptoDomain.ErrKeyUnwrapFailed
	}

	return plaintext, nil
}

// Close releases the underlying keeper.
func (g *KeeperGateway) Close() error {
	return g.keeper.Close()
}

func (g *KeeperGateway) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.timeout)
}

// classifyKeeperError maps transport and authorization failures to gateway
// errors. It returns nil for anything else so the caller can pick the
// operation-specific error.
func classifyKeeperError(ctx context.Context, err error) error {
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return cryptoDomain.ErrKeyServiceUnavailable
	}

	switch gcerrors.Code(err) {
	case gcerrors.PermissionDenied:
		return cryptoDomain.ErrKeyServiceDenied
	case gcerrors.DeadlineExceeded, gcerrors.Canceled, gcerrors.ResourceExhausted, gcerrors.Internal:
		return cryptoDomain.ErrKeyServiceUnavailable
	default:
		return nil
	}
}
