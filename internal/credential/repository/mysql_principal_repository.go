package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	credentialDomain "github.com/allisson/billvault/internal/credential/domain"
	"github.com/allisson/billvault/internal/database"
	apperrors "github.com/allisson/billvault/internal/errors"
)

const mysqlSelectPrincipal = `SELECT id, name, password_digest, failed_attempt_count, last_attempt_at,
			  locked_until, password_set_at, api_key_hash, api_key_expires_at, created_at, updated_at
			  FROM principals WHERE id = ?`

// MySQLPrincipalRepository implements principal persistence for MySQL.
// UUIDs are stored as BINARY(16).
type MySQLPrincipalRepository struct {
	db *sql.DB
}

// NewMySQLPrincipalRepository creates a new MySQL principal repository.
func NewMySQLPrincipalRepository(db *sql.DB) *MySQLPrincipalRepository {
	return &MySQLPrincipalRepository{db: db}
}

// Create inserts a new principal.
func (m *MySQLPrincipalRepository) Create(ctx context.Context, principal *credentialDomain.Principal) error {
	querier := database.GetTx(ctx, m.db)

	id, err := principal.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal principal id")
	}

	query := `INSERT INTO principals
			  (id, name, password_digest, failed_attempt_count, last_attempt_at, locked_until,
			   password_set_at, api_key_hash, api_key_expires_at, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		principal.Name,
		principal.Credential.PasswordDigest,
		principal.Credential.FailedAttemptCount,
		nullTime(principal.Credential.LastAttemptAt),
		nullTime(principal.Credential.LockedUntil),
		nullTime(principal.Credential.PasswordSetAt),
		nullString(principal.APIKey.TokenHash),
		nullTime(principal.APIKey.ExpiresAt),
		principal.CreatedAt,
		principal.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return credentialDomain.ErrPrincipalAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create principal")
	}
	return nil
}

// Get retrieves a principal by ID.
func (m *MySQLPrincipalRepository) Get(
	ctx context.Context,
	principalID uuid.UUID,
) (*credentialDomain.Principal, error) {
	return m.get(ctx, mysqlSelectPrincipal, principalID)
}

// GetForUpdate retrieves a principal and locks its row for the current transaction.
func (m *MySQLPrincipalRepository) GetForUpdate(
	ctx context.Context,
	principalID uuid.UUID,
) (*credentialDomain.Principal, error) {
	return m.get(ctx, mysqlSelectPrincipal+" FOR UPDATE", principalID)
}

func (m *MySQLPrincipalRepository) get(
	ctx context.Context,
	query string,
	principalID uuid.UUID,
) (*credentialDomain.Principal, error) {
	querier := database.GetTx(ctx, m.db)

	idBytes, err := principalID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal principal id")
	}

	var principal credentialDomain.Principal
	var row principalRow
	var id []byte

	err = querier.QueryRowContext(ctx, query, idBytes).Scan(
		&id,
		&principal.Name,
		&principal.Credential.PasswordDigest,
		&principal.Credential.FailedAttemptCount,
		&row.lastAttemptAt,
		&row.lockedUntil,
		&row.passwordSetAt,
		&row.apiKeyHash,
		&row.apiKeyExpiresAt,
		&principal.CreatedAt,
		&principal.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, credentialDomain.ErrPrincipalNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get principal")
	}

	if err := principal.ID.UnmarshalBinary(id); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal principal id")
	}

	row.fill(&principal)
	return &principal, nil
}

// UpdateCredential overwrites the password and attempt state of a principal.
func (m *MySQLPrincipalRepository) UpdateCredential(
	ctx context.Context,
	principalID uuid.UUID,
	credential credentialDomain.Credential,
) error {
	querier := database.GetTx(ctx, m.db)

	id, err := principalID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal principal id")
	}

	query := `UPDATE principals
			  SET password_digest = ?,
			      failed_attempt_count = ?,
			      last_attempt_at = ?,
			      locked_until = ?,
			      password_set_at = ?,
			      updated_at = ?
			  WHERE id = ?`

	result, err := querier.ExecContext(
		ctx,
		query,
		credential.PasswordDigest,
		credential.FailedAttemptCount,
		nullTime(credential.LastAttemptAt),
		nullTime(credential.LockedUntil),
		nullTime(credential.PasswordSetAt),
		time.Now().UTC(),
		id,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update principal credential")
	}
	return checkRowsAffected(result)
}

// UpdateAPIKey overwrites the API key of a principal. A zero key clears it.
func (m *MySQLPrincipalRepository) UpdateAPIKey(
	ctx context.Context,
	principalID uuid.UUID,
	apiKey credentialDomain.APIKey,
) error {
	querier := database.GetTx(ctx, m.db)

	id, err := principalID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal principal id")
	}

	query := `UPDATE principals
			  SET api_key_hash = ?, api_key_expires_at = ?, updated_at = ?
			  WHERE id = ?`

	result, err := querier.ExecContext(
		ctx,
		query,
		nullString(apiKey.TokenHash),
		nullTime(apiKey.ExpiresAt),
		time.Now().UTC(),
		id,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update principal api key")
	}
	return checkRowsAffected(result)
}
