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

const postgresSelectPrincipal = `SELECT id, name, password_digest, failed_attempt_count, last_attempt_at,
			  locked_until, password_set_at, api_key_hash, api_key_expires_at, created_at, updated_at
			  FROM principals WHERE id = $1`

// PostgreSQLPrincipalRepository implements principal persistence for PostgreSQL.
type PostgreSQLPrincipalRepository struct {
	db *sql.DB
}

// NewPostgreSQLPrincipalRepository creates a new PostgreSQL principal repository.
func NewPostgreSQLPrincipalRepository(db *sql.DB) *PostgreSQLPrincipalRepository {
	return &PostgreSQLPrincipalRepository{db: db}
}

// Create inserts a new principal.
func (p *PostgreSQLPrincipalRepository) Create(ctx context.Context, principal *credentialDomain.Principal) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO principals
			  (id, name, password_digest, failed_attempt_count, last_attempt_at, locked_until,
			   password_set_at, api_key_hash, api_key_expires_at, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := querier.ExecContext(
		ctx,
		query,
		principal.ID,
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
func (p *PostgreSQLPrincipalRepository) Get(
	ctx context.Context,
	principalID uuid.UUID,
) (*credentialDomain.Principal, error) {
	return p.get(ctx, postgresSelectPrincipal, principalID)
}

// GetForUpdate retrieves a principal and locks its row for the current transaction.
func (p *PostgreSQLPrincipalRepository) GetForUpdate(
	ctx context.Context,
	principalID uuid.UUID,
) (*credentialDomain.Principal, error) {
	return p.get(ctx, postgresSelectPrincipal+" FOR UPDATE", principalID)
}

func (p *PostgreSQLPrincipalRepository) get(
	ctx context.Context,
	query string,
	principalID uuid.UUID,
) (*credentialDomain.Principal, error) {
	querier := database.GetTx(ctx, p.db)

	var principal credentialDomain.Principal
	var row principalRow

	err := querier.QueryRowContext(ctx, query, principalID).Scan(
		&principal.ID,
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

	row.fill(&principal)
	return &principal, nil
}

// UpdateCredential overwrites the password and attempt state of a principal.
func (p *PostgreSQLPrincipalRepository) UpdateCredential(
	ctx context.Context,
	principalID uuid.UUID,
	credential credentialDomain.Credential,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE principals
			  SET password_digest = $1,
			      failed_attempt_count = $2,
			      last_attempt_at = $3,
			      locked_until = $4,
			      password_set_at = $5,
			      updated_at = $6
			  WHERE id = $7`

	result, err := querier.ExecContext(
		ctx,
		query,
		credential.PasswordDigest,
		credential.FailedAttemptCount,
		nullTime(credential.LastAttemptAt),
		nullTime(credential.LockedUntil),
		nullTime(credential.PasswordSetAt),
		time.Now().UTC(),
		principalID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update principal credential")
	}
	return checkRowsAffected(result)
}

// UpdateAPIKey overwrites the API key of a principal. A zero key clears it.
func (p *PostgreSQLPrincipalRepository) UpdateAPIKey(
	ctx context.Context,
	principalID uuid.UUID,
	apiKey credentialDomain.APIKey,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE principals
			  SET api_key_hash = $1, api_key_expires_at = $2, updated_at = $3
			  WHERE id = $4`

	result, err := querier.ExecContext(
		ctx,
		query,
		nullString(apiKey.TokenHash),
		nullTime(apiKey.ExpiresAt),
		time.Now().UTC(),
		principalID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update principal api key")
	}
	return checkRowsAffected(result)
}
