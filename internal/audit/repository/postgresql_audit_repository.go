// Package repository persists audit entries in PostgreSQL or MySQL.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/billvault/internal/audit/domain"
	"github.com/allisson/billvault/internal/database"
	apperrors "github.com/allisson/billvault/internal/errors"
)

// PostgreSQLAuditRepository implements the append-only audit sink for PostgreSQL.
type PostgreSQLAuditRepository struct {
	db *sql.DB
}

// NewPostgreSQLAuditRepository creates a new PostgreSQL audit repository.
func NewPostgreSQLAuditRepository(db *sql.DB) *PostgreSQLAuditRepository {
	return &PostgreSQLAuditRepository{db: db}
}

// Create inserts one entry. Nil metadata is stored as NULL.
func (p *PostgreSQLAuditRepository) Create(ctx context.Context, entry *auditDomain.Entry) error {
	querier := database.GetTx(ctx, p.db)

	metadataJSON, err := marshalMetadata(entry.Metadata)
	if err != nil {
		return err
	}

	query := `INSERT INTO audit_entries
			  (id, request_id, actor_id, action, resource, resource_id, source_address,
			   agent_string, outcome, detail, metadata, signature, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err = querier.ExecContext(
		ctx,
		query,
		entry.ID,
		entry.RequestID,
		nullUUID(entry.ActorID),
		entry.Action,
		entry.Resource,
		entry.ResourceID,
		entry.SourceAddress,
		entry.AgentString,
		string(entry.Outcome),
		entry.Detail,
		metadataJSON,
		entry.Signature,
		entry.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create audit entry")
	}

	return nil
}

// List returns entries oldest first.
func (p *PostgreSQLAuditRepository) List(ctx context.Context, offset, limit int) ([]*auditDomain.Entry, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, request_id, actor_id, action, resource, resource_id, source_address,
			  agent_string, outcome, detail, metadata, signature, created_at
			  FROM audit_entries
			  ORDER BY created_at ASC, id ASC
			  LIMIT $1 OFFSET $2`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit entries")
	}
	defer func() {
		_ = rows.Close()
	}()

	entries := make([]*auditDomain.Entry, 0)
	for rows.Next() {
		var entry auditDomain.Entry
		var actorID uuid.NullUUID
		var resourceID sql.NullString
		var outcome string
		var metadataJSON []byte

		err := rows.Scan(
			&entry.ID,
			&entry.RequestID,
			&actorID,
			&entry.Action,
			&entry.Resource,
			&resourceID,
			&entry.SourceAddress,
			&entry.AgentString,
			&outcome,
			&entry.Detail,
			&metadataJSON,
			&entry.Signature,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan audit entry")
		}

		if err := fillOptional(&entry, actorID, resourceID, outcome, metadataJSON); err != nil {
			return nil, err
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate audit entries")
	}

	return entries, nil
}

func marshalMetadata(metadata map[string]any) ([]byte, error) {
	if metadata == nil {
		return nil, nil
	}
	b, err := json.Marshal(metadata)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal audit entry metadata")
	}
	return b, nil
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func fillOptional(
	entry *auditDomain.Entry,
	actorID uuid.NullUUID,
	resourceID sql.NullString,
	outcome string,
	metadataJSON []byte,
) error {
	if actorID.Valid {
		id := actorID.UUID
		entry.ActorID = &id
	}
	if resourceID.Valid {
		id := resourceID.String
		entry.ResourceID = &id
	}
	entry.Outcome = auditDomain.Outcome(outcome)
	entry.CreatedAt = entry.CreatedAt.UTC()

	if metadataJSON != nil {
		if err := json.Unmarshal(metadataJSON, &entry.Metadata); err != nil {
			return apperrors.Wrap(err, "failed to unmarshal audit entry metadata")
		}
	}
	return nil
}
