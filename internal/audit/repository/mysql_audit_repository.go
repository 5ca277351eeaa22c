package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/billvault/internal/audit/domain"
	"github.com/allisson/billvault/internal/database"
	apperrors "github.com/allisson/billvault/internal/errors"
)

// MySQLAuditRepository implements the append-only audit sink for MySQL.
// UUIDs are stored as BINARY(16).
type MySQLAuditRepository struct {
	db *sql.DB
}

// NewMySQLAuditRepository creates a new MySQL audit repository.
func NewMySQLAuditRepository(db *sql.DB) *MySQLAuditRepository {
	return &MySQLAuditRepository{db: db}
}

// Create inserts one entry. Nil metadata is stored as NULL.
func (m *MySQLAuditRepository) Create(ctx context.Context, entry *auditDomain.Entry) error {
	querier := database.GetTx(ctx, m.db)

	metadataJSON, err := marshalMetadata(entry.Metadata)
	if err != nil {
		return err
	}

	id, err := entry.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal audit entry id")
	}

	var actorID []byte
	if entry.ActorID != nil {
		actorID, err = entry.ActorID.MarshalBinary()
		if err != nil {
			return apperrors.Wrap(err, "failed to marshal audit entry actor_id")
		}
	}

	query := `INSERT INTO audit_entries
			  (id, request_id, actor_id, action, resource, resource_id, source_address,
			   agent_string, outcome, detail, metadata, signature, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		entry.RequestID,
		actorID,
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
func (m *MySQLAuditRepository) List(ctx context.Context, offset, limit int) ([]*auditDomain.Entry, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, request_id, actor_id, action, resource, resource_id, source_address,
			  agent_string, outcome, detail, metadata, signature, created_at
			  FROM audit_entries
			  ORDER BY created_at ASC, id ASC
			  LIMIT ? OFFSET ?`

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
		var id, actorBytes []byte
		var resourceID sql.NullString
		var outcome string
		var metadataJSON []byte

		err := rows.Scan(
			&id,
			&entry.RequestID,
			&actorBytes,
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

		if err := entry.ID.UnmarshalBinary(id); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal audit entry id")
		}

		var actorID uuid.NullUUID
		if actorBytes != nil {
			if err := actorID.UUID.UnmarshalBinary(actorBytes); err != nil {
				return nil, apperrors.Wrap(err, "failed to unmarshal audit entry actor_id")
			}
			actorID.Valid = true
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
