// Package repository implements principal persistence for PostgreSQL and MySQL.
//
// Both implementations use database.GetTx so they join a transaction started
// by database.TxManager. GetForUpdate must run inside one to hold its row lock.
package repository

import (
	"database/sql"
	"time"

	credentialDomain "github.com/allisson/billvault/internal/credential/domain"
)

// principalRow holds the nullable columns of a principal row during a scan.
type principalRow struct {
	lastAttemptAt   sql.NullTime
	lockedUntil     sql.NullTime
	passwordSetAt   sql.NullTime
	apiKeyHash      sql.NullString
	apiKeyExpiresAt sql.NullTime
}

func (r *principalRow) fill(p *credentialDomain.Principal) {
	p.Credential.LastAttemptAt = timePtr(r.lastAttemptAt)
	p.Credential.LockedUntil = timePtr(r.lockedUntil)
	p.Credential.PasswordSetAt = timePtr(r.passwordSetAt)
	p.APIKey.TokenHash = r.apiKeyHash.String
	p.APIKey.ExpiresAt = timePtr(r.apiKeyExpiresAt)
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func checkRowsAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return credentialDomain.ErrPrincipalNotFound
	}
	return nil
}
