// Package store is Auth's Postgres persistence layer: the issued-token
// ledger the revocation feed is read from, and the login audit trail.
// Grounded on the teacher's postgres repository shape, applied to a new
// schema since nothing in the teacher's domain models a token ledger.
package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"digitalbank/internal/authsvc/domain"
	"digitalbank/internal/platform/apierror"
)

type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) InsertToken(ctx context.Context, t domain.IssuedToken) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO auth_tokens (jti, subject, role, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)`,
		t.JTI, t.Subject, t.Role, t.IssuedAt, t.ExpiresAt)
	if err != nil {
		return apierror.StorageFailure("failed to record issued token")
	}
	return nil
}

// Revoke marks a token revoked by jti. Returns domain.ErrTokenNotFound if
// no such token was ever issued, domain.ErrAlreadyRevoked if it already is.
func (s *Store) Revoke(ctx context.Context, jti string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return apierror.StorageFailure("failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	var revokedAt *time.Time
	err = tx.QueryRow(ctx, `SELECT revoked_at FROM auth_tokens WHERE jti = $1 FOR UPDATE`, jti).Scan(&revokedAt)
	if err == pgx.ErrNoRows {
		return domain.ErrTokenNotFound
	}
	if err != nil {
		return apierror.StorageFailure("failed to look up token")
	}
	if revokedAt != nil {
		return domain.ErrAlreadyRevoked
	}

	if _, err := tx.Exec(ctx, `UPDATE auth_tokens SET revoked_at = now() WHERE jti = $1`, jti); err != nil {
		return apierror.StorageFailure("failed to revoke token")
	}
	if err := tx.Commit(ctx); err != nil {
		return apierror.StorageFailure("failed to commit transaction")
	}
	return nil
}

// RevokedSince returns the jti of every token revoked at or after `since`
// and not yet expired — the feed Accounts/Transactions poll into their
// local RevocationCache.
func (s *Store) RevokedSince(ctx context.Context, since time.Time) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT jti FROM auth_tokens
		WHERE revoked_at IS NOT NULL AND revoked_at >= $1 AND expires_at > now()`, since)
	if err != nil {
		return nil, apierror.StorageFailure("failed to list revoked tokens")
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var jti string
		if err := rows.Scan(&jti); err != nil {
			return nil, apierror.StorageFailure("failed to scan revoked token")
		}
		out = append(out, jti)
	}
	return out, rows.Err()
}

func (s *Store) InsertAudit(ctx context.Context, username string, outcome domain.AuditOutcome) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO auth_audit (username, outcome, at) VALUES ($1, $2, now())`, username, outcome)
	if err != nil {
		return apierror.StorageFailure("failed to record audit entry")
	}
	return nil
}
