package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digitalbank/internal/authsvc/domain"
	"digitalbank/internal/authsvc/migrations"
	"digitalbank/internal/authsvc/store"
	"digitalbank/internal/platform/dbtest"
)

func newStore(t *testing.T) *store.Store {
	pool := dbtest.Pool(t, migrations.FS)
	return store.New(pool)
}

func issuedToken(jti string, at time.Time) domain.IssuedToken {
	return domain.IssuedToken{JTI: jti, Subject: "1000", Role: "CUSTOMER", IssuedAt: at, ExpiresAt: at.Add(30 * time.Minute)}
}

func TestRevoke_MarksTokenRevoked(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.InsertToken(ctx, issuedToken("jti-1", now)))
	require.NoError(t, s.Revoke(ctx, "jti-1"))

	revoked, err := s.RevokedSince(ctx, now.Add(-time.Minute))
	require.NoError(t, err)
	assert.Contains(t, revoked, "jti-1")
}

func TestRevoke_RejectsAlreadyRevoked(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.InsertToken(ctx, issuedToken("jti-2", now)))
	require.NoError(t, s.Revoke(ctx, "jti-2"))

	assert.ErrorIs(t, s.Revoke(ctx, "jti-2"), domain.ErrAlreadyRevoked)
}

func TestRevoke_RejectsUnknownToken(t *testing.T) {
	s := newStore(t)
	assert.ErrorIs(t, s.Revoke(context.Background(), "ghost-jti"), domain.ErrTokenNotFound)
}

func TestRevokedSince_ExcludesExpiredTokens(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	past := time.Now().UTC().Add(-time.Hour)

	token := issuedToken("jti-expired", past)
	token.ExpiresAt = past.Add(time.Minute)
	require.NoError(t, s.InsertToken(ctx, token))
	require.NoError(t, s.Revoke(ctx, "jti-expired"))

	revoked, err := s.RevokedSince(ctx, past.Add(-time.Minute))
	require.NoError(t, err)
	assert.NotContains(t, revoked, "jti-expired")
}

func TestInsertAudit(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.InsertAudit(context.Background(), "jane", domain.OutcomeLoginSuccess))
}
