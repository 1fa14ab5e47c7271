package authtoken_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digitalbank/internal/platform/authtoken"
)

func TestIssueAndParse(t *testing.T) {
	signer, err := authtoken.NewSigner("test-secret")
	require.NoError(t, err)
	verifier, err := authtoken.NewVerifier("test-secret")
	require.NoError(t, err)

	now := time.Now().UTC()
	tokenString, claims, err := signer.Issue("1000", "CUSTOMER", "jti-1", now, 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "1000", claims.Subject)

	parsed, err := verifier.Parse(tokenString)
	require.NoError(t, err)
	assert.Equal(t, "1000", parsed.Subject)
	assert.Equal(t, "CUSTOMER", parsed.Role)
	assert.Equal(t, "jti-1", parsed.JTI)
}

func TestParse_RejectsWrongSecret(t *testing.T) {
	signer, err := authtoken.NewSigner("secret-a")
	require.NoError(t, err)
	verifier, err := authtoken.NewVerifier("secret-b")
	require.NoError(t, err)

	tokenString, _, err := signer.Issue("1000", "CUSTOMER", "jti-1", time.Now().UTC(), time.Hour)
	require.NoError(t, err)

	_, err = verifier.Parse(tokenString)
	assert.ErrorIs(t, err, authtoken.ErrInvalidToken)
}

func TestParse_RejectsExpiredToken(t *testing.T) {
	signer, err := authtoken.NewSigner("test-secret")
	require.NoError(t, err)
	verifier, err := authtoken.NewVerifier("test-secret")
	require.NoError(t, err)

	past := time.Now().UTC().Add(-time.Hour)
	tokenString, _, err := signer.Issue("1000", "CUSTOMER", "jti-1", past, time.Minute)
	require.NoError(t, err)

	_, err = verifier.Parse(tokenString)
	assert.ErrorIs(t, err, authtoken.ErrInvalidToken)
}

func TestNewSigner_RequiresSecret(t *testing.T) {
	_, err := authtoken.NewSigner("   ")
	assert.ErrorIs(t, err, authtoken.ErrMissingSecret)
}

func TestRevocationCache(t *testing.T) {
	cache := authtoken.NewRevocationCache(50 * time.Millisecond)
	assert.False(t, cache.IsRevoked("jti-1"))

	cache.Revoke("jti-1")
	assert.True(t, cache.IsRevoked("jti-1"))

	time.Sleep(100 * time.Millisecond)
	assert.False(t, cache.IsRevoked("jti-1"))
}

func TestRevocationCache_Sweep(t *testing.T) {
	cache := authtoken.NewRevocationCache(10 * time.Millisecond)
	cache.Revoke("jti-1")
	time.Sleep(20 * time.Millisecond)
	cache.Sweep()
	assert.False(t, cache.IsRevoked("jti-1"))
}
