package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digitalbank/internal/authsvc/domain"
	"digitalbank/internal/authsvc/service"
	"digitalbank/internal/authsvc/usersclient"
	"digitalbank/internal/platform/authtoken"
)

type fakeUsers struct {
	verification usersclient.Verification
	err          error
}

func (f *fakeUsers) VerifyCredentials(ctx context.Context, username, password string) (usersclient.Verification, error) {
	return f.verification, f.err
}

type fakeLedger struct {
	tokens  []domain.IssuedToken
	audits  []domain.AuditOutcome
	revoked map[string]bool
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{revoked: make(map[string]bool)}
}

func (f *fakeLedger) InsertToken(ctx context.Context, t domain.IssuedToken) error {
	f.tokens = append(f.tokens, t)
	return nil
}
func (f *fakeLedger) Revoke(ctx context.Context, jti string) error {
	if f.revoked[jti] {
		return domain.ErrAlreadyRevoked
	}
	f.revoked[jti] = true
	return nil
}
func (f *fakeLedger) RevokedSince(ctx context.Context, since time.Time) ([]string, error) {
	var out []string
	for jti := range f.revoked {
		out = append(out, jti)
	}
	return out, nil
}
func (f *fakeLedger) InsertAudit(ctx context.Context, username string, outcome domain.AuditOutcome) error {
	f.audits = append(f.audits, outcome)
	return nil
}

type fakeSigner struct{}

func (fakeSigner) Issue(subject, role, jti string, issuedAt time.Time, ttl time.Duration) (string, authtoken.Claims, error) {
	claims := authtoken.Claims{Subject: subject, Role: role, JTI: jti, IssuedAt: issuedAt, ExpiresAt: issuedAt.Add(ttl)}
	return "signed." + jti, claims, nil
}

func TestLogin_Succeeds(t *testing.T) {
	users := &fakeUsers{verification: usersclient.Verification{Valid: true, UserID: "u-1", Role: "CUSTOMER"}}
	ledger := newFakeLedger()
	svc := service.New(ledger, users, fakeSigner{}, 30*time.Minute)

	result, err := svc.Login(context.Background(), "jane", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "u-1", result.Subject)
	assert.Equal(t, "CUSTOMER", result.Role)
	assert.Len(t, ledger.tokens, 1)
	assert.Contains(t, ledger.audits, domain.OutcomeLoginSuccess)
}

func TestLogin_RejectsInvalidCredentials(t *testing.T) {
	users := &fakeUsers{verification: usersclient.Verification{Valid: false}}
	ledger := newFakeLedger()
	svc := service.New(ledger, users, fakeSigner{}, 30*time.Minute)

	_, err := svc.Login(context.Background(), "jane", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	assert.Contains(t, ledger.audits, domain.OutcomeLoginFailure)
	assert.Empty(t, ledger.tokens)
}

func TestLogin_RejectsDisabledUser(t *testing.T) {
	users := &fakeUsers{verification: usersclient.Verification{Valid: true, UserID: "u-1", Role: "CUSTOMER", Disabled: true}}
	ledger := newFakeLedger()
	svc := service.New(ledger, users, fakeSigner{}, 30*time.Minute)

	_, err := svc.Login(context.Background(), "jane", "hunter22")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLogout_RevokesAndAudits(t *testing.T) {
	ledger := newFakeLedger()
	svc := service.New(ledger, &fakeUsers{}, fakeSigner{}, 30*time.Minute)

	err := svc.Logout(context.Background(), "jti-1")
	require.NoError(t, err)
	assert.True(t, ledger.revoked["jti-1"])
	assert.Contains(t, ledger.audits, domain.OutcomeLogout)
}

func TestLogout_PropagatesAlreadyRevoked(t *testing.T) {
	ledger := newFakeLedger()
	ledger.revoked["jti-1"] = true
	svc := service.New(ledger, &fakeUsers{}, fakeSigner{}, 30*time.Minute)

	err := svc.Logout(context.Background(), "jti-1")
	assert.ErrorIs(t, err, domain.ErrAlreadyRevoked)
}
