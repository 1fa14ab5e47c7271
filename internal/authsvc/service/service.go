// Package service orchestrates Auth's login/logout flow: verify
// credentials via Users, mint a token, record it, and audit the outcome.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"digitalbank/internal/authsvc/domain"
	"digitalbank/internal/authsvc/usersclient"
	"digitalbank/internal/platform/authtoken"
	"digitalbank/internal/platform/logging"
)

// UsersClient is the subset of usersclient.Client's methods this package
// depends on, declared here so tests can substitute a fake instead of
// standing up Users' HTTP surface.
type UsersClient interface {
	VerifyCredentials(ctx context.Context, username, password string) (usersclient.Verification, error)
}

// Ledger is the subset of store.Store's methods this package depends on,
// declared here so tests can substitute a fake instead of a live Postgres
// connection.
type Ledger interface {
	InsertToken(ctx context.Context, t domain.IssuedToken) error
	Revoke(ctx context.Context, jti string) error
	RevokedSince(ctx context.Context, since time.Time) ([]string, error)
	InsertAudit(ctx context.Context, username string, outcome domain.AuditOutcome) error
}

// Signer is the subset of authtoken.Signer's methods this package depends
// on, declared here so tests can substitute a fake instead of a real HMAC
// secret.
type Signer interface {
	Issue(subject, role, jti string, issuedAt time.Time, ttl time.Duration) (string, authtoken.Claims, error)
}

type Service struct {
	store  Ledger
	users  UsersClient
	signer Signer
	ttl    time.Duration
}

func New(s Ledger, users UsersClient, signer Signer, ttl time.Duration) *Service {
	return &Service{store: s, users: users, signer: signer, ttl: ttl}
}

type LoginResult struct {
	Token     string
	Subject   string
	Role      string
	ExpiresAt time.Time
}

// Login implements spec.md's Authentication component's Login operation:
// verify against Users, mint a bearer token, persist it, and audit the
// outcome either way.
func (s *Service) Login(ctx context.Context, username, password string) (LoginResult, error) {
	verification, err := s.users.VerifyCredentials(ctx, username, password)
	if err != nil {
		return LoginResult{}, err
	}
	if !verification.Valid || verification.Disabled {
		if auditErr := s.store.InsertAudit(ctx, username, domain.OutcomeLoginFailure); auditErr != nil {
			logging.Warn("failed to record login failure audit", map[string]interface{}{"error": auditErr.Error()})
		}
		return LoginResult{}, domain.ErrInvalidCredentials
	}

	jti := uuid.NewString()
	now := time.Now().UTC()
	tokenString, claims, err := s.signer.Issue(verification.UserID, verification.Role, jti, now, s.ttl)
	if err != nil {
		return LoginResult{}, err
	}

	if err := s.store.InsertToken(ctx, domain.IssuedToken{
		JTI: jti, Subject: claims.Subject, Role: claims.Role,
		IssuedAt: claims.IssuedAt, ExpiresAt: claims.ExpiresAt,
	}); err != nil {
		return LoginResult{}, err
	}
	if err := s.store.InsertAudit(ctx, username, domain.OutcomeLoginSuccess); err != nil {
		logging.Warn("failed to record login success audit", map[string]interface{}{"error": err.Error()})
	}

	return LoginResult{Token: tokenString, Subject: claims.Subject, Role: claims.Role, ExpiresAt: claims.ExpiresAt}, nil
}

// Logout revokes the token named by jti and writes a LOGOUT audit row
// keyed by that jti (spec.md §4.5's revocation requirement).
func (s *Service) Logout(ctx context.Context, jti string) error {
	if err := s.store.Revoke(ctx, jti); err != nil {
		return err
	}
	if err := s.store.InsertAudit(ctx, jti, domain.OutcomeLogout); err != nil {
		logging.Warn("failed to record logout audit", map[string]interface{}{"error": err.Error()})
	}
	return nil
}

// Revocations answers the internal feed Accounts/Transactions poll.
func (s *Service) Revocations(ctx context.Context, since time.Time) ([]string, error) {
	return s.store.RevokedSince(ctx, since)
}
