// Package service implements Users' identity CRUD and the
// verify-credentials/role-lookup capabilities Auth consumes. Grounded on
// the accounts store's bcrypt handling for the PIN vault, applied here to
// account-holder passwords.
package service

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"digitalbank/internal/userssvc/domain"
)

// Directory is the subset of store.Store's methods this package depends
// on, declared here so tests can substitute a fake instead of a live
// Postgres connection.
type Directory interface {
	Create(ctx context.Context, username, passwordHash string, role domain.Role) (string, error)
	Get(ctx context.Context, id string) (domain.User, error)
	GetByUsername(ctx context.Context, username string) (domain.User, error)
	UpdateRole(ctx context.Context, id string, role domain.Role) error
	SetDisabled(ctx context.Context, id string, disabled bool) error
}

type Service struct {
	store Directory
}

func New(s Directory) *Service {
	return &Service{store: s}
}

func (s *Service) Create(ctx context.Context, username, password string, role domain.Role) (string, error) {
	if strings.TrimSpace(username) == "" {
		return "", domain.ErrInvalidUsername
	}
	if len(password) < 8 {
		return "", domain.ErrWeakPassword
	}
	if !role.Valid() {
		return "", domain.ErrInvalidRole
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return s.store.Create(ctx, username, string(hash), role)
}

func (s *Service) Get(ctx context.Context, id string) (domain.User, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) UpdateRole(ctx context.Context, id string, role domain.Role) error {
	if !role.Valid() {
		return domain.ErrInvalidRole
	}
	return s.store.UpdateRole(ctx, id, role)
}

func (s *Service) SetDisabled(ctx context.Context, id string, disabled bool) error {
	return s.store.SetDisabled(ctx, id, disabled)
}

// VerifyCredentials is the capability Auth's Login flow consumes:
// constant-time password compare against the stored bcrypt hash, no
// disclosure of whether the username itself exists on failure.
func (s *Service) VerifyCredentials(ctx context.Context, username, password string) (valid bool, userID, role string, disabled bool, err error) {
	u, getErr := s.store.GetByUsername(ctx, username)
	if getErr == domain.ErrNotFound {
		return false, "", "", false, nil
	}
	if getErr != nil {
		return false, "", "", false, getErr
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return false, "", "", false, nil
	}
	return true, u.ID, string(u.Role), u.Disabled, nil
}

func (s *Service) GetRole(ctx context.Context, id string) (string, error) {
	u, err := s.store.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return string(u.Role), nil
}
