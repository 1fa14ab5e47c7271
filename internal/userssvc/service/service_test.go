package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"digitalbank/internal/userssvc/domain"
	"digitalbank/internal/userssvc/service"
)

type fakeDirectory struct {
	byUsername map[string]domain.User
	byID       map[string]domain.User
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{byUsername: make(map[string]domain.User), byID: make(map[string]domain.User)}
}

func (f *fakeDirectory) Create(ctx context.Context, username, passwordHash string, role domain.Role) (string, error) {
	if _, ok := f.byUsername[username]; ok {
		return "", domain.ErrDuplicate
	}
	u := domain.User{ID: "id-" + username, Username: username, PasswordHash: passwordHash, Role: role}
	f.byUsername[username] = u
	f.byID[u.ID] = u
	return u.ID, nil
}

func (f *fakeDirectory) Get(ctx context.Context, id string) (domain.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

func (f *fakeDirectory) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	u, ok := f.byUsername[username]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

func (f *fakeDirectory) UpdateRole(ctx context.Context, id string, role domain.Role) error {
	u, ok := f.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.Role = role
	f.byID[id] = u
	f.byUsername[u.Username] = u
	return nil
}

func (f *fakeDirectory) SetDisabled(ctx context.Context, id string, disabled bool) error {
	u, ok := f.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.Disabled = disabled
	f.byID[id] = u
	f.byUsername[u.Username] = u
	return nil
}

func TestCreate_RejectsWeakPassword(t *testing.T) {
	svc := service.New(newFakeDirectory())
	_, err := svc.Create(context.Background(), "jane", "short", domain.RoleCustomer)
	assert.ErrorIs(t, err, domain.ErrWeakPassword)
}

func TestCreate_RejectsInvalidRole(t *testing.T) {
	svc := service.New(newFakeDirectory())
	_, err := svc.Create(context.Background(), "jane", "hunter222", domain.Role("ROOT"))
	assert.ErrorIs(t, err, domain.ErrInvalidRole)
}

func TestCreate_HashesPassword(t *testing.T) {
	dir := newFakeDirectory()
	svc := service.New(dir)
	id, err := svc.Create(context.Background(), "jane", "hunter222", domain.RoleCustomer)
	require.NoError(t, err)

	stored := dir.byID[id]
	assert.NotEqual(t, "hunter222", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("hunter222")))
}

func TestVerifyCredentials_SucceedsOnMatch(t *testing.T) {
	dir := newFakeDirectory()
	svc := service.New(dir)
	_, err := svc.Create(context.Background(), "jane", "hunter222", domain.RoleCustomer)
	require.NoError(t, err)

	valid, userID, role, disabled, err := svc.VerifyCredentials(context.Background(), "jane", "hunter222")
	require.NoError(t, err)
	assert.True(t, valid)
	assert.NotEmpty(t, userID)
	assert.Equal(t, "CUSTOMER", role)
	assert.False(t, disabled)
}

func TestVerifyCredentials_FailsWithoutDisclosingExistence(t *testing.T) {
	dir := newFakeDirectory()
	svc := service.New(dir)
	_, err := svc.Create(context.Background(), "jane", "hunter222", domain.RoleCustomer)
	require.NoError(t, err)

	validWrongPassword, _, _, _, err := svc.VerifyCredentials(context.Background(), "jane", "wrongpass")
	require.NoError(t, err)
	assert.False(t, validWrongPassword)

	validNoSuchUser, _, _, _, err := svc.VerifyCredentials(context.Background(), "ghost", "whatever1")
	require.NoError(t, err)
	assert.False(t, validNoSuchUser)
}

func TestUpdateRole_RejectsInvalidRole(t *testing.T) {
	dir := newFakeDirectory()
	svc := service.New(dir)
	id, err := svc.Create(context.Background(), "jane", "hunter222", domain.RoleCustomer)
	require.NoError(t, err)

	err = svc.UpdateRole(context.Background(), id, domain.Role("ROOT"))
	assert.ErrorIs(t, err, domain.ErrInvalidRole)
}
