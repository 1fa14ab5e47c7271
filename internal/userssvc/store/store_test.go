package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digitalbank/internal/platform/dbtest"
	"digitalbank/internal/userssvc/domain"
	"digitalbank/internal/userssvc/migrations"
	"digitalbank/internal/userssvc/store"
)

func newStore(t *testing.T) *store.Store {
	pool := dbtest.Pool(t, migrations.FS)
	return store.New(pool)
}

func TestCreate_RejectsDuplicateUsername(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, "jane", "hashed-1", domain.RoleCustomer)
	require.NoError(t, err)

	_, err = s.Create(ctx, "jane", "hashed-2", domain.RoleCustomer)
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestGetByUsername_RoundTrips(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	id, err := s.Create(ctx, "jane", "hashed-1", domain.RoleTeller)
	require.NoError(t, err)

	u, err := s.GetByUsername(ctx, "jane")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, domain.RoleTeller, u.Role)
	assert.False(t, u.Disabled)
}

func TestGet_ReturnsNotFoundForMissingID(t *testing.T) {
	s := newStore(t)
	_, err := s.Get(context.Background(), "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateRole(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	id, err := s.Create(ctx, "jane", "hashed-1", domain.RoleCustomer)
	require.NoError(t, err)

	require.NoError(t, s.UpdateRole(ctx, id, domain.RoleAdmin))
	u, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, u.Role)
}

func TestSetDisabled(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	id, err := s.Create(ctx, "jane", "hashed-1", domain.RoleCustomer)
	require.NoError(t, err)

	require.NoError(t, s.SetDisabled(ctx, id, true))
	u, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, u.Disabled)
}
