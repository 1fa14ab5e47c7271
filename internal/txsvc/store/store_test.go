package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digitalbank/internal/platform/dbtest"
	"digitalbank/internal/platform/money"
	"digitalbank/internal/txsvc/domain"
	"digitalbank/internal/txsvc/migrations"
	"digitalbank/internal/txsvc/store"
)

func newStore(t *testing.T) *store.Store {
	pool := dbtest.Pool(t, migrations.FS)
	return store.New(pool)
}

func TestInsertDeposit(t *testing.T) {
	s := newStore(t)
	ft, err := s.InsertDeposit(context.Background(), uuid.NewString(), 1000, money.MustParse("50.00"))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOK, ft.Status)

	entries, err := s.ListEntries(context.Background(), 1000)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.EntryDeposit, entries[0].Kind)
}

func TestInsertWithdrawal(t *testing.T) {
	s := newStore(t)
	_, err := s.InsertWithdrawal(context.Background(), uuid.NewString(), 1000, money.MustParse("20.00"))
	require.NoError(t, err)

	entries, err := s.ListEntries(context.Background(), 1000)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.EntryWithdraw, entries[0].Kind)
}

func TestInsertTransfer_WritesBothLegs(t *testing.T) {
	s := newStore(t)
	_, err := s.InsertTransfer(context.Background(), uuid.NewString(), 1000, 1001, money.MustParse("25.00"), domain.ModeUPI)
	require.NoError(t, err)

	fromEntries, err := s.ListEntries(context.Background(), 1000)
	require.NoError(t, err)
	require.Len(t, fromEntries, 1)
	assert.Equal(t, domain.EntryTransfer, fromEntries[0].Kind)

	toEntries, err := s.ListEntries(context.Background(), 1001)
	require.NoError(t, err)
	require.Len(t, toEntries, 1)
	assert.Equal(t, domain.EntryTransferIn, toEntries[0].Kind)
}

func TestMarkNeedsReconciliation_WritesNoEntries(t *testing.T) {
	s := newStore(t)
	ft, err := s.MarkNeedsReconciliation(context.Background(), uuid.NewString(), 1000, 1001, money.MustParse("25.00"), domain.ModeUPI)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNeedsReconciliation, ft.Status)

	entries, err := s.ListEntries(context.Background(), 1000)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDailyUsage_CountsOnlyWithdrawAndTransfer(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.InsertDeposit(ctx, uuid.NewString(), 1000, money.MustParse("500.00"))
	require.NoError(t, err)
	_, err = s.InsertWithdrawal(ctx, uuid.NewString(), 1000, money.MustParse("50.00"))
	require.NoError(t, err)
	_, err = s.InsertTransfer(ctx, uuid.NewString(), 1000, 1001, money.MustParse("30.00"), domain.ModeUPI)
	require.NoError(t, err)

	usage, err := s.DailyUsage(ctx, 1000, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, "80.00", usage.UsedAmount.String())
	assert.Equal(t, 2, usage.UsedCount)
}

func TestDailyUsage_ExcludesRecipientLegOfTransfer(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.InsertTransfer(ctx, uuid.NewString(), 1000, 1001, money.MustParse("30.00"), domain.ModeUPI)
	require.NoError(t, err)

	usage, err := s.DailyUsage(ctx, 1001, time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, usage.UsedAmount.IsZero(), "receiving a transfer must not consume the recipient's own daily limit")
	assert.Equal(t, 0, usage.UsedCount)
}

func TestDailyUsage_IsolatesByCalendarDay(t *testing.T) {
	s := newStore(t)
	_, err := s.InsertWithdrawal(context.Background(), uuid.NewString(), 1000, money.MustParse("50.00"))
	require.NoError(t, err)

	usage, err := s.DailyUsage(context.Background(), 1000, time.Now().UTC().AddDate(0, 0, -1))
	require.NoError(t, err)
	assert.True(t, usage.UsedAmount.IsZero())
	assert.Equal(t, 0, usage.UsedCount)
}
