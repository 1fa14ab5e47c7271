package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digitalbank/internal/platform/apierror"
	"digitalbank/internal/platform/config"
	"digitalbank/internal/platform/events"
	"digitalbank/internal/platform/money"
	"digitalbank/internal/txsvc/accountsclient"
	"digitalbank/internal/txsvc/domain"
	"digitalbank/internal/txsvc/service"
)

// fakeAccounts is a hand-rolled stand-in for accountsclient.Client: each
// call is a closure so tests can script exact failure sequences (the
// debit-succeeds/credit-fails/compensation-fails path needs this).
type fakeAccounts struct {
	active     accountsclient.ActiveStatus
	privilege  string
	pinValid   bool
	debitErr   error
	creditErrs []error // consumed in order, one per Credit call
	creditCall int
	balances   map[int64]money.Money
	debitKeys  []string
	creditKeys []string
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{
		active:    accountsclient.ActiveStatus{Exists: true, Active: true},
		privilege: "GOLD",
		pinValid:  true,
		balances:  make(map[int64]money.Money),
	}
}

func (f *fakeAccounts) GetActive(ctx context.Context, accountNumber int64) (accountsclient.ActiveStatus, error) {
	return f.active, nil
}
func (f *fakeAccounts) GetPrivilege(ctx context.Context, accountNumber int64) (string, error) {
	return f.privilege, nil
}
func (f *fakeAccounts) VerifyPin(ctx context.Context, accountNumber int64, pin string) (bool, error) {
	return f.pinValid, nil
}
func (f *fakeAccounts) Debit(ctx context.Context, accountNumber int64, amount money.Money, idempotencyKey string) (money.Money, error) {
	f.debitKeys = append(f.debitKeys, idempotencyKey)
	if f.debitErr != nil {
		return money.Zero, f.debitErr
	}
	return f.balances[accountNumber].Sub(amount), nil
}
func (f *fakeAccounts) Credit(ctx context.Context, accountNumber int64, amount money.Money, idempotencyKey string) (money.Money, error) {
	f.creditKeys = append(f.creditKeys, idempotencyKey)
	if f.creditCall < len(f.creditErrs) && f.creditErrs[f.creditCall] != nil {
		err := f.creditErrs[f.creditCall]
		f.creditCall++
		return money.Zero, err
	}
	f.creditCall++
	return f.balances[accountNumber].Add(amount), nil
}

type fakeJournal struct {
	transfers         []domain.FundTransfer
	reconciliations   []domain.FundTransfer
	usage             domain.DailyUsage
	insertErr         error
}

func (f *fakeJournal) InsertDeposit(ctx context.Context, id string, accountNumber int64, amount money.Money) (domain.FundTransfer, error) {
	if f.insertErr != nil {
		return domain.FundTransfer{}, f.insertErr
	}
	ft := domain.FundTransfer{ID: id, ToAccount: accountNumber, Amount: amount, Status: domain.StatusOK}
	f.transfers = append(f.transfers, ft)
	return ft, nil
}
func (f *fakeJournal) InsertWithdrawal(ctx context.Context, id string, accountNumber int64, amount money.Money) (domain.FundTransfer, error) {
	ft := domain.FundTransfer{ID: id, FromAccount: accountNumber, Amount: amount, Status: domain.StatusOK}
	f.transfers = append(f.transfers, ft)
	return ft, nil
}
func (f *fakeJournal) InsertTransfer(ctx context.Context, id string, from, to int64, amount money.Money, mode domain.TransferMode) (domain.FundTransfer, error) {
	ft := domain.FundTransfer{ID: id, FromAccount: from, ToAccount: to, Amount: amount, Mode: mode, Status: domain.StatusOK}
	f.transfers = append(f.transfers, ft)
	return ft, nil
}
func (f *fakeJournal) MarkNeedsReconciliation(ctx context.Context, id string, from, to int64, amount money.Money, mode domain.TransferMode) (domain.FundTransfer, error) {
	ft := domain.FundTransfer{ID: id, FromAccount: from, ToAccount: to, Amount: amount, Mode: mode, Status: domain.StatusNeedsReconciliation}
	f.reconciliations = append(f.reconciliations, ft)
	return ft, nil
}
func (f *fakeJournal) DailyUsage(ctx context.Context, accountNumber int64, day time.Time) (domain.DailyUsage, error) {
	return f.usage, nil
}
func (f *fakeJournal) ListEntries(ctx context.Context, accountNumber int64) ([]domain.TransactionEntry, error) {
	return nil, nil
}

func testLimits() config.PrivilegeLimits {
	return config.PrivilegeLimits{
		DailyAmountCapCents: map[string]int64{"SILVER": 1_000_00, "GOLD": 10_000_00, "PREMIUM": 100_000_00},
		DailyCountCap:       map[string]int{"SILVER": 2, "GOLD": 5, "PREMIUM": 10},
	}
}

func TestDeposit_RejectsNonPositiveAmount(t *testing.T) {
	svc := service.New(&fakeJournal{}, newFakeAccounts(), events.NewNoOpPublisher(), testLimits(), 5*time.Second)
	_, err := svc.Deposit(context.Background(), 1000, money.Zero)
	require.Error(t, err)
	apiErr, ok := err.(apierror.APIError)
	require.True(t, ok)
	assert.Equal(t, apierror.CodeValidation, apiErr.Code)
}

func TestDeposit_RejectsAboveMax(t *testing.T) {
	svc := service.New(&fakeJournal{}, newFakeAccounts(), events.NewNoOpPublisher(), testLimits(), 5*time.Second)
	_, err := svc.Deposit(context.Background(), 1000, domain.MaxDeposit.Add(money.New(1)))
	assert.ErrorIs(t, err, domain.ErrAmountTooLarge)
}

func TestDeposit_Succeeds(t *testing.T) {
	journal := &fakeJournal{}
	svc := service.New(journal, newFakeAccounts(), events.NewNoOpPublisher(), testLimits(), 5*time.Second)
	ft, err := svc.Deposit(context.Background(), 1000, money.MustParse("50.00"))
	require.NoError(t, err)
	assert.NotEmpty(t, ft.ID)
	assert.Len(t, journal.transfers, 1)
}

func TestWithdraw_RejectsInvalidPin(t *testing.T) {
	accounts := newFakeAccounts()
	accounts.pinValid = false
	svc := service.New(&fakeJournal{}, accounts, events.NewNoOpPublisher(), testLimits(), 5*time.Second)

	_, err := svc.Withdraw(context.Background(), 1000, money.MustParse("10.00"), "1234")
	apiErr, ok := err.(apierror.APIError)
	require.True(t, ok)
	assert.Equal(t, apierror.CodeInvalidPin, apiErr.Code)
}

func TestWithdraw_RejectsOverDailyAmountCap(t *testing.T) {
	accounts := newFakeAccounts()
	accounts.privilege = "SILVER"
	journal := &fakeJournal{usage: domain.DailyUsage{UsedAmount: money.MustParse("950.00"), UsedCount: 0}}
	svc := service.New(journal, accounts, events.NewNoOpPublisher(), testLimits(), 5*time.Second)

	_, err := svc.Withdraw(context.Background(), 1000, money.MustParse("100.00"), "1234")
	apiErr, ok := err.(apierror.APIError)
	require.True(t, ok)
	assert.Equal(t, apierror.CodeDailyLimitExceeded, apiErr.Code)
}

func TestWithdraw_RejectsOverDailyCountCap(t *testing.T) {
	accounts := newFakeAccounts()
	accounts.privilege = "SILVER"
	journal := &fakeJournal{usage: domain.DailyUsage{UsedAmount: money.Zero, UsedCount: 2}}
	svc := service.New(journal, accounts, events.NewNoOpPublisher(), testLimits(), 5*time.Second)

	_, err := svc.Withdraw(context.Background(), 1000, money.MustParse("10.00"), "1234")
	apiErr, ok := err.(apierror.APIError)
	require.True(t, ok)
	assert.Equal(t, apierror.CodeDailyCountExceeded, apiErr.Code)
}

func TestTransfer_RejectsSameAccount(t *testing.T) {
	svc := service.New(&fakeJournal{}, newFakeAccounts(), events.NewNoOpPublisher(), testLimits(), 5*time.Second)
	_, err := svc.Transfer(context.Background(), 1000, 1000, money.MustParse("10.00"), domain.ModeNEFT, "1234")
	assert.ErrorIs(t, err, domain.ErrSameAccount)
}

func TestTransfer_RejectsInvalidMode(t *testing.T) {
	svc := service.New(&fakeJournal{}, newFakeAccounts(), events.NewNoOpPublisher(), testLimits(), 5*time.Second)
	_, err := svc.Transfer(context.Background(), 1000, 1001, money.MustParse("10.00"), domain.TransferMode("WIRE"), "1234")
	assert.ErrorIs(t, err, domain.ErrInvalidMode)
}

func TestTransfer_Succeeds(t *testing.T) {
	journal := &fakeJournal{}
	svc := service.New(journal, newFakeAccounts(), events.NewNoOpPublisher(), testLimits(), 5*time.Second)

	ft, err := svc.Transfer(context.Background(), 1000, 1001, money.MustParse("25.00"), domain.ModeUPI, "1234")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOK, ft.Status)
}

func TestTransfer_CompensatesOnCreditFailure(t *testing.T) {
	accounts := newFakeAccounts()
	accounts.creditErrs = []error{apierror.ServiceUnavailable("downstream unreachable"), nil}
	journal := &fakeJournal{}
	svc := service.New(journal, accounts, events.NewNoOpPublisher(), testLimits(), 5*time.Second)

	_, err := svc.Transfer(context.Background(), 1000, 1001, money.MustParse("25.00"), domain.ModeUPI, "1234")
	require.Error(t, err)
	apiErr, ok := err.(apierror.APIError)
	require.True(t, ok)
	assert.Equal(t, apierror.CodeServiceUnavailable, apiErr.Code)
	assert.Empty(t, journal.reconciliations, "compensation succeeded, no reconciliation marker expected")
}

func TestTransfer_MarksNeedsReconciliationWhenCompensationFails(t *testing.T) {
	accounts := newFakeAccounts()
	failure := apierror.ServiceUnavailable("downstream unreachable")
	accounts.creditErrs = []error{failure, failure}
	journal := &fakeJournal{}
	svc := service.New(journal, accounts, events.NewNoOpPublisher(), testLimits(), 5*time.Second)

	_, err := svc.Transfer(context.Background(), 1000, 1001, money.MustParse("25.00"), domain.ModeUPI, "1234")
	require.Error(t, err)
	require.Len(t, journal.reconciliations, 1)
	assert.Equal(t, domain.StatusNeedsReconciliation, journal.reconciliations[0].Status)
}

func TestTransfer_CompensationUsesDistinctKeyFromForwardCredit(t *testing.T) {
	accounts := newFakeAccounts()
	accounts.creditErrs = []error{apierror.ServiceUnavailable("downstream unreachable"), nil}
	journal := &fakeJournal{}
	svc := service.New(journal, accounts, events.NewNoOpPublisher(), testLimits(), 5*time.Second)

	_, err := svc.Transfer(context.Background(), 1000, 1001, money.MustParse("25.00"), domain.ModeUPI, "1234")
	require.Error(t, err)

	require.Len(t, accounts.debitKeys, 1)
	assert.NotEmpty(t, accounts.debitKeys[0])
	require.Len(t, accounts.creditKeys, 2)
	assert.NotEmpty(t, accounts.creditKeys[0])
	assert.NotEmpty(t, accounts.creditKeys[1])
	assert.NotEqual(t, accounts.creditKeys[0], accounts.creditKeys[1], "the compensating credit must not reuse the forward leg's key")
}

func TestTransferLimits_ComputesRemaining(t *testing.T) {
	accounts := newFakeAccounts()
	accounts.privilege = "SILVER"
	journal := &fakeJournal{usage: domain.DailyUsage{UsedAmount: money.MustParse("200.00"), UsedCount: 1}}
	svc := service.New(journal, accounts, events.NewNoOpPublisher(), testLimits(), 5*time.Second)

	snapshot, err := svc.TransferLimits(context.Background(), 1000)
	require.NoError(t, err)
	assert.Equal(t, "800.00", snapshot.RemainingAmount.String())
	assert.Equal(t, 1, snapshot.RemainingCount)
}
