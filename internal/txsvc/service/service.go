// Package service orchestrates Transactions' three money-movement
// operations against Accounts' privileged surface (spec.md §4.3),
// enforcing the privilege-tiered daily limits of §4.4. Grounded on the
// teacher's cmd/dashboard-adjacent domain/account package for the
// debit-then-credit ordering discipline, generalized from an in-process
// mutex-guarded balance mutation into two sequential RPC calls against a
// service boundary, with the compensating-credit and reconciliation-marker
// paths spec.md §9 requires.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"digitalbank/internal/platform/apierror"
	"digitalbank/internal/platform/config"
	"digitalbank/internal/platform/events"
	"digitalbank/internal/platform/idempotency"
	"digitalbank/internal/platform/logging"
	"digitalbank/internal/platform/money"
	"digitalbank/internal/txsvc/accountsclient"
	"digitalbank/internal/txsvc/domain"
)

// AccountsClient is the subset of accountsclient.Client's methods this
// package depends on, declared here so tests can substitute a fake instead
// of standing up Accounts' HTTP surface.
type AccountsClient interface {
	GetActive(ctx context.Context, accountNumber int64) (accountsclient.ActiveStatus, error)
	GetPrivilege(ctx context.Context, accountNumber int64) (string, error)
	VerifyPin(ctx context.Context, accountNumber int64, pin string) (bool, error)
	Debit(ctx context.Context, accountNumber int64, amount money.Money, idempotencyKey string) (money.Money, error)
	Credit(ctx context.Context, accountNumber int64, amount money.Money, idempotencyKey string) (money.Money, error)
}

// Journal is the subset of store.Store's methods this package depends on,
// declared here so tests can substitute a fake instead of a live Postgres
// connection. Each mutation takes the journal ID the service minted before
// calling Accounts, so the row it writes carries the same ID the
// idempotency key guarding that call was derived from.
type Journal interface {
	InsertDeposit(ctx context.Context, id string, accountNumber int64, amount money.Money) (domain.FundTransfer, error)
	InsertWithdrawal(ctx context.Context, id string, accountNumber int64, amount money.Money) (domain.FundTransfer, error)
	InsertTransfer(ctx context.Context, id string, from, to int64, amount money.Money, mode domain.TransferMode) (domain.FundTransfer, error)
	MarkNeedsReconciliation(ctx context.Context, id string, from, to int64, amount money.Money, mode domain.TransferMode) (domain.FundTransfer, error)
	DailyUsage(ctx context.Context, accountNumber int64, day time.Time) (domain.DailyUsage, error)
	ListEntries(ctx context.Context, accountNumber int64) ([]domain.TransactionEntry, error)
}

type Service struct {
	store             Journal
	accounts          AccountsClient
	publisher         events.Publisher
	limits            config.PrivilegeLimits
	compensateTimeout time.Duration
}

func New(s Journal, accounts AccountsClient, publisher events.Publisher, limits config.PrivilegeLimits, compensateTimeout time.Duration) *Service {
	return &Service{store: s, accounts: accounts, publisher: publisher, limits: limits, compensateTimeout: compensateTimeout}
}

// Deposit implements spec.md §4.3's Deposit operation. Deposits never
// consume daily limits.
func (s *Service) Deposit(ctx context.Context, accountNumber int64, amount money.Money) (domain.FundTransfer, error) {
	if !amount.IsPositive() {
		return domain.FundTransfer{}, apierror.Validation("amount must be greater than zero")
	}
	if amount.GreaterThan(domain.MaxDeposit) {
		return domain.FundTransfer{}, domain.ErrAmountTooLarge
	}

	id := uuid.NewString()
	key := idempotency.Key("deposit", accountNumber, amount.Cents(), id)
	if _, err := s.accounts.Credit(ctx, accountNumber, amount, key); err != nil {
		return domain.FundTransfer{}, err
	}

	ft, err := s.store.InsertDeposit(ctx, id, accountNumber, amount)
	if err != nil {
		return domain.FundTransfer{}, err
	}

	s.publishDeposit(accountNumber, amount)
	return ft, nil
}

// Withdraw implements spec.md §4.3's Withdraw operation.
func (s *Service) Withdraw(ctx context.Context, accountNumber int64, amount money.Money, pin string) (domain.FundTransfer, error) {
	if !amount.IsPositive() {
		return domain.FundTransfer{}, apierror.Validation("amount must be greater than zero")
	}

	valid, err := s.accounts.VerifyPin(ctx, accountNumber, pin)
	if err != nil {
		return domain.FundTransfer{}, err
	}
	if !valid {
		return domain.FundTransfer{}, apierror.InvalidPin()
	}

	if err := s.admitDailyLimit(ctx, accountNumber, amount); err != nil {
		return domain.FundTransfer{}, err
	}

	id := uuid.NewString()
	key := idempotency.Key("withdraw", accountNumber, amount.Cents(), id)
	if _, err := s.accounts.Debit(ctx, accountNumber, amount, key); err != nil {
		return domain.FundTransfer{}, err
	}

	ft, err := s.store.InsertWithdrawal(ctx, id, accountNumber, amount)
	if err != nil {
		return domain.FundTransfer{}, err
	}

	s.publishWithdrawal(accountNumber, amount)
	return ft, nil
}

// Transfer implements spec.md §4.3's Transfer operation, including the
// debit-before-credit ordering and the single best-effort compensating
// credit described in §9.
func (s *Service) Transfer(ctx context.Context, from, to int64, amount money.Money, mode domain.TransferMode, pin string) (domain.FundTransfer, error) {
	if from == to {
		return domain.FundTransfer{}, domain.ErrSameAccount
	}
	if !mode.Valid() {
		return domain.FundTransfer{}, domain.ErrInvalidMode
	}
	if !amount.IsPositive() {
		return domain.FundTransfer{}, apierror.Validation("amount must be greater than zero")
	}

	valid, err := s.accounts.VerifyPin(ctx, from, pin)
	if err != nil {
		return domain.FundTransfer{}, err
	}
	if !valid {
		return domain.FundTransfer{}, apierror.InvalidPin()
	}

	if err := s.requireActiveAndOpen(ctx, from); err != nil {
		return domain.FundTransfer{}, err
	}
	if err := s.requireActiveAndOpen(ctx, to); err != nil {
		return domain.FundTransfer{}, err
	}

	if err := s.admitDailyLimit(ctx, from, amount); err != nil {
		return domain.FundTransfer{}, err
	}

	id := uuid.NewString()
	debitKey := idempotency.Key("transfer_debit", from, amount.Cents(), id)
	if _, err := s.accounts.Debit(ctx, from, amount, debitKey); err != nil {
		return domain.FundTransfer{}, err
	}

	creditKey := idempotency.Key("transfer_credit", to, amount.Cents(), id)
	if _, err := s.accounts.Credit(ctx, to, amount, creditKey); err != nil {
		return s.compensate(ctx, id, from, to, amount, mode, err)
	}

	ft, err := s.store.InsertTransfer(ctx, id, from, to, amount, mode)
	if err != nil {
		return domain.FundTransfer{}, err
	}

	s.publishTransfer(from, to, amount, mode)
	return ft, nil
}

// compensate runs when the credit leg of a transfer fails after the debit
// already committed. It attempts exactly one compensating credit back to
// the source account; if that also fails, the transfer is journaled as
// NeedsReconciliation and the client sees ServiceUnavailable, never the
// reconciliation state (spec.md §7, §9).
func (s *Service) compensate(ctx context.Context, id string, from, to int64, amount money.Money, mode domain.TransferMode, creditErr error) (domain.FundTransfer, error) {
	logging.Error("transfer credit leg failed after debit committed, attempting compensation", creditErr, map[string]interface{}{
		"from": from, "to": to, "amount": amount.String(),
	})

	compensateCtx, cancel := context.WithTimeout(context.Background(), s.compensateTimeout)
	defer cancel()

	compensationKey := idempotency.CompensationKey(id)
	if _, compErr := s.accounts.Credit(compensateCtx, from, amount, compensationKey); compErr != nil {
		logging.Error("compensating credit also failed, marking transfer for reconciliation", compErr, map[string]interface{}{
			"from": from, "to": to, "amount": amount.String(),
		})
		ft, markErr := s.store.MarkNeedsReconciliation(ctx, id, from, to, amount, mode)
		if markErr != nil {
			logging.Error("failed to persist reconciliation marker", markErr, map[string]interface{}{"from": from, "to": to})
		}
		s.publishReconciliation(ft.ID, from, to, amount, compErr)
		return domain.FundTransfer{}, apierror.ServiceUnavailable("transfer could not complete; compensation failed")
	}

	return domain.FundTransfer{}, apierror.ServiceUnavailable("transfer could not complete; compensating credit applied")
}

func (s *Service) requireActiveAndOpen(ctx context.Context, accountNumber int64) error {
	status, err := s.accounts.GetActive(ctx, accountNumber)
	if err != nil {
		return err
	}
	if !status.Exists {
		return apierror.NotFound("account not found")
	}
	if status.Closed {
		return apierror.Conflict(apierror.CodeAccountClosed, "account is closed")
	}
	if !status.Active {
		return apierror.Conflict(apierror.CodeAccountInactive, "account is inactive")
	}
	return nil
}

// admitDailyLimit enforces spec.md §4.4's privilege-tiered daily cap,
// fetching privilege fresh at admission time.
func (s *Service) admitDailyLimit(ctx context.Context, accountNumber int64, amount money.Money) error {
	privilege, err := s.accounts.GetPrivilege(ctx, accountNumber)
	if err != nil {
		return err
	}

	amountCap, ok := s.limits.DailyAmountCapCents[privilege]
	if !ok {
		return apierror.Validation("unknown privilege tier")
	}
	countCap := s.limits.DailyCountCap[privilege]

	usage, err := s.store.DailyUsage(ctx, accountNumber, time.Now().UTC())
	if err != nil {
		return err
	}

	if usage.UsedAmount.Add(amount).GreaterThan(money.New(amountCap)) {
		return apierror.Conflict(apierror.CodeDailyLimitExceeded, "daily amount limit exceeded")
	}
	if usage.UsedCount+1 > countCap {
		return apierror.Conflict(apierror.CodeDailyCountExceeded, "daily transaction count limit exceeded")
	}
	return nil
}

// TransferLimits answers the Query endpoint of spec.md §4.4.
type LimitsSnapshot struct {
	Privilege       string
	CapAmount       money.Money
	CapCount        int
	UsedAmount      money.Money
	UsedCount       int
	RemainingAmount money.Money
	RemainingCount  int
}

func (s *Service) TransferLimits(ctx context.Context, accountNumber int64) (LimitsSnapshot, error) {
	privilege, err := s.accounts.GetPrivilege(ctx, accountNumber)
	if err != nil {
		return LimitsSnapshot{}, err
	}
	amountCap, ok := s.limits.DailyAmountCapCents[privilege]
	if !ok {
		return LimitsSnapshot{}, apierror.Validation("unknown privilege tier")
	}
	countCap := s.limits.DailyCountCap[privilege]

	usage, err := s.store.DailyUsage(ctx, accountNumber, time.Now().UTC())
	if err != nil {
		return LimitsSnapshot{}, err
	}

	cap := money.New(amountCap)
	remaining := cap.Sub(usage.UsedAmount)
	if remaining.IsNegative() {
		remaining = money.Zero
	}
	remainingCount := countCap - usage.UsedCount
	if remainingCount < 0 {
		remainingCount = 0
	}

	return LimitsSnapshot{
		Privilege: privilege, CapAmount: cap, CapCount: countCap,
		UsedAmount: usage.UsedAmount, UsedCount: usage.UsedCount,
		RemainingAmount: remaining, RemainingCount: remainingCount,
	}, nil
}

func (s *Service) TransactionLogs(ctx context.Context, accountNumber int64) ([]domain.TransactionEntry, error) {
	return s.store.ListEntries(ctx, accountNumber)
}

func (s *Service) publishDeposit(accountNumber int64, amount money.Money) {
	if err := s.publisher.PublishDepositCompleted(events.DepositCompletedEvent{
		AccountNumber: accountNumber, Amount: amount.String(), Timestamp: time.Now().UTC(),
	}); err != nil {
		logging.Warn("failed to publish deposit completed event", map[string]interface{}{"error": err.Error()})
	}
}

func (s *Service) publishWithdrawal(accountNumber int64, amount money.Money) {
	if err := s.publisher.PublishWithdrawalCompleted(events.WithdrawalCompletedEvent{
		AccountNumber: accountNumber, Amount: amount.String(), Timestamp: time.Now().UTC(),
	}); err != nil {
		logging.Warn("failed to publish withdrawal completed event", map[string]interface{}{"error": err.Error()})
	}
}

func (s *Service) publishTransfer(from, to int64, amount money.Money, mode domain.TransferMode) {
	if err := s.publisher.PublishTransferCompleted(events.TransferCompletedEvent{
		FromAccountNumber: from, ToAccountNumber: to, Amount: amount.String(), Mode: string(mode), Timestamp: time.Now().UTC(),
	}); err != nil {
		logging.Warn("failed to publish transfer completed event", map[string]interface{}{"error": err.Error()})
	}
}

func (s *Service) publishReconciliation(fundTransferID string, from, to int64, amount money.Money, reason error) {
	reasonText := ""
	if reason != nil {
		reasonText = reason.Error()
	}
	if err := s.publisher.PublishTransferNeedsReconciliation(events.TransferNeedsReconciliationEvent{
		FundTransferID: fundTransferID, FromAccountNumber: from, ToAccountNumber: to,
		Amount: amount.String(), Reason: reasonText, Timestamp: time.Now().UTC(),
	}); err != nil {
		logging.Warn("failed to publish reconciliation event", map[string]interface{}{"error": err.Error()})
	}
}
