// Package events defines the six domain events Accounts and Transactions
// publish best-effort, and a Kafka-backed publisher for them. Grounded on
// the teacher's internal/infrastructure/messaging package: same
// publish-one-event-per-method interface and Config/Producer split,
// generalized from the teacher's four deposit/withdraw/transfer events to
// the six named in SPEC_FULL.md §6, with amounts and balances carried as
// strings (money.Money's wire form) instead of bare int cents; account
// numbers stay int64.
package events

import "time"

// AccountCreatedEvent fires once per successful CreateSavings/CreateCurrent.
type AccountCreatedEvent struct {
	AccountNumber int64     `json:"account_number"`
	AccountType   string    `json:"account_type"`
	Privilege     string    `json:"privilege"`
	Timestamp     time.Time `json:"timestamp"`
}

// BalanceUpdatedEvent fires after any committed InternalDebit/InternalCredit.
type BalanceUpdatedEvent struct {
	AccountNumber  int64     `json:"account_number"`
	BalanceAfter   string    `json:"balance_after"`
	Delta          string    `json:"delta"`
	Timestamp      time.Time `json:"timestamp"`
}

// DepositCompletedEvent fires after Transactions records a successful deposit.
type DepositCompletedEvent struct {
	AccountNumber int64     `json:"account_number"`
	Amount        string    `json:"amount"`
	Timestamp     time.Time `json:"timestamp"`
}

// WithdrawalCompletedEvent fires after Transactions records a successful withdrawal.
type WithdrawalCompletedEvent struct {
	AccountNumber int64     `json:"account_number"`
	Amount        string    `json:"amount"`
	Timestamp     time.Time `json:"timestamp"`
}

// TransferCompletedEvent fires after both legs of a transfer are journaled.
type TransferCompletedEvent struct {
	FromAccountNumber int64     `json:"from_account_number"`
	ToAccountNumber   int64     `json:"to_account_number"`
	Amount            string    `json:"amount"`
	Mode              string    `json:"mode"`
	Timestamp         time.Time `json:"timestamp"`
}

// TransferNeedsReconciliationEvent fires when a transfer's debit succeeded
// but both the credit and its compensating credit failed (spec.md §9).
type TransferNeedsReconciliationEvent struct {
	FundTransferID    string    `json:"fund_transfer_id"`
	FromAccountNumber int64     `json:"from_account_number"`
	ToAccountNumber   int64     `json:"to_account_number"`
	Amount            string    `json:"amount"`
	Reason            string    `json:"reason"`
	Timestamp         time.Time `json:"timestamp"`
}

// Publisher is the interface every service depends on; Kafka and the no-op
// fallback both satisfy it, so disabling Kafka never requires call-site
// changes.
type Publisher interface {
	PublishAccountCreated(event AccountCreatedEvent) error
	PublishBalanceUpdated(event BalanceUpdatedEvent) error
	PublishDepositCompleted(event DepositCompletedEvent) error
	PublishWithdrawalCompleted(event WithdrawalCompletedEvent) error
	PublishTransferCompleted(event TransferCompletedEvent) error
	PublishTransferNeedsReconciliation(event TransferNeedsReconciliationEvent) error
	Close() error
	IsHealthy() bool
}

// NoOpPublisher discards every event; used when Kafka is disabled (local
// dev, unit tests) so the domain layer never has to special-case it.
type NoOpPublisher struct{}

func NewNoOpPublisher() *NoOpPublisher { return &NoOpPublisher{} }

func (p *NoOpPublisher) PublishAccountCreated(AccountCreatedEvent) error         { return nil }
func (p *NoOpPublisher) PublishBalanceUpdated(BalanceUpdatedEvent) error        { return nil }
func (p *NoOpPublisher) PublishDepositCompleted(DepositCompletedEvent) error    { return nil }
func (p *NoOpPublisher) PublishWithdrawalCompleted(WithdrawalCompletedEvent) error { return nil }
func (p *NoOpPublisher) PublishTransferCompleted(TransferCompletedEvent) error  { return nil }
func (p *NoOpPublisher) PublishTransferNeedsReconciliation(TransferNeedsReconciliationEvent) error {
	return nil
}
func (p *NoOpPublisher) Close() error     { return nil }
func (p *NoOpPublisher) IsHealthy() bool  { return true }
