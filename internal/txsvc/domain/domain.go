// Package domain holds Transactions' journal types. Transactions owns no
// balance state (spec.md §4.3) — these are append-only records plus the
// derived daily-limit counters computed from them. Grounded on the
// teacher's internal/domain/models package shape, widened to the
// FundTransfer/TransactionEntry schema spec.md §3 describes.
package domain

import (
	"errors"
	"time"

	"digitalbank/internal/platform/money"
)

// SentinelAccount is the "no account" marker used for the implicit
// counterparty of a pure deposit or withdrawal.
const SentinelAccount int64 = 0

type TransferMode string

const (
	ModeNEFT   TransferMode = "NEFT"
	ModeRTGS   TransferMode = "RTGS"
	ModeIMPS   TransferMode = "IMPS"
	ModeUPI    TransferMode = "UPI"
	ModeCheque TransferMode = "CHEQUE"
)

func (m TransferMode) Valid() bool {
	switch m {
	case ModeNEFT, ModeRTGS, ModeIMPS, ModeUPI, ModeCheque:
		return true
	default:
		return false
	}
}

type TransferStatus string

const (
	StatusOK                  TransferStatus = "OK"
	StatusNeedsReconciliation TransferStatus = "NEEDS_RECONCILIATION"
)

// FundTransfer is one row per deposit, withdrawal, or transfer operation.
type FundTransfer struct {
	ID          string
	FromAccount int64
	ToAccount   int64
	Amount      money.Money
	Mode        TransferMode
	Status      TransferStatus
	At          time.Time
}

type EntryKind string

const (
	EntryWithdraw EntryKind = "WITHDRAW"
	EntryDeposit  EntryKind = "DEPOSIT"
	// EntryTransfer marks the outgoing (source-account) leg of a transfer;
	// it is the leg the daily-limit admission check in §4.4 counts against.
	EntryTransfer EntryKind = "TRANSFER"
	// EntryTransferIn marks the incoming (destination-account) leg. It is
	// logged for the recipient's transaction history but never consumes
	// the recipient's own daily limit — receiving money doesn't move it
	// out the door.
	EntryTransferIn EntryKind = "TRANSFER_IN"
)

// TransactionEntry is one row per affected account per operation.
type TransactionEntry struct {
	ID            string
	AccountNumber int64
	Amount        money.Money
	Kind          EntryKind
	At            time.Time
}

// MaxDeposit is the ceiling spec.md §4.3 step 1 enforces: 10,000,000,000.00, i.e. 1e12 cents.
var MaxDeposit = money.New(1_000_000_000_000)

// DailyUsage is the {used_amount, used_count} pair a privilege admission
// check is evaluated against.
type DailyUsage struct {
	UsedAmount money.Money
	UsedCount  int
}

var (
	ErrSameAccount         = errors.New("from and to accounts must differ")
	ErrInvalidMode         = errors.New("mode must be one of NEFT, RTGS, IMPS, UPI, CHEQUE")
	ErrAmountTooLarge      = errors.New("amount exceeds the maximum deposit")
	ErrNotFound            = errors.New("transfer not found")
	ErrDailyLimitExceeded  = errors.New("daily amount limit exceeded")
	ErrDailyCountExceeded  = errors.New("daily transaction count limit exceeded")
)
