// Package store is Transactions' Postgres persistence layer: the
// append-only fund_transfers/transaction_logging tables and the daily-usage
// query the privilege-limit admission check runs against. Grounded on the
// teacher's internal/infrastructure/database/postgres/postgres.go insert
// pattern, with no row-locking needed here since this service never
// mutates a balance directly.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"digitalbank/internal/platform/apierror"
	"digitalbank/internal/platform/money"
	"digitalbank/internal/txsvc/domain"
)

type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// InsertDeposit records a completed deposit: one FundTransfer row plus one
// DEPOSIT-kind TransactionEntry, as spec.md §4.3 step 3 requires. id is the
// journal ID the caller minted before crediting Accounts, so the row
// written here carries the same ID its idempotency key was derived from.
func (s *Store) InsertDeposit(ctx context.Context, id string, accountNumber int64, amount money.Money) (domain.FundTransfer, error) {
	return s.insertSingleLeg(ctx, id, domain.SentinelAccount, accountNumber, amount, domain.ModeNEFT, domain.EntryDeposit, accountNumber)
}

// InsertWithdrawal records a completed withdrawal.
func (s *Store) InsertWithdrawal(ctx context.Context, id string, accountNumber int64, amount money.Money) (domain.FundTransfer, error) {
	return s.insertSingleLeg(ctx, id, accountNumber, domain.SentinelAccount, amount, domain.ModeNEFT, domain.EntryWithdraw, accountNumber)
}

func (s *Store) insertSingleLeg(ctx context.Context, id string, from, to int64, amount money.Money, mode domain.TransferMode, kind domain.EntryKind, entryAccount int64) (domain.FundTransfer, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.FundTransfer{}, apierror.StorageFailure("failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	ft := domain.FundTransfer{
		ID: id, FromAccount: from, ToAccount: to,
		Amount: amount, Mode: mode, Status: domain.StatusOK, At: time.Now().UTC(),
	}
	if err := s.insertFundTransfer(ctx, tx, ft); err != nil {
		return domain.FundTransfer{}, err
	}
	if err := s.insertEntry(ctx, tx, domain.TransactionEntry{
		ID: uuid.NewString(), AccountNumber: entryAccount, Amount: amount, Kind: kind, At: ft.At,
	}); err != nil {
		return domain.FundTransfer{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.FundTransfer{}, apierror.StorageFailure("failed to commit transaction")
	}
	return ft, nil
}

// InsertTransfer records a completed two-account transfer: one
// FundTransfer row and two TransactionEntry rows sharing `at`: a TRANSFER
// row on the source account and a TRANSFER_IN row on the destination.
func (s *Store) InsertTransfer(ctx context.Context, id string, from, to int64, amount money.Money, mode domain.TransferMode) (domain.FundTransfer, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.FundTransfer{}, apierror.StorageFailure("failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	at := time.Now().UTC()
	ft := domain.FundTransfer{ID: id, FromAccount: from, ToAccount: to, Amount: amount, Mode: mode, Status: domain.StatusOK, At: at}
	if err := s.insertFundTransfer(ctx, tx, ft); err != nil {
		return domain.FundTransfer{}, err
	}
	if err := s.insertEntry(ctx, tx, domain.TransactionEntry{ID: uuid.NewString(), AccountNumber: from, Amount: amount, Kind: domain.EntryTransfer, At: at}); err != nil {
		return domain.FundTransfer{}, err
	}
	if err := s.insertEntry(ctx, tx, domain.TransactionEntry{ID: uuid.NewString(), AccountNumber: to, Amount: amount, Kind: domain.EntryTransferIn, At: at}); err != nil {
		return domain.FundTransfer{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.FundTransfer{}, apierror.StorageFailure("failed to commit transaction")
	}
	return ft, nil
}

// MarkNeedsReconciliation records a transfer whose debit committed but
// whose credit and compensating credit both failed (spec.md §9). No
// TransactionEntry rows are written since no leg of the transfer actually
// completed against a balance both accounts agree on.
func (s *Store) MarkNeedsReconciliation(ctx context.Context, id string, from, to int64, amount money.Money, mode domain.TransferMode) (domain.FundTransfer, error) {
	ft := domain.FundTransfer{
		ID: id, FromAccount: from, ToAccount: to,
		Amount: amount, Mode: mode, Status: domain.StatusNeedsReconciliation, At: time.Now().UTC(),
	}
	if err := s.insertFundTransfer(ctx, s.pool, ft); err != nil {
		return domain.FundTransfer{}, err
	}
	return ft, nil
}

func (s *Store) insertFundTransfer(ctx context.Context, q queryExecer, ft domain.FundTransfer) error {
	_, err := q.Exec(ctx, `
		INSERT INTO fund_transfers (id, from_account, to_account, amount, mode, status, at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		ft.ID, ft.FromAccount, ft.ToAccount, ft.Amount, ft.Mode, ft.Status, ft.At)
	if err != nil {
		return apierror.StorageFailure("failed to insert fund transfer")
	}
	return nil
}

func (s *Store) insertEntry(ctx context.Context, q queryExecer, e domain.TransactionEntry) error {
	_, err := q.Exec(ctx, `
		INSERT INTO transaction_logging (id, account_number, amount, kind, at)
		VALUES ($1, $2, $3, $4, $5)`,
		e.ID, e.AccountNumber, e.Amount, e.Kind, e.At)
	if err != nil {
		return apierror.StorageFailure("failed to insert transaction entry")
	}
	return nil
}

// DailyUsage computes used_today(amount) and used_today(count) over
// WITHDRAW+TRANSFER-kind entries for the given account on the given UTC
// calendar day, per spec.md §4.4. TRANSFER only ever marks the source
// (money-leaving) leg of a transfer — the recipient's leg is logged as
// TRANSFER_IN and excluded here, so receiving a transfer never consumes
// the recipient's own daily limit.
func (s *Store) DailyUsage(ctx context.Context, accountNumber int64, day time.Time) (domain.DailyUsage, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	var usedAmount money.Money
	var usedCount int
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0), COUNT(*)
		FROM transaction_logging
		WHERE account_number = $1 AND kind IN ('WITHDRAW', 'TRANSFER') AND at >= $2 AND at < $3`,
		accountNumber, start, end).Scan(&usedAmount, &usedCount)
	if err != nil {
		return domain.DailyUsage{}, apierror.StorageFailure("failed to compute daily usage")
	}
	return domain.DailyUsage{UsedAmount: usedAmount, UsedCount: usedCount}, nil
}

// ListEntries returns the transaction log for an account, newest first.
func (s *Store) ListEntries(ctx context.Context, accountNumber int64) ([]domain.TransactionEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, account_number, amount, kind, at
		FROM transaction_logging WHERE account_number = $1 ORDER BY at DESC`, accountNumber)
	if err != nil {
		return nil, apierror.StorageFailure("failed to list transaction entries")
	}
	defer rows.Close()

	var out []domain.TransactionEntry
	for rows.Next() {
		var e domain.TransactionEntry
		if err := rows.Scan(&e.ID, &e.AccountNumber, &e.Amount, &e.Kind, &e.At); err != nil {
			return nil, apierror.StorageFailure("failed to scan transaction entry")
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

var ErrNotFound = errors.New("not found")

type queryExecer interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgx.CommandTag, error)
}
