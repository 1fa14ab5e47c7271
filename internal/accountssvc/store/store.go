// Package store is Accounts' Postgres persistence layer. Grounded on the
// teacher's internal/infrastructure/database/postgres/postgres.go: the
// same begin-tx / SELECT ... FOR UPDATE / mutate / commit shape as
// AtomicWithdraw and AtomicDepositWithIdempotency, narrowed to a
// single-account lock (Transactions, not Accounts, now orchestrates
// two-account transfers) and widened to the full Account/SavingsDetails/
// CurrentDetails/AccountAudit schema with bcrypt PIN hashes in place of a
// bare balance column.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"digitalbank/internal/accountssvc/domain"
	"digitalbank/internal/platform/apierror"
	"digitalbank/internal/platform/logging"
	"digitalbank/internal/platform/money"
)

type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const bcryptCost = bcrypt.DefaultCost

func hashPin(pin string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(pin), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CreateSavingsParams bundles the fields CreateSavings needs, mirroring the
// operation's parameter list in spec.md §4.1.
type CreateSavingsParams struct {
	HolderName  string
	Pin         string
	DateOfBirth time.Time
	Gender      domain.Gender
	Phone       string
	Privilege   domain.Privilege
}

// CreateSavings inserts Account + SavingsDetails in one transaction and
// emits the CREATE audit row, returning the freshly assigned account number.
func (s *Store) CreateSavings(ctx context.Context, p CreateSavingsParams) (int64, error) {
	pinHash, err := hashPin(p.Pin)
	if err != nil {
		return 0, apierror.StorageFailure("failed to hash pin")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, apierror.StorageFailure("failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	var duplicate bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM accounts a
			JOIN savings_details s ON s.account_number = a.account_number
			WHERE a.holder_name = $1 AND s.date_of_birth = $2
		)`, p.HolderName, p.DateOfBirth).Scan(&duplicate)
	if err != nil {
		return 0, apierror.StorageFailure("failed to check duplicate savings holder")
	}
	if duplicate {
		return 0, domain.ErrDuplicate
	}

	var accountNumber int64
	err = tx.QueryRow(ctx, `
		INSERT INTO accounts (kind, holder_name, pin_hash, balance, privilege, active, activated_at)
		VALUES ('SAVINGS', $1, $2, 0, $3, TRUE, now())
		RETURNING account_number`,
		p.HolderName, pinHash, p.Privilege).Scan(&accountNumber)
	if err != nil {
		return 0, apierror.StorageFailure("failed to insert account")
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO savings_details (account_number, date_of_birth, gender, phone_number)
		VALUES ($1, $2, $3, $4)`,
		accountNumber, p.DateOfBirth, p.Gender, p.Phone)
	if err != nil {
		return 0, apierror.StorageFailure("failed to insert savings details")
	}

	if err := insertAudit(ctx, tx, accountNumber, domain.AuditCreate, nil, nil); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, apierror.StorageFailure("failed to commit transaction")
	}
	return accountNumber, nil
}

// CreateCurrentParams bundles the fields CreateCurrent needs.
type CreateCurrentParams struct {
	HolderName         string
	Pin                string
	CompanyName        string
	Website            *string
	RegistrationNumber string
	Privilege          domain.Privilege
}

// CreateCurrent inserts Account + CurrentDetails in one transaction.
func (s *Store) CreateCurrent(ctx context.Context, p CreateCurrentParams) (int64, error) {
	pinHash, err := hashPin(p.Pin)
	if err != nil {
		return 0, apierror.StorageFailure("failed to hash pin")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, apierror.StorageFailure("failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	var duplicate bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM current_details WHERE registration_number = $1)`,
		p.RegistrationNumber).Scan(&duplicate)
	if err != nil {
		return 0, apierror.StorageFailure("failed to check duplicate registration number")
	}
	if duplicate {
		return 0, domain.ErrDuplicate
	}

	var accountNumber int64
	err = tx.QueryRow(ctx, `
		INSERT INTO accounts (kind, holder_name, pin_hash, balance, privilege, active, activated_at)
		VALUES ('CURRENT', $1, $2, 0, $3, TRUE, now())
		RETURNING account_number`,
		p.HolderName, pinHash, p.Privilege).Scan(&accountNumber)
	if err != nil {
		return 0, apierror.StorageFailure("failed to insert account")
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO current_details (account_number, company_name, website, registration_number)
		VALUES ($1, $2, $3, $4)`,
		accountNumber, p.CompanyName, p.Website, p.RegistrationNumber)
	if err != nil {
		return 0, apierror.StorageFailure("failed to insert current details")
	}

	if err := insertAudit(ctx, tx, accountNumber, domain.AuditCreate, nil, nil); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, apierror.StorageFailure("failed to commit transaction")
	}
	return accountNumber, nil
}

// Get reads the full account row, plus whichever child record applies.
func (s *Store) Get(ctx context.Context, accountNumber int64) (domain.Account, error) {
	acc, err := s.getAccount(ctx, s.pool, accountNumber)
	if err != nil {
		return domain.Account{}, err
	}
	return acc, nil
}

func (s *Store) getAccount(ctx context.Context, q queryer, accountNumber int64) (domain.Account, error) {
	var acc domain.Account
	var balance money.Money
	err := q.QueryRow(ctx, `
		SELECT account_number, kind, holder_name, pin_hash, balance, privilege, active, activated_at, closed_at
		FROM accounts WHERE account_number = $1`, accountNumber).Scan(
		&acc.AccountNumber, &acc.Kind, &acc.HolderName, &acc.PinHash, &balance,
		&acc.Privilege, &acc.Active, &acc.ActivatedAt, &acc.ClosedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Account{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Account{}, apierror.StorageFailure("failed to read account")
	}
	acc.Balance = balance
	return acc, nil
}

// GetSavingsDetails reads the SAVINGS child record.
func (s *Store) GetSavingsDetails(ctx context.Context, accountNumber int64) (domain.SavingsDetails, error) {
	var d domain.SavingsDetails
	d.AccountNumber = accountNumber
	err := s.pool.QueryRow(ctx, `
		SELECT date_of_birth, gender, phone_number FROM savings_details WHERE account_number = $1`,
		accountNumber).Scan(&d.DateOfBirth, &d.Gender, &d.PhoneNumber)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.SavingsDetails{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.SavingsDetails{}, apierror.StorageFailure("failed to read savings details")
	}
	return d, nil
}

// GetCurrentDetails reads the CURRENT child record.
func (s *Store) GetCurrentDetails(ctx context.Context, accountNumber int64) (domain.CurrentDetails, error) {
	var d domain.CurrentDetails
	d.AccountNumber = accountNumber
	err := s.pool.QueryRow(ctx, `
		SELECT company_name, website, registration_number FROM current_details WHERE account_number = $1`,
		accountNumber).Scan(&d.CompanyName, &d.Website, &d.RegistrationNumber)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.CurrentDetails{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.CurrentDetails{}, apierror.StorageFailure("failed to read current details")
	}
	return d, nil
}

// UpdateParams carries the optional partial-update fields.
type UpdateParams struct {
	Name      *string
	Privilege *domain.Privilege
}

// Update applies a partial, non-monetary update and emits an EDIT audit
// row carrying the before/after snapshot.
func (s *Store) Update(ctx context.Context, accountNumber int64, p UpdateParams) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return apierror.StorageFailure("failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	before, err := s.getAccount(ctx, tx, accountNumber)
	if err != nil {
		return err
	}
	if !before.IsOperable() {
		return domain.ErrAccountClosed
	}

	after := before
	if p.Name != nil {
		after.HolderName = *p.Name
	}
	if p.Privilege != nil {
		after.Privilege = *p.Privilege
	}

	_, err = tx.Exec(ctx, `UPDATE accounts SET holder_name = $1, privilege = $2 WHERE account_number = $3`,
		after.HolderName, after.Privilege, accountNumber)
	if err != nil {
		return apierror.StorageFailure("failed to update account")
	}

	beforeJSON, _ := json.Marshal(auditSnapshot{HolderName: before.HolderName, Privilege: string(before.Privilege)})
	afterJSON, _ := json.Marshal(auditSnapshot{HolderName: after.HolderName, Privilege: string(after.Privilege)})
	beforeStr, afterStr := string(beforeJSON), string(afterJSON)
	if err := insertAudit(ctx, tx, accountNumber, domain.AuditEdit, &beforeStr, &afterStr); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return apierror.StorageFailure("failed to commit transaction")
	}
	return nil
}

type auditSnapshot struct {
	HolderName string `json:"holder_name"`
	Privilege  string `json:"privilege"`
}

// Activate transitions an account to active; idempotent-target rejection
// if already active.
func (s *Store) Activate(ctx context.Context, accountNumber int64) error {
	return s.setActive(ctx, accountNumber, true, domain.AuditActivate, domain.ErrAlreadyActive)
}

// Inactivate transitions an account to inactive.
func (s *Store) Inactivate(ctx context.Context, accountNumber int64) error {
	return s.setActive(ctx, accountNumber, false, domain.AuditInactivate, domain.ErrAlreadyInactive)
}

func (s *Store) setActive(ctx context.Context, accountNumber int64, target bool, action domain.AuditAction, redundantErr error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return apierror.StorageFailure("failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	acc, err := s.getAccount(ctx, tx, accountNumber)
	if err != nil {
		return err
	}
	if acc.ClosedAt != nil {
		return domain.ErrAccountClosed
	}
	if acc.Active == target {
		return redundantErr
	}

	_, err = tx.Exec(ctx, `UPDATE accounts SET active = $1 WHERE account_number = $2`, target, accountNumber)
	if err != nil {
		return apierror.StorageFailure("failed to update account status")
	}
	if err := insertAudit(ctx, tx, accountNumber, action, nil, nil); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return apierror.StorageFailure("failed to commit transaction")
	}
	return nil
}

// Close terminally closes an account, regardless of balance.
func (s *Store) Close(ctx context.Context, accountNumber int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return apierror.StorageFailure("failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	acc, err := s.getAccount(ctx, tx, accountNumber)
	if err != nil {
		return err
	}
	if acc.ClosedAt != nil {
		return domain.ErrAccountClosed
	}

	_, err = tx.Exec(ctx, `UPDATE accounts SET closed_at = now(), active = FALSE WHERE account_number = $1`, accountNumber)
	if err != nil {
		return apierror.StorageFailure("failed to close account")
	}
	if err := insertAudit(ctx, tx, accountNumber, domain.AuditClose, nil, nil); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return apierror.StorageFailure("failed to commit transaction")
	}
	if !acc.Balance.IsZero() {
		logging.Warn("account closed with nonzero balance", map[string]interface{}{
			"account_number": accountNumber, "balance": acc.Balance.String(),
		})
	}
	return nil
}

// VerifyPin performs a constant-time bcrypt comparison; callers never learn
// whether the account existed on failure.
func (s *Store) VerifyPin(ctx context.Context, accountNumber int64, pin string) (bool, error) {
	acc, err := s.getAccount(ctx, s.pool, accountNumber)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return bcrypt.CompareHashAndPassword([]byte(acc.PinHash), []byte(pin)) == nil, nil
}

// InternalDebit implements spec.md §4.2's debit contract: row-locked
// read-check-write-audit in one transaction, strictly atomic. idempotencyKey
// dedups a retried call (spec.md §9): a key already recorded short-circuits
// straight to the balance that call produced, without touching it again.
func (s *Store) InternalDebit(ctx context.Context, accountNumber int64, amount money.Money, idempotencyKey string) (money.Money, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return money.Zero, apierror.StorageFailure("failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	if balance, found, err := s.priorResult(ctx, tx, idempotencyKey); err != nil {
		return money.Zero, err
	} else if found {
		return balance, nil
	}

	acc, err := s.lockAccount(ctx, tx, accountNumber)
	if err != nil {
		return money.Zero, err
	}
	if acc.ClosedAt != nil {
		return money.Zero, domain.ErrAccountClosed
	}
	if !acc.Active {
		return money.Zero, domain.ErrAccountInactive
	}
	if acc.Balance.LessThan(amount) {
		return money.Zero, domain.ErrInsufficientFunds
	}

	newBalance := acc.Balance.Sub(amount)
	if err := s.writeBalance(ctx, tx, accountNumber, acc.Balance, newBalance); err != nil {
		return money.Zero, err
	}
	if err := s.recordIdempotencyKey(ctx, tx, idempotencyKey, accountNumber, newBalance); err != nil {
		return money.Zero, err
	}
	if err := tx.Commit(ctx); err != nil {
		return money.Zero, apierror.StorageFailure("failed to commit transaction")
	}
	return newBalance, nil
}

// InternalCredit implements spec.md §4.2's credit contract, enforcing the
// maximum representable balance instead of an insufficient-funds check, and
// the same idempotencyKey dedup InternalDebit applies.
func (s *Store) InternalCredit(ctx context.Context, accountNumber int64, amount money.Money, idempotencyKey string) (money.Money, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return money.Zero, apierror.StorageFailure("failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	if balance, found, err := s.priorResult(ctx, tx, idempotencyKey); err != nil {
		return money.Zero, err
	} else if found {
		return balance, nil
	}

	acc, err := s.lockAccount(ctx, tx, accountNumber)
	if err != nil {
		return money.Zero, err
	}
	if acc.ClosedAt != nil {
		return money.Zero, domain.ErrAccountClosed
	}
	if !acc.Active {
		return money.Zero, domain.ErrAccountInactive
	}
	if acc.Balance.WouldOverflow(amount) {
		return money.Zero, domain.ErrBalanceOverflow
	}

	newBalance := acc.Balance.Add(amount)
	if err := s.writeBalance(ctx, tx, accountNumber, acc.Balance, newBalance); err != nil {
		return money.Zero, err
	}
	if err := s.recordIdempotencyKey(ctx, tx, idempotencyKey, accountNumber, newBalance); err != nil {
		return money.Zero, err
	}
	if err := tx.Commit(ctx); err != nil {
		return money.Zero, apierror.StorageFailure("failed to commit transaction")
	}
	return newBalance, nil
}

// priorResult reports the balance a previous call under the same
// idempotencyKey already produced, if any. An empty key means the caller
// has nothing to dedup against.
func (s *Store) priorResult(ctx context.Context, tx pgx.Tx, idempotencyKey string) (money.Money, bool, error) {
	if idempotencyKey == "" {
		return money.Zero, false, nil
	}
	var balance money.Money
	err := tx.QueryRow(ctx, `SELECT balance_after FROM idempotency_keys WHERE key = $1`, idempotencyKey).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return money.Zero, false, nil
	}
	if err != nil {
		return money.Zero, false, apierror.StorageFailure("failed to check idempotency key")
	}
	return balance, true, nil
}

func (s *Store) recordIdempotencyKey(ctx context.Context, tx pgx.Tx, idempotencyKey string, accountNumber int64, balanceAfter money.Money) error {
	if idempotencyKey == "" {
		return nil
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO idempotency_keys (key, account_number, balance_after) VALUES ($1, $2, $3)`,
		idempotencyKey, accountNumber, balanceAfter)
	if err != nil {
		return apierror.StorageFailure("failed to record idempotency key")
	}
	return nil
}

func (s *Store) lockAccount(ctx context.Context, tx pgx.Tx, accountNumber int64) (domain.Account, error) {
	var acc domain.Account
	var balance money.Money
	err := tx.QueryRow(ctx, `
		SELECT account_number, balance, active, closed_at
		FROM accounts WHERE account_number = $1 FOR UPDATE`, accountNumber).Scan(
		&acc.AccountNumber, &balance, &acc.Active, &acc.ClosedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Account{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Account{}, apierror.StorageFailure("failed to lock account")
	}
	acc.Balance = balance
	return acc, nil
}

func (s *Store) writeBalance(ctx context.Context, tx pgx.Tx, accountNumber int64, before, after money.Money) error {
	_, err := tx.Exec(ctx, `UPDATE accounts SET balance = $1 WHERE account_number = $2`, after, accountNumber)
	if err != nil {
		return apierror.StorageFailure("failed to update balance")
	}
	beforeJSON, _ := json.Marshal(balanceSnapshot{Balance: before.String()})
	afterJSON, _ := json.Marshal(balanceSnapshot{Balance: after.String()})
	beforeStr, afterStr := string(beforeJSON), string(afterJSON)
	return insertAudit(ctx, tx, accountNumber, domain.AuditBalanceUpdate, &beforeStr, &afterStr)
}

type balanceSnapshot struct {
	Balance string `json:"balance"`
}

// InternalVerifyPin mirrors VerifyPin; kept distinct so httpapi can apply
// different rate limiting or logging to the internal surface if needed.
func (s *Store) InternalVerifyPin(ctx context.Context, accountNumber int64, pin string) (bool, error) {
	return s.VerifyPin(ctx, accountNumber, pin)
}

// InternalGetPrivilege returns the account's privilege tier.
func (s *Store) InternalGetPrivilege(ctx context.Context, accountNumber int64) (domain.Privilege, error) {
	acc, err := s.getAccount(ctx, s.pool, accountNumber)
	if err != nil {
		return "", err
	}
	return acc.Privilege, nil
}

// ActiveStatus is the {exists, active, closed} triple InternalGetActive
// returns.
type ActiveStatus struct {
	Exists bool
	Active bool
	Closed bool
}

// InternalGetActive reports whether an account exists, is active, and is closed.
func (s *Store) InternalGetActive(ctx context.Context, accountNumber int64) (ActiveStatus, error) {
	acc, err := s.getAccount(ctx, s.pool, accountNumber)
	if errors.Is(err, domain.ErrNotFound) {
		return ActiveStatus{}, nil
	}
	if err != nil {
		return ActiveStatus{}, err
	}
	return ActiveStatus{Exists: true, Active: acc.Active, Closed: acc.ClosedAt != nil}, nil
}

// ListAudit returns the append-only audit trail for an account, newest first.
func (s *Store) ListAudit(ctx context.Context, accountNumber int64) ([]domain.AccountAudit, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, account_number, action, before_json, after_json, at
		FROM account_audit WHERE account_number = $1 ORDER BY at DESC`, accountNumber)
	if err != nil {
		return nil, apierror.StorageFailure("failed to read audit trail")
	}
	defer rows.Close()

	var out []domain.AccountAudit
	for rows.Next() {
		var a domain.AccountAudit
		if err := rows.Scan(&a.ID, &a.AccountNumber, &a.Action, &a.BeforeJSON, &a.AfterJSON, &a.At); err != nil {
			return nil, apierror.StorageFailure("failed to scan audit row")
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func insertAudit(ctx context.Context, tx pgx.Tx, accountNumber int64, action domain.AuditAction, before, after *string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO account_audit (account_number, action, before_json, after_json, at)
		VALUES ($1, $2, $3, $4, now())`, accountNumber, action, before, after)
	if err != nil {
		return apierror.StorageFailure("failed to write audit row")
	}
	return nil
}

// queryer is satisfied by both *pgxpool.Pool and pgx.Tx, letting
// getAccount run either standalone or inside a caller's transaction.
type queryer interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}
