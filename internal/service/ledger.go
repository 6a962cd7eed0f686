package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/spendlog/spendlog/internal/database"
	"github.com/spendlog/spendlog/internal/database/repository"
)

// adjustmentCategory is auto-created for synthetic balance corrections.
const adjustmentCategory = "Inserted"

// Ledger is the only component that mutates account balances. Every
// balance-affecting operation runs the row write and both balance updates
// in one transaction.
type Ledger struct {
	db *sql.DB
}

func NewLedger(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

// Record inserts a transaction and applies its balance effect: credit add
// or debit subtract for plain rows, subtract-source add-target for
// transfers.
func (l *Ledger) Record(ctx context.Context, t repository.Transaction) (repository.Transaction, error) {
	if err := validateTransaction(t); err != nil {
		return repository.Transaction{}, err
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	err := database.WithTx(l.db, func(tx *sql.Tx) error {
		if err := repository.NewTransactionRepo(tx).Insert(ctx, t); err != nil {
			return err
		}
		return applyEffect(ctx, tx, t, false)
	})
	if err != nil {
		return repository.Transaction{}, err
	}
	return t, nil
}

// Recategorize swaps the category of a non-transfer transaction. No
// balance effect: categories carry no monetary semantics.
func (l *Ledger) Recategorize(ctx context.Context, transactionID, categoryID string) error {
	t, err := l.get(ctx, transactionID)
	if err != nil {
		return err
	}
	if t.IsTransfer {
		return fmt.Errorf("cannot categorize a transfer: %w", repository.ErrValidation)
	}
	cat, err := repository.NewCategoryRepo(l.db).Get(ctx, categoryID)
	if err != nil {
		return err
	}
	if cat == nil {
		return fmt.Errorf("category %s: %w", categoryID, repository.ErrNotFound)
	}
	return repository.NewTransactionRepo(l.db).UpdateCategory(ctx, transactionID, &categoryID)
}

// MarkTransfer turns an uncategorized transaction into a transfer from
// sourceAccountID to targetAccountID. The plain credit/debit effect
// applied at record time is reverted and the dual adjustment applied
// exactly once.
func (l *Ledger) MarkTransfer(ctx context.Context, transactionID, sourceAccountID, targetAccountID string) error {
	t, err := l.get(ctx, transactionID)
	if err != nil {
		return err
	}
	if t.IsTransfer {
		return fmt.Errorf("transaction is already a transfer: %w", repository.ErrValidation)
	}
	if t.CategoryID != nil {
		return fmt.Errorf("transaction is categorized; transfers and categories are mutually exclusive: %w", repository.ErrValidation)
	}
	if sourceAccountID == targetAccountID {
		return fmt.Errorf("transfer target must differ from source: %w", repository.ErrValidation)
	}
	return database.WithTx(l.db, func(tx *sql.Tx) error {
		// Undo the plain effect before the flags change.
		if err := applyEffect(ctx, tx, *t, true); err != nil {
			return err
		}
		if err := repository.NewTransactionRepo(tx).MarkTransfer(ctx, transactionID, sourceAccountID, targetAccountID); err != nil {
			return err
		}
		t.IsTransfer = true
		t.CategoryID = nil
		t.AccountID = sourceAccountID
		t.TargetAccountID = &targetAccountID
		return applyEffect(ctx, tx, *t, false)
	})
}

// Delete reverses the transaction's balance effect and removes the row.
// The inverse inspects is_transfer/is_credit at delete time, which is why
// those flags are never mutated outside a balance-reconciling operation.
func (l *Ledger) Delete(ctx context.Context, transactionID string) error {
	t, err := l.get(ctx, transactionID)
	if err != nil {
		return err
	}
	return database.WithTx(l.db, func(tx *sql.Tx) error {
		if err := applyEffect(ctx, tx, *t, true); err != nil {
			return err
		}
		return repository.NewTransactionRepo(tx).Delete(ctx, transactionID)
	})
}

// EditAmount reverses the old balance effect and applies the new one,
// equivalent to delete-and-re-add without losing the row.
func (l *Ledger) EditAmount(ctx context.Context, transactionID string, newAmount decimal.Decimal) error {
	if newAmount.IsNegative() {
		return fmt.Errorf("amount must be a non-negative magnitude: %w", repository.ErrValidation)
	}
	t, err := l.get(ctx, transactionID)
	if err != nil {
		return err
	}
	return database.WithTx(l.db, func(tx *sql.Tx) error {
		if err := applyEffect(ctx, tx, *t, true); err != nil {
			return err
		}
		if err := repository.NewTransactionRepo(tx).UpdateAmount(ctx, transactionID, newAmount); err != nil {
			return err
		}
		t.Amount = newAmount
		return applyEffect(ctx, tx, *t, false)
	})
}

// EditDescription has no balance effect.
func (l *Ledger) EditDescription(ctx context.Context, transactionID, description string) error {
	if _, err := l.get(ctx, transactionID); err != nil {
		return err
	}
	return repository.NewTransactionRepo(l.db).UpdateDescription(ctx, transactionID, description)
}

// DuplicateExists reports whether an identical (date, description, amount)
// row is already recorded.
func (l *Ledger) DuplicateExists(ctx context.Context, date time.Time, description string, amount decimal.Decimal) (bool, error) {
	return repository.NewTransactionRepo(l.db).Exists(ctx, date, description, amount)
}

// AccountBalance returns the cached balance column. This is the live read
// path; DerivedBalance exists for verification only.
func (l *Ledger) AccountBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	a, err := repository.NewAccountRepo(l.db).Get(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	if a == nil {
		return decimal.Zero, fmt.Errorf("account %s: %w", accountID, repository.ErrNotFound)
	}
	return a.Balance, nil
}

// DerivedBalance recomputes the balance from the full transaction history.
// Audit/verification routine; never the live read path, so the cached
// column and the derivation cannot drift unnoticed.
func (l *Ledger) DerivedBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	txs, err := repository.NewTransactionRepo(l.db).ListInvolving(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	balance := decimal.Zero
	for _, t := range txs {
		balance = balance.Add(contribution(t, accountID))
	}
	return balance, nil
}

// SetMainAccount flags accountID as main, unsetting any previous main
// account so exactly one exists at a time.
func (l *Ledger) SetMainAccount(ctx context.Context, accountID string) error {
	return database.WithTx(l.db, func(tx *sql.Tx) error {
		accounts := repository.NewAccountRepo(tx)
		a, err := accounts.Get(ctx, accountID)
		if err != nil {
			return err
		}
		if a == nil {
			return fmt.Errorf("account %s: %w", accountID, repository.ErrNotFound)
		}
		current, err := accounts.Main(ctx)
		if err != nil {
			return err
		}
		if current != nil && current.ID != accountID {
			if err := accounts.SetMainFlag(ctx, current.ID, false); err != nil {
				return err
			}
		}
		return accounts.SetMainFlag(ctx, accountID, true)
	})
}

// DeleteAccount removes an account. Refused for the main account and for
// accounts with transaction history. Transfer rules pointing at the
// account are left behind as unmatchable orphans.
func (l *Ledger) DeleteAccount(ctx context.Context, accountID string) error {
	return database.WithTx(l.db, func(tx *sql.Tx) error {
		accounts := repository.NewAccountRepo(tx)
		a, err := accounts.Get(ctx, accountID)
		if err != nil {
			return err
		}
		if a == nil {
			return fmt.Errorf("account %s: %w", accountID, repository.ErrNotFound)
		}
		if a.IsMain {
			return fmt.Errorf("cannot delete the main account: %w", repository.ErrValidation)
		}
		n, err := repository.NewTransactionRepo(tx).CountInvolving(ctx, accountID)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("account has %d transactions: %w", n, repository.ErrValidation)
		}
		return accounts.Delete(ctx, accountID)
	})
}

// SetBalance brings an account to newBalance by recording a synthetic
// credit or debit in the adjustment category. The balance column is never
// written directly, so the ledger stays the source of truth.
func (l *Ledger) SetBalance(ctx context.Context, accountID string, newBalance decimal.Decimal, date time.Time) (repository.Transaction, error) {
	a, err := repository.NewAccountRepo(l.db).Get(ctx, accountID)
	if err != nil {
		return repository.Transaction{}, err
	}
	if a == nil {
		return repository.Transaction{}, fmt.Errorf("account %s: %w", accountID, repository.ErrNotFound)
	}
	diff := newBalance.Sub(a.Balance)
	if diff.IsZero() {
		return repository.Transaction{}, fmt.Errorf("balance already at %s: %w", newBalance, repository.ErrValidation)
	}
	catID, err := l.ensureAdjustmentCategory(ctx)
	if err != nil {
		return repository.Transaction{}, err
	}
	return l.Record(ctx, repository.Transaction{
		Date:        date,
		Description: fmt.Sprintf("Balance adjustment for %s", a.Name),
		Amount:      diff.Abs(),
		IsCredit:    diff.IsPositive(),
		CategoryID:  &catID,
		AccountID:   accountID,
	})
}

// ClearTransactions deletes the entire ledger and zeroes every cached
// balance in one transaction.
func (l *Ledger) ClearTransactions(ctx context.Context) error {
	return database.WithTx(l.db, func(tx *sql.Tx) error {
		if err := repository.NewTransactionRepo(tx).DeleteAll(ctx); err != nil {
			return err
		}
		accounts := repository.NewAccountRepo(tx)
		all, err := accounts.List(ctx)
		if err != nil {
			return err
		}
		for _, a := range all {
			if err := accounts.UpdateBalance(ctx, a.ID, decimal.Zero); err != nil {
				return err
			}
		}
		return nil
	})
}

func (l *Ledger) get(ctx context.Context, transactionID string) (*repository.Transaction, error) {
	t, err := repository.NewTransactionRepo(l.db).Get(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("transaction %s: %w", transactionID, repository.ErrNotFound)
	}
	return t, nil
}

func (l *Ledger) ensureAdjustmentCategory(ctx context.Context) (string, error) {
	cats := repository.NewCategoryRepo(l.db)
	cat, err := cats.GetByName(ctx, adjustmentCategory)
	if err != nil {
		return "", err
	}
	if cat != nil {
		return cat.ID, nil
	}
	created := repository.Category{
		ID:          uuid.NewString(),
		Name:        adjustmentCategory,
		Description: "Manual balance adjustments",
	}
	if err := cats.Insert(ctx, created); err != nil {
		return "", err
	}
	return created.ID, nil
}

func validateTransaction(t repository.Transaction) error {
	if t.AccountID == "" {
		return fmt.Errorf("source account required: %w", repository.ErrValidation)
	}
	if t.Date.IsZero() {
		return fmt.Errorf("date required: %w", repository.ErrValidation)
	}
	if t.Amount.IsNegative() {
		return fmt.Errorf("amount must be a non-negative magnitude: %w", repository.ErrValidation)
	}
	if t.IsTransfer {
		if t.CategoryID != nil {
			return fmt.Errorf("transaction cannot be both categorized and a transfer: %w", repository.ErrValidation)
		}
		if t.TargetAccountID == nil {
			return fmt.Errorf("transfer requires a target account: %w", repository.ErrValidation)
		}
		if *t.TargetAccountID == t.AccountID {
			return fmt.Errorf("transfer target must differ from source: %w", repository.ErrValidation)
		}
	} else if t.TargetAccountID != nil {
		return fmt.Errorf("target account is only valid on transfers: %w", repository.ErrValidation)
	}
	return nil
}

// applyEffect applies (or, with invert, exactly reverses) a transaction's
// balance contribution inside tx.
func applyEffect(ctx context.Context, tx *sql.Tx, t repository.Transaction, invert bool) error {
	amount := t.Amount
	if invert {
		amount = amount.Neg()
	}
	if t.IsTransfer {
		if err := adjustBalance(ctx, tx, t.AccountID, amount.Neg()); err != nil {
			return err
		}
		return adjustBalance(ctx, tx, *t.TargetAccountID, amount)
	}
	if t.IsCredit {
		return adjustBalance(ctx, tx, t.AccountID, amount)
	}
	return adjustBalance(ctx, tx, t.AccountID, amount.Neg())
}

func adjustBalance(ctx context.Context, tx *sql.Tx, accountID string, delta decimal.Decimal) error {
	accounts := repository.NewAccountRepo(tx)
	a, err := accounts.Get(ctx, accountID)
	if err != nil {
		return err
	}
	if a == nil {
		return fmt.Errorf("account %s: %w", accountID, repository.ErrNotFound)
	}
	return accounts.UpdateBalance(ctx, accountID, a.Balance.Add(delta))
}

// contribution is one transaction's signed effect on accountID, the
// algebra behind balance reconciliation.
func contribution(t repository.Transaction, accountID string) decimal.Decimal {
	switch {
	case t.IsTransfer && t.AccountID == accountID:
		return t.Amount.Neg()
	case t.IsTransfer && t.TargetAccountID != nil && *t.TargetAccountID == accountID:
		return t.Amount
	case t.AccountID == accountID && t.IsCredit:
		return t.Amount
	case t.AccountID == accountID:
		return t.Amount.Neg()
	default:
		return decimal.Zero
	}
}
