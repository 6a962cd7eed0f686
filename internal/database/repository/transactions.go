package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionFilters defines list filters.
type TransactionFilters struct {
	AccountID        string
	CategoryID       string
	Uncategorized    bool // category IS NULL and not a transfer
	ExcludeTransfers bool
	Search           string // description substring, case-insensitive
	Limit            int
	OrderAsc         bool // chronological (oldest first); default newest first
}

// TransactionRepo handles ledger rows. Balance effects live in the ledger
// service; this type is pure data access.
type TransactionRepo struct {
	db DBTX
}

func NewTransactionRepo(db DBTX) *TransactionRepo { return &TransactionRepo{db: db} }

const transactionCols = `id, date, description, amount, is_credit, is_transfer, reference, category_id, account_id, target_account_id, created_at`

func (r *TransactionRepo) Insert(ctx context.Context, t Transaction) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO transactions(
	 id, date, description, amount, is_credit, is_transfer, reference,
	 category_id, account_id, target_account_id, created_at)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP);
	`,
		t.ID, t.Date, t.Description, t.Amount, t.IsCredit, t.IsTransfer,
		t.Reference, t.CategoryID, t.AccountID, t.TargetAccountID)
	return err
}

func (r *TransactionRepo) Get(ctx context.Context, id string) (*Transaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+transactionCols+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *TransactionRepo) UpdateCategory(ctx context.Context, id string, categoryID *string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE transactions SET category_id = ? WHERE id = ?`, categoryID, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *TransactionRepo) UpdateAmount(ctx context.Context, id string, amount decimal.Decimal) error {
	res, err := r.db.ExecContext(ctx, `UPDATE transactions SET amount = ? WHERE id = ?`, amount, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *TransactionRepo) UpdateDescription(ctx context.Context, id string, description string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE transactions SET description = ? WHERE id = ?`, description, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// MarkTransfer flips a row into a transfer from sourceID to targetID and
// clears any category.
func (r *TransactionRepo) MarkTransfer(ctx context.Context, id, sourceID, targetID string) error {
	res, err := r.db.ExecContext(ctx, `
	UPDATE transactions
	SET is_transfer = 1, account_id = ?, target_account_id = ?, category_id = NULL
	WHERE id = ?`, sourceID, targetID, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *TransactionRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *TransactionRepo) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM transactions`)
	return err
}

func (r *TransactionRepo) List(ctx context.Context, f TransactionFilters) ([]Transaction, error) {
	var where []string
	var args []any

	if f.AccountID != "" {
		where = append(where, "account_id = ?")
		args = append(args, f.AccountID)
	}
	if f.CategoryID != "" {
		where = append(where, "category_id = ?")
		args = append(args, f.CategoryID)
	}
	if f.Uncategorized {
		where = append(where, "category_id IS NULL AND is_transfer = 0")
	}
	if f.ExcludeTransfers {
		where = append(where, "is_transfer = 0")
	}
	if f.Search != "" {
		where = append(where, "UPPER(description) LIKE ?")
		args = append(args, "%"+strings.ToUpper(f.Search)+"%")
	}

	query := `SELECT ` + transactionCols + ` FROM transactions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	if f.OrderAsc {
		query += " ORDER BY date ASC, rowid ASC"
	} else {
		query += " ORDER BY date DESC, rowid DESC"
	}
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTransactions(rows)
}

// ListInvolving returns every transaction touching accountID, as source or
// transfer target, in chronological order. This is the derivation input
// for balance verification.
func (r *TransactionRepo) ListInvolving(ctx context.Context, accountID string) ([]Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT `+transactionCols+` FROM transactions
	WHERE account_id = ? OR target_account_id = ?
	ORDER BY date ASC, rowid ASC;
	`, accountID, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTransactions(rows)
}

// ListCategorized returns transactions that carry a category, newest first.
func (r *TransactionRepo) ListCategorized(ctx context.Context) ([]Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT `+transactionCols+` FROM transactions
	WHERE category_id IS NOT NULL
	ORDER BY date DESC, rowid DESC;
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTransactions(rows)
}

// Exists reports whether a transaction with the same date, description and
// amount is already recorded. Legitimately repeated same-day identical
// rows are indistinguishable from duplicates; accepted limitation.
func (r *TransactionRepo) Exists(ctx context.Context, date time.Time, description string, amount decimal.Decimal) (bool, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT amount FROM transactions WHERE date = ? AND description = ?;
	`, date, description)
	if err != nil {
		return false, err
	}
	defer rows.Close()
	for rows.Next() {
		var a decimal.Decimal
		if err := rows.Scan(&a); err != nil {
			return false, err
		}
		if a.Equal(amount) {
			return true, nil
		}
	}
	return false, rows.Err()
}

// LastInvolving returns the most recent transaction touching accountID as
// source or transfer target, or nil when the account has no history.
func (r *TransactionRepo) LastInvolving(ctx context.Context, accountID string) (*Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT `+transactionCols+` FROM transactions
	WHERE account_id = ? OR target_account_id = ?
	ORDER BY date DESC, rowid DESC LIMIT 1;
	`, accountID, accountID)
	t, err := scanTransaction(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// CountInvolving counts transactions that reference accountID as source or
// transfer target.
func (r *TransactionRepo) CountInvolving(ctx context.Context, accountID string) (int, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT COUNT(*) FROM transactions WHERE account_id = ? OR target_account_id = ?;
	`, accountID, accountID)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func collectTransactions(rows *sql.Rows) ([]Transaction, error) {
	var out []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// scanTransaction handles nullable fields for both Row and Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner) (Transaction, error) {
	var t Transaction
	var category, target sql.NullString
	if err := row.Scan(&t.ID, &t.Date, &t.Description, &t.Amount, &t.IsCredit,
		&t.IsTransfer, &t.Reference, &category, &t.AccountID, &target, &t.CreatedAt); err != nil {
		return Transaction{}, err
	}
	if category.Valid {
		t.CategoryID = &category.String
	}
	if target.Valid {
		t.TargetAccountID = &target.String
	}
	return t, nil
}
