package repository

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"
)

// AccountRepo handles accounts.
type AccountRepo struct {
	db DBTX
}

func NewAccountRepo(db DBTX) *AccountRepo {
	return &AccountRepo{db: db}
}

func (r *AccountRepo) Insert(ctx context.Context, a Account) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO accounts(id, name, is_main, balance, description, created_at)
	VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP);
	`, a.ID, a.Name, a.IsMain, a.Balance, a.Description)
	return err
}

func (r *AccountRepo) Get(ctx context.Context, id string) (*Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, is_main, balance, description, created_at FROM accounts WHERE id = ?`, id)
	return scanAccountRow(row)
}

func (r *AccountRepo) GetByName(ctx context.Context, name string) (*Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, is_main, balance, description, created_at FROM accounts WHERE name = ?`, name)
	return scanAccountRow(row)
}

// Main returns the account flagged is_main, or nil if none is set.
func (r *AccountRepo) Main(ctx context.Context) (*Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, is_main, balance, description, created_at FROM accounts WHERE is_main = 1`)
	return scanAccountRow(row)
}

func (r *AccountRepo) List(ctx context.Context) ([]Account, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, is_main, balance, description, created_at FROM accounts ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.Name, &a.IsMain, &a.Balance, &a.Description, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AccountRepo) UpdateBalance(ctx context.Context, id string, balance decimal.Decimal) error {
	res, err := r.db.ExecContext(ctx, `UPDATE accounts SET balance = ? WHERE id = ?`, balance, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *AccountRepo) SetMainFlag(ctx context.Context, id string, main bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE accounts SET is_main = ? WHERE id = ?`, main, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *AccountRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func scanAccountRow(row *sql.Row) (*Account, error) {
	var a Account
	if err := row.Scan(&a.ID, &a.Name, &a.IsMain, &a.Balance, &a.Description, &a.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
