package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrValidation marks input the store refuses to persist (empty rule
// pattern, self-transfer, category and transfer on the same transaction).
var ErrValidation = errors.New("validation")

// ErrNotFound marks a lookup of a missing account, category or transaction.
var ErrNotFound = errors.New("not found")

// DBTX is satisfied by both *sql.DB and *sql.Tx so repositories can run
// inside or outside an explicit transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Account represents an account row. Balance is a cache maintained by the
// ledger; it must always equal the signed sum of the account's history.
type Account struct {
	ID          string
	Name        string
	IsMain      bool
	Balance     decimal.Decimal
	Description string
	CreatedAt   time.Time
}

// Category represents a category row.
type Category struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
}

// Transaction represents a ledger entry. Amount is a non-negative
// magnitude; IsCredit gives the sign. CategoryID and IsTransfer are
// mutually exclusive, and TargetAccountID is set iff IsTransfer.
type Transaction struct {
	ID              string
	Date            time.Time
	Description     string
	Amount          decimal.Decimal
	IsCredit        bool
	IsTransfer      bool
	Reference       string
	CategoryID      *string
	AccountID       string
	TargetAccountID *string
	CreatedAt       time.Time
}

// CategoryRule maps a description substring (optionally qualified by an
// exact amount and a credit/debit direction) to a category. Patterns are
// stored upper-cased.
type CategoryRule struct {
	ID         string
	Pattern    string
	Amount     *decimal.Decimal
	IsCredit   *bool
	CategoryID string
	CreatedAt  time.Time
}

// TransferRule maps a description substring to a transfer counterparty.
// Directional: it only fires when the resident account matches
// SourceAccountID.
type TransferRule struct {
	ID              string
	Pattern         string
	SourceAccountID string
	TargetAccountID string
	CreatedAt       time.Time
}
