package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RuleRepo stores category and transfer indicator rules.
//
// Patterns are normalized to uppercase on write so matching is
// case-insensitive without per-match normalization. Duplicate rules are
// tolerated; they simply all participate in ranking.
type RuleRepo struct {
	db DBTX
}

func NewRuleRepo(db DBTX) *RuleRepo {
	return &RuleRepo{db: db}
}

// AddCategoryRule records that pattern (optionally qualified by amount and
// credit/debit direction) indicates categoryID. An empty pattern is a
// substring of everything and is rejected rather than becoming a silently
// universal rule.
func (r *RuleRepo) AddCategoryRule(ctx context.Context, pattern, categoryID string, amount *decimal.Decimal, isCredit *bool) (CategoryRule, error) {
	pattern = strings.ToUpper(strings.TrimSpace(pattern))
	if pattern == "" {
		return CategoryRule{}, fmt.Errorf("category rule pattern must not be empty: %w", ErrValidation)
	}
	rule := CategoryRule{
		ID:         uuid.NewString(),
		Pattern:    pattern,
		Amount:     amount,
		IsCredit:   isCredit,
		CategoryID: categoryID,
	}
	var amt decimal.NullDecimal
	if amount != nil {
		amt = decimal.NullDecimal{Decimal: *amount, Valid: true}
	}
	var credit sql.NullBool
	if isCredit != nil {
		credit = sql.NullBool{Bool: *isCredit, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO category_rules(id, pattern, amount, is_credit, category_id, created_at)
	VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP);
	`, rule.ID, rule.Pattern, amt, credit, rule.CategoryID)
	return rule, err
}

// AddTransferRule records that pattern indicates a transfer from
// sourceAccountID to targetAccountID. The rule only fires for
// transactions resident on the source account.
func (r *RuleRepo) AddTransferRule(ctx context.Context, pattern, sourceAccountID, targetAccountID string) (TransferRule, error) {
	pattern = strings.ToUpper(strings.TrimSpace(pattern))
	if pattern == "" {
		return TransferRule{}, fmt.Errorf("transfer rule pattern must not be empty: %w", ErrValidation)
	}
	if sourceAccountID == targetAccountID {
		return TransferRule{}, fmt.Errorf("transfer rule source and target must differ: %w", ErrValidation)
	}
	rule := TransferRule{
		ID:              uuid.NewString(),
		Pattern:         pattern,
		SourceAccountID: sourceAccountID,
		TargetAccountID: targetAccountID,
	}
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO transfer_rules(id, pattern, source_account_id, target_account_id, created_at)
	VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP);
	`, rule.ID, rule.Pattern, rule.SourceAccountID, rule.TargetAccountID)
	return rule, err
}

// ListCategoryRules returns all category rules in matching priority order:
// amount-qualified rules first, then longer patterns, ties broken by
// insertion order.
func (r *RuleRepo) ListCategoryRules(ctx context.Context) ([]CategoryRule, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, pattern, amount, is_credit, category_id, created_at
	FROM category_rules
	ORDER BY (amount IS NOT NULL) DESC, LENGTH(pattern) DESC, rowid ASC;
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CategoryRule
	for rows.Next() {
		var cr CategoryRule
		var amt decimal.NullDecimal
		var credit sql.NullBool
		if err := rows.Scan(&cr.ID, &cr.Pattern, &amt, &credit, &cr.CategoryID, &cr.CreatedAt); err != nil {
			return nil, err
		}
		if amt.Valid {
			a := amt.Decimal
			cr.Amount = &a
		}
		if credit.Valid {
			b := credit.Bool
			cr.IsCredit = &b
		}
		out = append(out, cr)
	}
	return out, rows.Err()
}

// ListTransferRulesFor returns the transfer rules whose source account is
// accountID, longest pattern first, ties broken by insertion order.
func (r *RuleRepo) ListTransferRulesFor(ctx context.Context, accountID string) ([]TransferRule, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, pattern, source_account_id, target_account_id, created_at
	FROM transfer_rules
	WHERE source_account_id = ?
	ORDER BY LENGTH(pattern) DESC, rowid ASC;
	`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TransferRule
	for rows.Next() {
		var tr TransferRule
		if err := rows.Scan(&tr.ID, &tr.Pattern, &tr.SourceAccountID, &tr.TargetAccountID, &tr.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, tr)
	}
	return out, rows.Err()
}

// ListTransferRules returns every transfer rule regardless of source
// account, longest pattern first.
func (r *RuleRepo) ListTransferRules(ctx context.Context) ([]TransferRule, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, pattern, source_account_id, target_account_id, created_at
	FROM transfer_rules
	ORDER BY LENGTH(pattern) DESC, rowid ASC;
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TransferRule
	for rows.Next() {
		var tr TransferRule
		if err := rows.Scan(&tr.ID, &tr.Pattern, &tr.SourceAccountID, &tr.TargetAccountID, &tr.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, tr)
	}
	return out, rows.Err()
}

func (r *RuleRepo) DeleteCategoryRule(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM category_rules WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *RuleRepo) DeleteTransferRule(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transfer_rules WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}
