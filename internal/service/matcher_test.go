package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spendlog/spendlog/internal/database/repository"
)

func TestClassifyLongestPatternWins(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	rules := repository.NewRuleRepo(db)
	main := mustAccount(t, ctx, db, "Main", true)
	shopping := mustCategory(t, ctx, db, "Shopping")
	subs := mustCategory(t, ctx, db, "Subscriptions")

	_, err := rules.AddCategoryRule(ctx, "ZKB VISA", shopping.ID, nil, nil)
	require.NoError(t, err)
	_, err = rules.AddCategoryRule(ctx, "ZKB VISA NETFLIX", subs.ID, nil, nil)
	require.NoError(t, err)

	m := &Matcher{Rules: rules}
	match, err := m.Classify(ctx, "ZKB Visa Netflix.com", dec("17.90"), false, main.ID)
	require.NoError(t, err)
	require.Equal(t, MatchCategory, match.Kind)
	require.Equal(t, subs.ID, match.CategoryID)

	match, err = m.Classify(ctx, "ZKB Visa Galaxus", dec("59"), false, main.ID)
	require.NoError(t, err)
	require.Equal(t, shopping.ID, match.CategoryID)
}

func TestClassifyAmountQualifiedOutranksLonger(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	rules := repository.NewRuleRepo(db)
	main := mustAccount(t, ctx, db, "Main", true)
	coffee := mustCategory(t, ctx, db, "Coffee")
	gifts := mustCategory(t, ctx, db, "Gifts")

	_, err := rules.AddCategoryRule(ctx, "STARBUCKS DOWNTOWN", coffee.ID, nil, nil)
	require.NoError(t, err)
	amount := dec("25.00")
	_, err = rules.AddCategoryRule(ctx, "STARBUCKS", gifts.ID, &amount, nil)
	require.NoError(t, err)

	m := &Matcher{Rules: rules}

	// The exact gift-card amount hits the qualified rule despite the
	// longer unqualified pattern also matching.
	match, err := m.Classify(ctx, "STARBUCKS DOWNTOWN 1234", dec("25.00"), false, main.ID)
	require.NoError(t, err)
	require.Equal(t, gifts.ID, match.CategoryID)

	// Within tolerance still counts.
	match, err = m.Classify(ctx, "STARBUCKS DOWNTOWN 1234", dec("25.01"), false, main.ID)
	require.NoError(t, err)
	require.Equal(t, gifts.ID, match.CategoryID)

	// Outside tolerance the qualified rule is skipped.
	match, err = m.Classify(ctx, "STARBUCKS DOWNTOWN 1234", dec("4.80"), false, main.ID)
	require.NoError(t, err)
	require.Equal(t, coffee.ID, match.CategoryID)
}

func TestClassifyCreditQualifier(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	rules := repository.NewRuleRepo(db)
	main := mustAccount(t, ctx, db, "Main", true)
	salary := mustCategory(t, ctx, db, "Salary")

	isCredit := true
	_, err := rules.AddCategoryRule(ctx, "ACME CORP", salary.ID, nil, &isCredit)
	require.NoError(t, err)

	m := &Matcher{Rules: rules}
	match, err := m.Classify(ctx, "ACME CORP PAYROLL", dec("5000"), true, main.ID)
	require.NoError(t, err)
	require.Equal(t, MatchCategory, match.Kind)

	match, err = m.Classify(ctx, "ACME CORP REFUND DUE", dec("50"), false, main.ID)
	require.NoError(t, err)
	require.Equal(t, MatchNone, match.Kind, "debit must not hit a credit-only rule")
}

func TestClassifyTransferBeforeCategory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	rules := repository.NewRuleRepo(db)
	main := mustAccount(t, ctx, db, "Main", true)
	savings := mustAccount(t, ctx, db, "Savings", false)
	other := mustCategory(t, ctx, db, "Other")

	_, err := rules.AddCategoryRule(ctx, "E-BANKING", other.ID, nil, nil)
	require.NoError(t, err)
	_, err = rules.AddTransferRule(ctx, "E-BANKING", main.ID, savings.ID)
	require.NoError(t, err)

	m := &Matcher{Rules: rules}
	match, err := m.Classify(ctx, "E-Banking Auftrag", dec("500"), false, main.ID)
	require.NoError(t, err)
	require.Equal(t, MatchTransfer, match.Kind)
	require.Equal(t, savings.ID, match.CounterpartyID)

	// Transfer rules are scoped to their account.
	match, err = m.Classify(ctx, "E-Banking Auftrag", dec("500"), false, savings.ID)
	require.NoError(t, err)
	require.Equal(t, MatchCategory, match.Kind)
}

func TestClassifyCaseInsensitive(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	rules := repository.NewRuleRepo(db)
	main := mustAccount(t, ctx, db, "Main", true)
	food := mustCategory(t, ctx, db, "Food")

	// Patterns are stored upper-cased regardless of input.
	_, err := rules.AddCategoryRule(ctx, "migros", food.ID, nil, nil)
	require.NoError(t, err)

	m := &Matcher{Rules: rules}
	match, err := m.Classify(ctx, "Migros Zuerich HB", dec("23.55"), false, main.ID)
	require.NoError(t, err)
	require.Equal(t, food.ID, match.CategoryID)
}

func TestTransferEndpoints(t *testing.T) {
	t.Parallel()

	source, target := transferEndpoints("main", "savings", false)
	require.Equal(t, "main", source, "debit leaves the resident account")
	require.Equal(t, "savings", target)

	source, target = transferEndpoints("main", "savings", true)
	require.Equal(t, "savings", source, "credit is funded by the counterparty")
	require.Equal(t, "main", target)
}

func TestClassifyInsertionOrderBreaksTies(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	rules := repository.NewRuleRepo(db)
	main := mustAccount(t, ctx, db, "Main", true)
	first := mustCategory(t, ctx, db, "First")
	second := mustCategory(t, ctx, db, "Second")

	_, err := rules.AddCategoryRule(ctx, "COOP", first.ID, nil, nil)
	require.NoError(t, err)
	_, err = rules.AddCategoryRule(ctx, "PRON", second.ID, nil, nil)
	require.NoError(t, err)

	m := &Matcher{Rules: rules}
	match, err := m.Classify(ctx, "COOP PRONTO", dec("10"), false, main.ID)
	require.NoError(t, err)
	require.Equal(t, first.ID, match.CategoryID, "equal-length patterns resolve by insertion order")
}
