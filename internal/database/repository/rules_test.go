package repository_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/spendlog/spendlog/internal/database"
	"github.com/spendlog/spendlog/internal/database/repository"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	migrations, err := filepath.Abs("../migrations")
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(dbPath, migrations))

	db, err := database.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func seedAccount(t *testing.T, ctx context.Context, db *sql.DB, name string) repository.Account {
	t.Helper()
	a := repository.Account{ID: uuid.NewString(), Name: name, Balance: decimal.Zero, CreatedAt: database.Now()}
	require.NoError(t, repository.NewAccountRepo(db).Insert(ctx, a))
	return a
}

func seedCategory(t *testing.T, ctx context.Context, db *sql.DB, name string) repository.Category {
	t.Helper()
	c := repository.Category{ID: uuid.NewString(), Name: name}
	require.NoError(t, repository.NewCategoryRepo(db).Insert(ctx, c))
	return c
}

func TestAddCategoryRuleNormalizesPattern(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	cat := seedCategory(t, ctx, db, "Food")
	rules := repository.NewRuleRepo(db)

	rule, err := rules.AddCategoryRule(ctx, "  migros ", cat.ID, nil, nil)
	require.NoError(t, err)
	require.Equal(t, "MIGROS", rule.Pattern)

	stored, err := rules.ListCategoryRules(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Equal(t, "MIGROS", stored[0].Pattern)
}

func TestAddCategoryRuleRejectsEmptyPattern(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	cat := seedCategory(t, ctx, db, "Food")
	rules := repository.NewRuleRepo(db)

	// An empty pattern would match every transaction.
	_, err := rules.AddCategoryRule(ctx, "", cat.ID, nil, nil)
	require.ErrorIs(t, err, repository.ErrValidation)
	_, err = rules.AddCategoryRule(ctx, "   ", cat.ID, nil, nil)
	require.ErrorIs(t, err, repository.ErrValidation)
}

func TestAddCategoryRuleToleratesDuplicates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	cat := seedCategory(t, ctx, db, "Food")
	rules := repository.NewRuleRepo(db)

	_, err := rules.AddCategoryRule(ctx, "COOP", cat.ID, nil, nil)
	require.NoError(t, err)
	_, err = rules.AddCategoryRule(ctx, "COOP", cat.ID, nil, nil)
	require.NoError(t, err, "identical rules are redundant, not invalid")

	stored, err := rules.ListCategoryRules(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 2)
}

func TestListCategoryRulesOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	cat := seedCategory(t, ctx, db, "Food")
	rules := repository.NewRuleRepo(db)

	amount := decimal.RequireFromString("25")
	_, err := rules.AddCategoryRule(ctx, "A MUCH LONGER PATTERN", cat.ID, nil, nil)
	require.NoError(t, err)
	_, err = rules.AddCategoryRule(ctx, "SHORT", cat.ID, &amount, nil)
	require.NoError(t, err)
	_, err = rules.AddCategoryRule(ctx, "ALPHA", cat.ID, nil, nil)
	require.NoError(t, err)
	_, err = rules.AddCategoryRule(ctx, "BRAVO", cat.ID, nil, nil)
	require.NoError(t, err)

	stored, err := rules.ListCategoryRules(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 4)

	// Amount-qualified first, then longer patterns, then insertion order.
	require.Equal(t, "SHORT", stored[0].Pattern)
	require.NotNil(t, stored[0].Amount)
	require.Equal(t, "A MUCH LONGER PATTERN", stored[1].Pattern)
	require.Equal(t, "ALPHA", stored[2].Pattern)
	require.Equal(t, "BRAVO", stored[3].Pattern)
}

func TestAddTransferRuleValidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	main := seedAccount(t, ctx, db, "Main")
	savings := seedAccount(t, ctx, db, "Savings")
	rules := repository.NewRuleRepo(db)

	_, err := rules.AddTransferRule(ctx, "", main.ID, savings.ID)
	require.ErrorIs(t, err, repository.ErrValidation)

	_, err = rules.AddTransferRule(ctx, "E-BANKING", main.ID, main.ID)
	require.ErrorIs(t, err, repository.ErrValidation, "counterparty must differ")

	rule, err := rules.AddTransferRule(ctx, "e-banking savings", main.ID, savings.ID)
	require.NoError(t, err)
	require.Equal(t, "E-BANKING SAVINGS", rule.Pattern)
}

func TestTransferRulesSurviveAccountDeletion(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	main := seedAccount(t, ctx, db, "Main")
	old := seedAccount(t, ctx, db, "Old")
	rules := repository.NewRuleRepo(db)

	_, err := rules.AddTransferRule(ctx, "OLD BANK", main.ID, old.ID)
	require.NoError(t, err)

	// Deleting the account orphans the rule instead of cascading.
	require.NoError(t, repository.NewAccountRepo(db).Delete(ctx, old.ID))

	stored, err := rules.ListTransferRulesFor(ctx, main.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Equal(t, old.ID, stored[0].TargetAccountID)
}

func TestCategoryDeletionCascadesRules(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	cat := seedCategory(t, ctx, db, "Food")
	rules := repository.NewRuleRepo(db)

	_, err := rules.AddCategoryRule(ctx, "MIGROS", cat.ID, nil, nil)
	require.NoError(t, err)

	require.NoError(t, repository.NewCategoryRepo(db).Delete(ctx, cat.ID))

	stored, err := rules.ListCategoryRules(ctx)
	require.NoError(t, err)
	require.Empty(t, stored)
}

func TestDeleteRuleNotFound(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	rules := repository.NewRuleRepo(db)

	require.ErrorIs(t, rules.DeleteCategoryRule(ctx, uuid.NewString()), repository.ErrNotFound)
	require.ErrorIs(t, rules.DeleteTransferRule(ctx, uuid.NewString()), repository.ErrNotFound)
}
