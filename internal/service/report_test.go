package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spendlog/spendlog/internal/database/repository"
)

func TestPeriodBoundaries(t *testing.T) {
	t.Parallel()

	// Day 25 opens the next accounting month; day 24 closes the current one.
	require.Equal(t, "2025-01", Period(date(2025, 1, 24), 25))
	require.Equal(t, "2025-02", Period(date(2025, 1, 25), 25))
	require.Equal(t, "2025-01", Period(date(2024, 12, 25), 25))
	require.Equal(t, "2026-01", Period(date(2025, 12, 25), 25))

	// Month-end days must not normalize past the next month.
	require.Equal(t, "2025-02", Period(date(2025, 1, 29), 25))
	require.Equal(t, "2025-02", Period(date(2025, 1, 30), 25))
	require.Equal(t, "2025-02", Period(date(2025, 1, 31), 25))
	require.Equal(t, "2024-04", Period(date(2024, 3, 31), 25))

	// monthStartDay 1 means calendar months.
	require.Equal(t, "2025-01", Period(date(2025, 1, 1), 1))
	require.Equal(t, "2025-01", Period(date(2025, 1, 31), 1))
}

func TestPeriodLabel(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Jan 2025 (25 Dec - 24 Jan)", PeriodLabel("2025-01", 25))
	require.Equal(t, "Mar 2025 (25 Feb - 24 Mar)", PeriodLabel("2025-03", 25))
	require.Equal(t, "Jan 2025", PeriodLabel("2025-01", 1))
}

func TestMonthlySpendingGroupsAndSorts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	ledger := NewLedger(db)
	main := mustAccount(t, ctx, db, "Main", true)
	savings := mustAccount(t, ctx, db, "Savings", false)
	food := mustCategory(t, ctx, db, "Food")
	salary := mustCategory(t, ctx, db, "Salary")

	for _, row := range []struct {
		tx repository.Transaction
	}{
		// Jan period (25 Dec - 24 Jan).
		{repository.Transaction{Date: date(2025, 1, 10), Description: "MIGROS", Amount: dec("80"), AccountID: main.ID, CategoryID: &food.ID}},
		{repository.Transaction{Date: date(2025, 1, 20), Description: "COOP", Amount: dec("20"), AccountID: main.ID, CategoryID: &food.ID}},
		// Day 25 falls into the Feb period.
		{repository.Transaction{Date: date(2025, 1, 25), Description: "SALARY", Amount: dec("5000"), IsCredit: true, AccountID: main.ID, CategoryID: &salary.ID}},
		{repository.Transaction{Date: date(2025, 2, 1), Description: "UNKNOWN", Amount: dec("7"), AccountID: main.ID}},
	} {
		_, err := ledger.Record(ctx, row.tx)
		require.NoError(t, err)
	}

	// Transfers never show up in spending.
	target := savings.ID
	_, err := ledger.Record(ctx, repository.Transaction{
		Date: date(2025, 1, 15), Description: "TO SAVINGS", Amount: dec("1000"),
		IsTransfer: true, AccountID: main.ID, TargetAccountID: &target,
	})
	require.NoError(t, err)

	r := &Reporter{
		Transactions:  repository.NewTransactionRepo(db),
		Categories:    repository.NewCategoryRepo(db),
		MonthStartDay: 25,
	}
	periods, err := r.MonthlySpending(ctx, 0)
	require.NoError(t, err)
	require.Len(t, periods, 2)

	feb := periods[0]
	require.Equal(t, "2025-02", feb.Period)
	require.Len(t, feb.Categories, 2)
	require.Equal(t, "Salary", feb.Categories[0].Name)
	require.True(t, feb.Categories[0].Total.Equal(dec("5000")))
	require.Equal(t, "Uncategorized", feb.Categories[1].Name)
	require.True(t, feb.Total.Equal(dec("4993")))

	jan := periods[1]
	require.Equal(t, "2025-01", jan.Period)
	require.Len(t, jan.Categories, 1)
	require.Equal(t, "Food", jan.Categories[0].Name)
	require.True(t, jan.Categories[0].Total.Equal(dec("-100")))
	require.Equal(t, 2, jan.Categories[0].Count)

	// Limiting periods keeps the most recent ones.
	periods, err = r.MonthlySpending(ctx, 1)
	require.NoError(t, err)
	require.Len(t, periods, 1)
	require.Equal(t, "2025-02", periods[0].Period)
}

func TestCategorySummary(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	ledger := NewLedger(db)
	main := mustAccount(t, ctx, db, "Main", true)
	food := mustCategory(t, ctx, db, "Food")

	for _, tx := range []repository.Transaction{
		{Date: date(2025, 1, 10), Description: "MIGROS", Amount: dec("80"), AccountID: main.ID, CategoryID: &food.ID},
		{Date: date(2025, 3, 10), Description: "COOP", Amount: dec("25"), AccountID: main.ID, CategoryID: &food.ID},
		{Date: date(2025, 3, 11), Description: "MYSTERY", Amount: dec("5"), AccountID: main.ID},
	} {
		_, err := ledger.Record(ctx, tx)
		require.NoError(t, err)
	}

	r := &Reporter{
		Transactions:  repository.NewTransactionRepo(db),
		Categories:    repository.NewCategoryRepo(db),
		MonthStartDay: 25,
	}
	totals, err := r.CategorySummary(ctx)
	require.NoError(t, err)
	require.Len(t, totals, 2)
	require.Equal(t, "Uncategorized", totals[0].Name)
	require.True(t, totals[0].Total.Equal(dec("-5")))
	require.Equal(t, "Food", totals[1].Name)
	require.True(t, totals[1].Total.Equal(dec("-105")))
	require.Equal(t, 2, totals[1].Count)
}

func TestWithRunningBalance(t *testing.T) {
	t.Parallel()

	target := "savings"
	txs := []repository.Transaction{
		{ID: "1", Date: date(2025, 1, 1), Amount: dec("100"), IsCredit: true, AccountID: "main"},
		{ID: "2", Date: date(2025, 1, 2), Amount: dec("30"), AccountID: "main"},
		{ID: "3", Date: date(2025, 1, 3), Amount: dec("50"), IsTransfer: true, AccountID: "main", TargetAccountID: &target},
	}

	annotated := WithRunningBalance(txs)
	require.Len(t, annotated, 3)
	require.True(t, annotated[0].Balance.Equal(dec("100")))
	require.True(t, annotated[1].Balance.Equal(dec("70")))
	require.True(t, annotated[2].Balance.Equal(dec("20")))
}
