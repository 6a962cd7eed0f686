package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spendlog/spendlog/internal/database/repository"
)

// uncategorizedLabel stands in for transactions without a category in
// report output.
const uncategorizedLabel = "Uncategorized"

// Reporter aggregates spending by custom accounting month and by category.
// Transfers are excluded everywhere: money moving between own accounts is
// not spending.
type Reporter struct {
	Transactions *repository.TransactionRepo
	Categories   *repository.CategoryRepo

	// MonthStartDay is the day a new accounting month begins (e.g. 25 when
	// salary arrives on the 25th). 1 means calendar months.
	MonthStartDay int
}

// CategoryTotal is one row of the all-time summary.
type CategoryTotal struct {
	Name  string
	Total decimal.Decimal
	Count int
}

// PeriodSpending is one accounting month of a report, categories sorted by
// net amount, highest first.
type PeriodSpending struct {
	Period     string // YYYY-MM, named after the month the period ends in
	Label      string
	Categories []CategoryTotal
	Total      decimal.Decimal
}

// MonthlySpending groups non-transfer transactions into accounting months
// and nets them per category (credits positive, debits negative). Most
// recent period first; numPeriods <= 0 means all.
func (r *Reporter) MonthlySpending(ctx context.Context, numPeriods int) ([]PeriodSpending, error) {
	txs, err := r.Transactions.List(ctx, repository.TransactionFilters{ExcludeTransfers: true})
	if err != nil {
		return nil, err
	}
	names, err := r.categoryNames(ctx)
	if err != nil {
		return nil, err
	}

	type key struct{ period, category string }
	totals := make(map[key]decimal.Decimal)
	counts := make(map[key]int)
	var periods []string
	seen := make(map[string]bool)

	for _, t := range txs {
		period := Period(t.Date, r.MonthStartDay)
		if !seen[period] {
			seen[period] = true
			periods = append(periods, period)
		}
		category := uncategorizedLabel
		if t.CategoryID != nil {
			if name, ok := names[*t.CategoryID]; ok {
				category = name
			}
		}
		k := key{period, category}
		totals[k] = totals[k].Add(netAmount(t))
		counts[k]++
	}

	sort.Sort(sort.Reverse(sort.StringSlice(periods)))
	if numPeriods > 0 && len(periods) > numPeriods {
		periods = periods[:numPeriods]
	}

	out := make([]PeriodSpending, 0, len(periods))
	for _, period := range periods {
		ps := PeriodSpending{Period: period, Label: PeriodLabel(period, r.MonthStartDay)}
		for k, total := range totals {
			if k.period != period {
				continue
			}
			ps.Categories = append(ps.Categories, CategoryTotal{Name: k.category, Total: total, Count: counts[k]})
			ps.Total = ps.Total.Add(total)
		}
		sort.Slice(ps.Categories, func(i, j int) bool {
			if !ps.Categories[i].Total.Equal(ps.Categories[j].Total) {
				return ps.Categories[i].Total.GreaterThan(ps.Categories[j].Total)
			}
			return ps.Categories[i].Name < ps.Categories[j].Name
		})
		out = append(out, ps)
	}
	return out, nil
}

// CategorySummary nets all non-transfer transactions per category across
// all time, highest first.
func (r *Reporter) CategorySummary(ctx context.Context) ([]CategoryTotal, error) {
	txs, err := r.Transactions.List(ctx, repository.TransactionFilters{ExcludeTransfers: true})
	if err != nil {
		return nil, err
	}
	names, err := r.categoryNames(ctx)
	if err != nil {
		return nil, err
	}
	totals := make(map[string]decimal.Decimal)
	counts := make(map[string]int)
	for _, t := range txs {
		category := uncategorizedLabel
		if t.CategoryID != nil {
			if name, ok := names[*t.CategoryID]; ok {
				category = name
			}
		}
		totals[category] = totals[category].Add(netAmount(t))
		counts[category]++
	}
	out := make([]CategoryTotal, 0, len(totals))
	for name, total := range totals {
		out = append(out, CategoryTotal{Name: name, Total: total, Count: counts[name]})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Total.Equal(out[j].Total) {
			return out[i].Total.GreaterThan(out[j].Total)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// TransactionBalance pairs a transaction with the running balance of its
// source account immediately after it.
type TransactionBalance struct {
	Transaction repository.Transaction
	Balance     decimal.Decimal
}

// WithRunningBalance replays the given transactions chronologically from
// zero and annotates each with its source account's balance afterwards.
func WithRunningBalance(txs []repository.Transaction) []TransactionBalance {
	sorted := make([]repository.Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	balances := make(map[string]decimal.Decimal)
	out := make([]TransactionBalance, 0, len(sorted))
	for _, t := range sorted {
		balances[t.AccountID] = balances[t.AccountID].Add(contribution(t, t.AccountID))
		if t.IsTransfer && t.TargetAccountID != nil {
			balances[*t.TargetAccountID] = balances[*t.TargetAccountID].Add(t.Amount)
		}
		out = append(out, TransactionBalance{Transaction: t, Balance: balances[t.AccountID]})
	}
	return out
}

// Period maps a date to its accounting month. With monthStartDay 25,
// Oct 25 through Nov 24 is "2025-11": the period is named after the month
// it ends in.
func Period(date time.Time, monthStartDay int) string {
	y, m, d := date.Date()
	// Advance from the first of the month, not the date itself: AddDate on
	// Jan 29-31 would normalize past February.
	if monthStartDay > 1 && d >= monthStartDay {
		return time.Date(y, m+1, 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
	}
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
}

// PeriodLabel renders a human-readable name for a period, including the
// date range when periods deviate from calendar months.
func PeriodLabel(period string, monthStartDay int) string {
	t, err := time.Parse("2006-01", period)
	if err != nil {
		return period
	}
	if monthStartDay <= 1 {
		return t.Format("Jan 2006")
	}
	end := time.Date(t.Year(), t.Month(), monthStartDay, 0, 0, 0, 0, time.UTC)
	start := end.AddDate(0, -1, 0)
	endInclusive := end.AddDate(0, 0, -1)
	return fmt.Sprintf("%s (%d %s - %d %s)", t.Format("Jan 2006"),
		start.Day(), start.Format("Jan"), endInclusive.Day(), endInclusive.Format("Jan"))
}

func (r *Reporter) categoryNames(ctx context.Context) (map[string]string, error) {
	cats, err := r.Categories.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(cats))
	for _, c := range cats {
		names[c.ID] = c.Name
	}
	return names, nil
}

// netAmount is a transaction's report contribution: credits positive,
// debits negative.
func netAmount(t repository.Transaction) decimal.Decimal {
	if t.IsCredit {
		return t.Amount
	}
	return t.Amount.Neg()
}
