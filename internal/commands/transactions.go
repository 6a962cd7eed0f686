package commands

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/spendlog/spendlog/internal/database/repository"
	"github.com/spendlog/spendlog/internal/service"
)

func newTransactionsCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"tx"},
		Short:   "List and edit transactions",
	}
	cmd.AddCommand(
		newTransactionsListCommand(app),
		newTransactionsSetCategoryCommand(app),
		newTransactionsMarkTransferCommand(app),
		newTransactionsSetAmountCommand(app),
		newTransactionsSetDescriptionCommand(app),
		newTransactionsDeleteCommand(app),
	)
	return cmd
}

func newTransactionsListCommand(app *App) *cobra.Command {
	var (
		accountName   string
		search        string
		limit         int
		uncategorized bool
		noTransfers   bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			names, err := categoryNames(ctx, app)
			if err != nil {
				return err
			}

			// Scoping to one account shows a running balance, so it lists
			// oldest first and includes incoming transfers.
			if accountName != "" {
				account, err := resolveAccount(ctx, app, accountName)
				if err != nil {
					return err
				}
				txs, err := app.Transactions.ListInvolving(ctx, account.ID)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(out, 2, 4, 2, ' ', 0)
				for _, tb := range service.WithRunningBalance(txs) {
					printTransaction(w, app, names, tb.Transaction, &tb.Balance)
				}
				return w.Flush()
			}

			filters := repository.TransactionFilters{
				Uncategorized:    uncategorized,
				ExcludeTransfers: noTransfers,
				Search:           search,
				Limit:            limit,
			}
			txs, err := app.Transactions.List(ctx, filters)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(out, 2, 4, 2, ' ', 0)
			for _, t := range txs {
				printTransaction(w, app, names, t, nil)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVarP(&accountName, "account", "a", "", "only transactions involving this account, with running balance")
	cmd.Flags().StringVarP(&search, "search", "s", "", "substring match on description")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "maximum rows (0 for all)")
	cmd.Flags().BoolVarP(&uncategorized, "uncategorized", "u", false, "only the uncategorized backlog")
	cmd.Flags().BoolVar(&noTransfers, "no-transfers", false, "hide transfers")
	return cmd
}

func categoryNames(ctx context.Context, app *App) (map[string]string, error) {
	cats, err := app.Categories.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(cats))
	for _, c := range cats {
		names[c.ID] = c.Name
	}
	return names, nil
}

func printTransaction(w *tabwriter.Writer, app *App, names map[string]string, t repository.Transaction, balance *decimal.Decimal) {
	sign := "-"
	if t.IsCredit {
		sign = "+"
	}
	label := "uncategorized"
	if t.IsTransfer {
		label = "transfer"
	} else if t.CategoryID != nil {
		label = names[*t.CategoryID]
	}
	fmt.Fprintf(w, "%s\t%s\t%s%s %s\t%s\t%s", shortID(t.ID),
		t.Date.Format(app.Config.UI.DateFormat), sign, t.Amount.StringFixed(2),
		app.Config.UI.Currency, t.Description, label)
	if balance != nil {
		fmt.Fprintf(w, "\t%s", balance.StringFixed(2))
	}
	fmt.Fprintln(w)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// findTransaction accepts a full UUID or an unambiguous prefix.
func findTransaction(cmd *cobra.Command, app *App, id string) (*repository.Transaction, error) {
	ctx := cmd.Context()
	t, err := app.Transactions.Get(ctx, id)
	if err != nil || t != nil {
		return t, err
	}
	all, err := app.Transactions.List(ctx, repository.TransactionFilters{})
	if err != nil {
		return nil, err
	}
	var match *repository.Transaction
	for i := range all {
		if strings.HasPrefix(all[i].ID, id) {
			if match != nil {
				return nil, fmt.Errorf("transaction id %q is ambiguous: %w", id, repository.ErrValidation)
			}
			match = &all[i]
		}
	}
	if match == nil {
		return nil, fmt.Errorf("transaction %q: %w", id, repository.ErrNotFound)
	}
	return match, nil
}

func newTransactionsSetCategoryCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set-category <id> <category>",
		Short: "Assign a transaction to a category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t, err := findTransaction(cmd, app, args[0])
			if err != nil {
				return err
			}
			cat, err := app.Categories.GetByName(ctx, args[1])
			if err != nil {
				return err
			}
			if cat == nil {
				return fmt.Errorf("category %q: %w", args[1], repository.ErrNotFound)
			}
			return app.Ledger.Recategorize(ctx, t.ID, cat.ID)
		},
	}
}

func newTransactionsMarkTransferCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "mark-transfer <id> <other-account>",
		Short: "Convert a transaction into a transfer with the given account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t, err := findTransaction(cmd, app, args[0])
			if err != nil {
				return err
			}
			other, err := resolveAccount(ctx, app, args[1])
			if err != nil {
				return err
			}
			sourceID, targetID := t.AccountID, other.ID
			if t.IsCredit {
				sourceID, targetID = other.ID, t.AccountID
			}
			return app.Ledger.MarkTransfer(ctx, t.ID, sourceID, targetID)
		},
	}
}

func newTransactionsSetAmountCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set-amount <id> <amount>",
		Short: "Correct a transaction amount",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := findTransaction(cmd, app, args[0])
			if err != nil {
				return err
			}
			amount, err := decimal.NewFromString(args[1])
			if err != nil {
				return fmt.Errorf("amount %q: %w", args[1], repository.ErrValidation)
			}
			return app.Ledger.EditAmount(cmd.Context(), t.ID, amount)
		},
	}
}

func newTransactionsSetDescriptionCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set-description <id> <description>",
		Short: "Rewrite a transaction description",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := findTransaction(cmd, app, args[0])
			if err != nil {
				return err
			}
			return app.Ledger.EditDescription(cmd.Context(), t.ID, args[1])
		},
	}
}

func newTransactionsDeleteCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction and undo its balance effect",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := findTransaction(cmd, app, args[0])
			if err != nil {
				return err
			}
			return app.Ledger.Delete(cmd.Context(), t.ID)
		},
	}
}
