package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/spendlog/spendlog/internal/database"
	"github.com/spendlog/spendlog/internal/database/repository"
)

func newAccountsCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage accounts",
	}
	cmd.AddCommand(
		newAccountsListCommand(app),
		newAccountsAddCommand(app),
		newAccountsDeleteCommand(app),
		newAccountsSetMainCommand(app),
		newAccountsSetBalanceCommand(app),
	)
	return cmd
}

func newAccountsListCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts with their balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			accounts, err := app.Accounts.List(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
			for _, a := range accounts {
				marker := " "
				if a.IsMain {
					marker = "*"
				}
				activity := "-"
				last, err := app.Transactions.LastInvolving(cmd.Context(), a.ID)
				if err != nil {
					return err
				}
				if last != nil {
					activity = last.Date.Format(app.Config.UI.DateFormat)
				}
				fmt.Fprintf(w, "%s %s\t%s %s\t%s\t%s\n", marker, a.Name,
					a.Balance.StringFixed(2), app.Config.UI.Currency, activity, a.Description)
			}
			return w.Flush()
		},
	}
}

func newAccountsAddCommand(app *App) *cobra.Command {
	var description string
	var balance string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name := strings.TrimSpace(args[0])
			if name == "" {
				return fmt.Errorf("account name: %w", repository.ErrValidation)
			}
			if existing, err := app.Accounts.GetByName(ctx, name); err != nil {
				return err
			} else if existing != nil {
				return fmt.Errorf("account %q already exists: %w", name, repository.ErrValidation)
			}
			opening, err := decimal.NewFromString(balance)
			if err != nil {
				return fmt.Errorf("balance %q: %w", balance, repository.ErrValidation)
			}
			account := repository.Account{
				ID:          uuid.NewString(),
				Name:        name,
				Balance:     decimal.Zero,
				Description: description,
				CreatedAt:   database.Now(),
			}
			if err := app.Accounts.Insert(ctx, account); err != nil {
				return err
			}
			// The opening balance goes through the ledger so the cached
			// balance stays backed by a transaction.
			if !opening.IsZero() {
				if _, err := app.Ledger.SetBalance(ctx, account.ID, opening, database.Now()); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created account %s.\n", name)
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "free-form note")
	cmd.Flags().StringVarP(&balance, "balance", "b", "0", "opening balance")
	return cmd
}

func newAccountsDeleteCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete an account without transaction history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			account, err := resolveAccount(ctx, app, args[0])
			if err != nil {
				return err
			}
			return app.Ledger.DeleteAccount(ctx, account.ID)
		},
	}
}

func newAccountsSetMainCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set-main <name>",
		Short: "Make an account the default import target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			account, err := resolveAccount(ctx, app, args[0])
			if err != nil {
				return err
			}
			return app.Ledger.SetMainAccount(ctx, account.ID)
		},
	}
}

func newAccountsSetBalanceCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set-balance <name> <balance>",
		Short: "Adjust an account to a target balance via a correction transaction",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			account, err := resolveAccount(ctx, app, args[0])
			if err != nil {
				return err
			}
			target, err := decimal.NewFromString(args[1])
			if err != nil {
				return fmt.Errorf("balance %q: %w", args[1], repository.ErrValidation)
			}
			adjustment, err := app.Ledger.SetBalance(ctx, account.ID, target, database.Now())
			if err != nil {
				return err
			}
			sign := "-"
			if adjustment.IsCredit {
				sign = "+"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s%s %s adjustment on %s.\n",
				sign, adjustment.Amount.StringFixed(2), app.Config.UI.Currency, account.Name)
			return nil
		},
	}
}
