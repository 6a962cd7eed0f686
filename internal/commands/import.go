package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/spendlog/spendlog/internal/database/repository"
	"github.com/spendlog/spendlog/internal/importer"
)

func newImportCommand(app *App) *cobra.Command {
	var accountName string
	var noPrompt bool

	cmd := &cobra.Command{
		Use:   "import <statement.csv>",
		Short: "Import a bank statement export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			account, err := resolveAccount(ctx, app, accountName)
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			records, err := importer.ParseZKB(f)
			if err != nil {
				return fmt.Errorf("parsing %s: %w", args[0], err)
			}

			var resolver *promptResolver
			if !noPrompt {
				resolver = newPromptResolver(cmd.InOrStdin(), cmd.OutOrStdout(), app)
			}
			result, err := app.Pipeline.ImportBatch(ctx, records, account.ID, resolverOrNil(resolver))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d transactions into %s, skipped %d duplicates.\n",
				result.Imported, account.Name, result.Skipped)
			return nil
		},
	}
	cmd.Flags().StringVarP(&accountName, "account", "a", "", "account to import into (default: main account)")
	cmd.Flags().BoolVar(&noPrompt, "no-prompt", false, "leave unmatched transactions uncategorized instead of asking")
	return cmd
}

// resolveAccount finds the named account, or the main account when name is
// empty.
func resolveAccount(ctx context.Context, app *App, name string) (*repository.Account, error) {
	if name == "" {
		account, err := app.Accounts.Main(ctx)
		if err != nil {
			return nil, err
		}
		if account == nil {
			return nil, fmt.Errorf("no main account configured: %w", repository.ErrNotFound)
		}
		return account, nil
	}
	account, err := app.Accounts.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, fmt.Errorf("account %q: %w", name, repository.ErrNotFound)
	}
	return account, nil
}
