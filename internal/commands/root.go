package commands

import (
	"database/sql"

	"github.com/spf13/cobra"

	"github.com/spendlog/spendlog/internal/config"
	"github.com/spendlog/spendlog/internal/database/repository"
	"github.com/spendlog/spendlog/internal/service"
)

// App bundles the wired services the subcommands operate on.
type App struct {
	Config       config.Config
	DB           *sql.DB
	Accounts     *repository.AccountRepo
	Categories   *repository.CategoryRepo
	Transactions *repository.TransactionRepo
	Rules        *repository.RuleRepo
	Ledger       *service.Ledger
	Pipeline     *service.Pipeline
	Reporter     *service.Reporter
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "spendlog",
		Short: "Personal finance ledger with rule-based categorization",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newImportCommand(app),
		newCategorizeCommand(app),
		newReportCommand(app),
		newSummaryCommand(app),
		newTransactionsCommand(app),
		newAccountsCommand(app),
		newCategoriesCommand(app),
		newRulesCommand(app),
		newClearTransactionsCommand(app),
	)

	return rootCmd
}
