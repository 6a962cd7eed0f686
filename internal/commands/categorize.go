package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCategorizeCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "categorize",
		Short: "Work through the uncategorized backlog interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			resolver := newPromptResolver(cmd.InOrStdin(), cmd.OutOrStdout(), app)
			result, err := app.Pipeline.CategorizeUncategorized(ctx, resolver)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Categorized %d transactions, skipped %d.\n",
				result.Categorized, result.Skipped)
			return nil
		},
	}
}
