package commands

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/spendlog/spendlog/internal/database/repository"
)

func newRulesCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage classification rules",
	}
	cmd.AddCommand(
		newRulesListCommand(app),
		newRulesDeleteCommand(app),
	)
	return cmd
}

func newRulesListCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List rules in match order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			transferRules, err := app.Rules.ListTransferRules(ctx)
			if err != nil {
				return err
			}
			accountNames, err := accountNames(ctx, app)
			if err != nil {
				return err
			}
			if len(transferRules) > 0 {
				fmt.Fprintln(out, "Transfer rules (checked first):")
				w := tabwriter.NewWriter(out, 2, 4, 2, ' ', 0)
				for _, r := range transferRules {
					fmt.Fprintf(w, "  %s\t%q\t%s -> %s\n", shortID(r.ID), r.Pattern,
						accountNames[r.SourceAccountID], accountNames[r.TargetAccountID])
				}
				w.Flush()
			}

			categoryRules, err := app.Rules.ListCategoryRules(ctx)
			if err != nil {
				return err
			}
			names, err := categoryNames(ctx, app)
			if err != nil {
				return err
			}
			if len(categoryRules) > 0 {
				fmt.Fprintln(out, "Category rules:")
				w := tabwriter.NewWriter(out, 2, 4, 2, ' ', 0)
				for _, r := range categoryRules {
					qualifier := ""
					if r.Amount != nil {
						qualifier = "amount " + r.Amount.StringFixed(2)
					}
					if r.IsCredit != nil {
						if qualifier != "" {
							qualifier += ", "
						}
						qualifier += directionLabel(*r.IsCredit) + " only"
					}
					fmt.Fprintf(w, "  %s\t%q\t%s\t%s\n", shortID(r.ID), r.Pattern, names[r.CategoryID], qualifier)
				}
				w.Flush()
			}
			if len(transferRules) == 0 && len(categoryRules) == 0 {
				fmt.Fprintln(out, "No rules.")
			}
			return nil
		},
	}
}

func newRulesDeleteCommand(app *App) *cobra.Command {
	var transfer bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a rule; existing transactions are untouched",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if transfer {
				rules, err := app.Rules.ListTransferRules(ctx)
				if err != nil {
					return err
				}
				ids := make([]string, len(rules))
				for i, r := range rules {
					ids[i] = r.ID
				}
				id, err := matchID(ids, args[0])
				if err != nil {
					return err
				}
				return app.Rules.DeleteTransferRule(ctx, id)
			}
			rules, err := app.Rules.ListCategoryRules(ctx)
			if err != nil {
				return err
			}
			ids := make([]string, len(rules))
			for i, r := range rules {
				ids[i] = r.ID
			}
			id, err := matchID(ids, args[0])
			if err != nil {
				return err
			}
			return app.Rules.DeleteCategoryRule(ctx, id)
		},
	}
	cmd.Flags().BoolVar(&transfer, "transfer", false, "delete a transfer rule instead of a category rule")
	return cmd
}

func accountNames(ctx context.Context, app *App) (map[string]string, error) {
	accounts, err := app.Accounts.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(accounts))
	for _, a := range accounts {
		names[a.ID] = a.Name
	}
	return names, nil
}

// matchID resolves a full id or an unambiguous prefix against ids.
func matchID(ids []string, id string) (string, error) {
	match := ""
	for _, candidate := range ids {
		if candidate == id {
			return candidate, nil
		}
		if strings.HasPrefix(candidate, id) {
			if match != "" {
				return "", fmt.Errorf("rule id %q is ambiguous: %w", id, repository.ErrValidation)
			}
			match = candidate
		}
	}
	if match == "" {
		return "", fmt.Errorf("rule %q: %w", id, repository.ErrNotFound)
	}
	return match, nil
}
