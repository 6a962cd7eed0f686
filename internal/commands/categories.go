package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/spendlog/spendlog/internal/database/repository"
)

func newCategoriesCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage categories",
	}
	cmd.AddCommand(
		newCategoriesListCommand(app),
		newCategoriesAddCommand(app),
		newCategoriesDeleteCommand(app),
	)
	return cmd
}

func newCategoriesListCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cats, err := app.Categories.List(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
			for _, c := range cats {
				fmt.Fprintf(w, "%s\t%s\n", c.Name, c.Description)
			}
			return w.Flush()
		},
	}
}

func newCategoriesAddCommand(app *App) *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name := strings.TrimSpace(args[0])
			if name == "" {
				return fmt.Errorf("category name: %w", repository.ErrValidation)
			}
			if existing, err := app.Categories.GetByName(ctx, name); err != nil {
				return err
			} else if existing != nil {
				return fmt.Errorf("category %q already exists: %w", name, repository.ErrValidation)
			}
			return app.Categories.Insert(ctx, repository.Category{
				ID:          uuid.NewString(),
				Name:        name,
				Description: description,
			})
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "free-form note")
	return cmd
}

func newCategoriesDeleteCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a category; its transactions become uncategorized",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cat, err := app.Categories.GetByName(ctx, args[0])
			if err != nil {
				return err
			}
			if cat == nil {
				return fmt.Errorf("category %q: %w", args[0], repository.ErrNotFound)
			}
			return app.Categories.Delete(ctx, cat.ID)
		},
	}
}
