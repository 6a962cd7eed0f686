package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newReportCommand(app *App) *cobra.Command {
	var months int

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Spending by category per accounting month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			periods, err := app.Reporter.MonthlySpending(cmd.Context(), months)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(periods) == 0 {
				fmt.Fprintln(out, "No transactions.")
				return nil
			}
			currency := app.Config.UI.Currency
			for _, p := range periods {
				fmt.Fprintf(out, "\n%s\n", p.Label)
				w := tabwriter.NewWriter(out, 2, 4, 2, ' ', 0)
				for _, c := range p.Categories {
					fmt.Fprintf(w, "  %s\t%s %s\t(%d)\n", c.Name, c.Total.StringFixed(2), currency, c.Count)
				}
				fmt.Fprintf(w, "  Net\t%s %s\t\n", p.Total.StringFixed(2), currency)
				w.Flush()
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&months, "months", "m", 3, "number of accounting months to show (0 for all)")
	return cmd
}

func newSummaryCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "All-time totals per category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			totals, err := app.Reporter.CategorySummary(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(totals) == 0 {
				fmt.Fprintln(out, "No transactions.")
				return nil
			}
			w := tabwriter.NewWriter(out, 2, 4, 2, ' ', 0)
			for _, c := range totals {
				fmt.Fprintf(w, "%s\t%s %s\t(%d)\n", c.Name, c.Total.StringFixed(2), app.Config.UI.Currency, c.Count)
			}
			return w.Flush()
		},
	}
}
