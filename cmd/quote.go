package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/cli"
	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/selection"

	"github.com/spf13/cobra"
)

var (
	flagBudget string
	flagItems  []string
)

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Select items against a budget and print the total",
	Example: `  pibudget quote --location "W.P. Kuala Lumpur" --unit "" --budget 60 --item Cream --item Tissue
  pibudget quote -u 1l -b 30 -i Wine`,
	RunE: runQuote,
}

func init() {
	addFilterFlags(quoteCmd)
	quoteCmd.Flags().StringVarP(&flagBudget, "budget", "b", "", "Target budget (invalid or negative means none)")
	quoteCmd.Flags().StringArrayVarP(&flagItems, "item", "i", nil, "Item name to select (repeatable, applied in order)")
	rootCmd.AddCommand(quoteCmd)
}

func runQuote(cmd *cobra.Command, _ []string) error {
	eng, err := newFilteredEngine(cmd)
	if err != nil {
		return err
	}
	eng.SetTargetInput(flagBudget)

	skipped := applyItems(eng, flagItems)
	if !flagQuiet {
		for _, s := range skipped {
			fmt.Fprintf(cmd.ErrOrStderr(), "  Skipped %s\n", s)
		}
	}

	printQuote(cmd.OutOrStdout(), eng)
	return nil
}

// applyItems selects each named item in order through the budget policy and
// returns a note for every item that was not added.
func applyItems(eng *selection.Engine, names []string) []string {
	var skipped []string
	for _, name := range names {
		rec, ok := eng.Find(name)
		if !ok {
			skipped = append(skipped, fmt.Sprintf("%q: not in this location/unit", name))
			continue
		}
		err := eng.Select(rec)
		switch {
		case errors.Is(err, selection.ErrOverBudget):
			skipped = append(skipped, fmt.Sprintf("%q (%s): would exceed the budget", name, cli.FormatMoney(rec.Price)))
		case err != nil:
			skipped = append(skipped, fmt.Sprintf("%q: %v", name, err))
		}
	}
	return skipped
}

func printQuote(w io.Writer, eng *selection.Engine) {
	loc, unit := eng.Filter()
	budget := eng.Budget()
	selected := eng.Selected()

	fmt.Fprintln(w)
	fmt.Fprintln(w, cli.RenderTitle(fmt.Sprintf("QUOTE  %s  %s", loc, cli.FormatUnit(unit))))
	fmt.Fprintln(w)

	if len(eng.Visible()) == 0 {
		fmt.Fprintf(w, "  %s\n\n", cli.RenderMuted(cli.MsgNoItems))
		return
	}
	if len(selected) == 0 {
		fmt.Fprintf(w, "  %s\n\n", cli.RenderMuted(cli.MsgNoSelected))
	} else {
		rows := recordRows(selected)
		rows = append(rows, []string{"---"}, []string{"Total", "", cli.FormatMoney(budget.Total)})
		fmt.Fprint(w, cli.RenderTable(cli.Table{
			Title:   "Selected " + cli.FormatCount(len(selected)),
			Headers: []string{"Item", "Unit", "Price"},
			Rows:    rows,
		}))
		fmt.Fprintln(w)
	}

	if !budget.Constrained() {
		fmt.Fprintf(w, "  Total %s (no budget set)\n\n", cli.FormatMoney(budget.Total))
		return
	}
	fmt.Fprintf(w, "  %s  %s used\n", cli.RenderBudgetBar(budget, 30), cli.FormatPercent(cli.UsageRatio(budget)))
	fmt.Fprintf(w, "  %s\n\n", cli.RenderBanner(budget))
}
