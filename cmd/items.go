package cmd

import (
	"fmt"
	"io"

	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/cli"
	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/model"
	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/selection"

	"github.com/spf13/cobra"
)

var (
	flagLocation string
	flagUnit     string
)

var itemsCmd = &cobra.Command{
	Use:   "items",
	Short: "List items for a location and unit",
	RunE:  runItems,
}

func init() {
	addFilterFlags(itemsCmd)
	rootCmd.AddCommand(itemsCmd)
}

func addFilterFlags(c *cobra.Command) {
	c.Flags().StringVarP(&flagLocation, "location", "l", "", "Location (default: first in catalog)")
	c.Flags().StringVarP(&flagUnit, "unit", "u", "", "Unit (default: first in catalog; pass \"\" for items without a unit)")
}

// newFilteredEngine builds an engine and applies the --location/--unit flags.
// Unset flags keep the engine's initial filter.
func newFilteredEngine(cmd *cobra.Command) (*selection.Engine, error) {
	src, err := loadCatalog(loadConfig())
	if err != nil {
		return nil, err
	}
	eng := selection.New(src)

	loc, unit := eng.Filter()
	if cmd.Flags().Changed("location") {
		loc = flagLocation
	}
	if cmd.Flags().Changed("unit") {
		unit = flagUnit
	}
	eng.SetFilter(loc, unit)
	return eng, nil
}

func runItems(cmd *cobra.Command, _ []string) error {
	eng, err := newFilteredEngine(cmd)
	if err != nil {
		return err
	}
	printItems(cmd.OutOrStdout(), eng)
	return nil
}

func printItems(w io.Writer, eng *selection.Engine) {
	loc, unit := eng.Filter()
	visible := eng.Visible()

	fmt.Fprintln(w)
	fmt.Fprintln(w, cli.RenderTitle(fmt.Sprintf("%s  %s", loc, cli.FormatUnit(unit))))
	fmt.Fprintln(w)

	if len(visible) == 0 {
		fmt.Fprintf(w, "  %s\n\n", cli.RenderMuted(cli.MsgNoItems))
		return
	}

	fmt.Fprint(w, cli.RenderTable(cli.Table{
		Title:   cli.FormatCount(len(visible)),
		Headers: []string{"Item", "Unit", "Price"},
		Rows:    recordRows(visible),
	}))
}

func recordRows(records []model.PriceRecord) [][]string {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{rec.Name, cli.FormatUnit(rec.Unit), cli.FormatMoney(rec.Price)})
	}
	return rows
}
