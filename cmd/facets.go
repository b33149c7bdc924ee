package cmd

import (
	"fmt"
	"io"

	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/catalog"
	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/cli"

	"github.com/spf13/cobra"
)

var facetsCmd = &cobra.Command{
	Use:   "facets",
	Short: "List catalog locations and units",
	RunE:  runFacets,
}

func init() {
	rootCmd.AddCommand(facetsCmd)
}

func runFacets(cmd *cobra.Command, _ []string) error {
	src, err := loadCatalog(loadConfig())
	if err != nil {
		return err
	}
	printFacets(cmd.OutOrStdout(), src)
	return nil
}

func printFacets(w io.Writer, src catalog.Source) {
	locations := catalog.Locations(src)
	units := catalog.Units(src)

	fmt.Fprintln(w)
	fmt.Fprintln(w, cli.RenderTitle(fmt.Sprintf("CATALOG  %s", cli.FormatCount(len(src.Records())))))
	fmt.Fprintln(w)

	rows := make([][]string, 0, len(locations))
	for _, loc := range locations {
		rows = append(rows, []string{loc, cli.FormatCount(countLocation(src, loc))})
	}
	fmt.Fprint(w, cli.RenderTable(cli.Table{
		Title:   "Locations",
		Headers: []string{"Location", "Items"},
		Rows:    rows,
	}))

	unitRows := make([][]string, 0, len(units))
	for _, u := range units {
		unitRows = append(unitRows, []string{cli.FormatUnit(u)})
	}
	fmt.Fprint(w, cli.RenderTable(cli.Table{
		Title:   "Units",
		Headers: []string{"Unit"},
		Rows:    unitRows,
	}))
}

func countLocation(src catalog.Source, location string) int {
	n := 0
	for _, rec := range src.Records() {
		if rec.Location == location {
			n++
		}
	}
	return n
}
