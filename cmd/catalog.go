package cmd

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/catalog"
	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/store"

	"github.com/spf13/cobra"
)

var flagExportDB string

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the price catalog",
}

var catalogExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the active catalog to a SQLite database",
	Long:  "Write the active catalog (--catalog, config, or built-in) to a SQLite database usable with --db.",
	RunE:  runCatalogExport,
}

var catalogInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the contents of a SQLite catalog database",
	RunE:  runCatalogInfo,
}

func init() {
	catalogExportCmd.Flags().StringVarP(&flagExportDB, "out", "o", "", "Destination database path (required)")
	_ = catalogExportCmd.MarkFlagRequired("out")

	catalogCmd.AddCommand(catalogExportCmd)
	catalogCmd.AddCommand(catalogInfoCmd)
	rootCmd.AddCommand(catalogCmd)
}

func runCatalogExport(cmd *cobra.Command, _ []string) error {
	// loadCatalog reads every record into memory and closes the source, so
	// --out may name the database being read.
	src, err := loadCatalog(loadConfig())
	if err != nil {
		return err
	}
	return exportCatalog(cmd.OutOrStdout(), src, flagExportDB)
}

func exportCatalog(w io.Writer, src catalog.Source, dbPath string) error {
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", dbPath, err)
	}
	defer func() { _ = st.Close() }()

	if err := st.ReplaceAll(src.Records()); err != nil {
		return fmt.Errorf("writing catalog: %w", err)
	}
	return printStoreInfo(w, st, dbPath)
}

func runCatalogInfo(cmd *cobra.Command, _ []string) error {
	path := flagDB
	if path == "" {
		path = loadConfig().Catalog.DB
	}
	if path == "" {
		return errors.New("no database: pass --db or set [catalog] db in the config")
	}

	return catalogInfo(cmd.OutOrStdout(), path)
}

func catalogInfo(w io.Writer, path string) error {
	st, err := store.OpenExisting(path)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()
	return printStoreInfo(w, st, path)
}

func printStoreInfo(w io.Writer, st *store.Store, path string) error {
	info, err := st.Info()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "  Database: %s\n", path)
	fmt.Fprintf(w, "  Records:  %d\n", info.Records)
	if info.ExportedAt.IsZero() {
		fmt.Fprintln(w, "  Exported: never")
	} else {
		fmt.Fprintf(w, "  Exported: %s\n", info.ExportedAt.Local().Format(time.RFC3339))
	}
	return nil
}
