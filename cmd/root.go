// Package cmd implements the pibudget CLI commands.
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/catalog"
	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/config"
	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/logging"
	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/relay"
	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	flagCatalog string
	flagDB      string
	flagQuiet   bool
)

var rootCmd = &cobra.Command{
	Use:          "pibudget",
	Short:        "Price list budget calculator",
	Long:         "Filter a price catalog by location and unit, select items against a budget, and ask an assistant about the data.",
	RunE:         runTUI,
	SilenceUsage: true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagCatalog, "catalog", "", "Catalog JSON file (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite catalog database (overrides --catalog)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
}

// loadConfig reads the config file, falling back to defaults when it is
// unreadable so a broken file never blocks read-only commands.
func loadConfig() config.Config {
	cfg, err := config.Load()
	if err != nil {
		if !flagQuiet {
			fmt.Fprintf(os.Stderr, "  Config unreadable, using defaults: %v\n", err)
		}
		return config.DefaultConfig()
	}
	return cfg
}

// newLogger builds the command logger from the [log] section.
func newLogger(cfg config.Config) *zap.Logger {
	log, err := logging.New(cfg.Log.Level, cfg.Log.Format, cfg.Log.File)
	if err != nil {
		if !flagQuiet {
			fmt.Fprintf(os.Stderr, "  Logging disabled: %v\n", err)
		}
		return zap.NewNop()
	}
	return log
}

// loadCatalog resolves the active catalog: --db, then --catalog, then the
// config file, then the built-in data.
func loadCatalog(cfg config.Config) (catalog.Source, error) {
	dbPath, jsonPath := flagDB, flagCatalog
	if dbPath == "" && jsonPath == "" {
		dbPath, jsonPath = cfg.Catalog.DB, cfg.Catalog.Path
	}

	switch {
	case dbPath != "":
		st, err := store.OpenExisting(dbPath)
		if err != nil {
			return nil, fmt.Errorf("opening catalog db: %w", err)
		}
		defer func() { _ = st.Close() }()

		cat, err := st.Catalog()
		if err != nil {
			return nil, fmt.Errorf("reading catalog db: %w", err)
		}
		return cat, nil

	case jsonPath != "":
		cat, err := catalog.LoadFile(jsonPath)
		if err != nil {
			return nil, fmt.Errorf("loading catalog: %w", err)
		}
		return cat, nil
	}

	return catalog.Default(), nil
}

// newRelay wires the HTTP client to a relay. The endpoint may be empty; calls
// then fail with relay.ErrNoEndpoint and surface as the generic message.
func newRelay(cfg config.Config, log *zap.Logger) *relay.Relay {
	timeout := time.Duration(cfg.Relay.TimeoutSec) * time.Second
	client := relay.NewClient(config.RelayEndpoint(cfg), config.RelayKey(cfg), timeout)
	return relay.New(client, relay.WithLogger(log))
}
