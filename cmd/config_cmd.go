package cmd

import (
	"fmt"
	"io"

	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	printConfig(cmd.OutOrStdout(), cfg, config.Path(), config.Exists())
	return nil
}

func printConfig(w io.Writer, cfg config.Config, path string, exists bool) {
	orDefault := func(s, def string) string {
		if s == "" {
			return def
		}
		return s
	}

	fmt.Fprintf(w, "  Config file: %s\n", path)
	if exists {
		fmt.Fprintln(w, "  Status: loaded")
	} else {
		fmt.Fprintln(w, "  Status: using defaults (no config file)")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "  [Catalog]")
	fmt.Fprintf(w, "    Database:  %s\n", orDefault(cfg.Catalog.DB, "not set"))
	fmt.Fprintf(w, "    JSON file: %s\n", orDefault(cfg.Catalog.Path, "not set"))
	if cfg.Catalog.DB == "" && cfg.Catalog.Path == "" {
		fmt.Fprintln(w, "    Using the built-in catalog")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "  [Budget]")
	fmt.Fprintf(w, "    Target: %s\n", orDefault(cfg.Budget.Target, "not set"))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "  [Relay]")
	endpoint := config.RelayEndpoint(cfg)
	fmt.Fprintf(w, "    Endpoint: %s\n", orDefault(endpoint, "not configured"))
	if endpoint != cfg.Relay.Endpoint {
		fmt.Fprintf(w, "              (from %s)\n", config.EnvRelayURL)
	}
	key := config.RelayKey(cfg)
	fmt.Fprintf(w, "    API key:  %s\n", config.Mask(key))
	if key != cfg.Relay.APIKey {
		fmt.Fprintf(w, "              (from %s)\n", config.EnvRelayKey)
	}
	fmt.Fprintf(w, "    Timeout:  %ds\n", cfg.Relay.TimeoutSec)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "  [Server]")
	fmt.Fprintf(w, "    Address: %s\n", cfg.Server.Addr)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "  [Log]")
	fmt.Fprintf(w, "    Level:  %s\n", cfg.Log.Level)
	fmt.Fprintf(w, "    Format: %s\n", cfg.Log.Format)
	fmt.Fprintf(w, "    File:   %s\n", orDefault(cfg.Log.File, "stderr"))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "  [Appearance]")
	fmt.Fprintf(w, "    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "  Run `pibudget setup` to reconfigure.")
}
