package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/catalog"
	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/server"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	flagServeAddr         string
	flagServeEventsBuffer int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the budget engine and assistant relay over HTTP",
	RunE:  runServe,
}

var serveStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the status of a running server",
	RunE:  runServeStatus,
}

func init() {
	serveCmd.PersistentFlags().StringVar(&flagServeAddr, "addr", "", "HTTP listen address (default from config)")
	serveCmd.Flags().IntVar(&flagServeEventsBuffer, "events-buffer", 200, "Max in-memory events retained")

	serveCmd.AddCommand(serveStatusCmd)
	rootCmd.AddCommand(serveCmd)
}

func serveAddr() string {
	if flagServeAddr != "" {
		return flagServeAddr
	}
	return loadConfig().Server.Addr
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg := loadConfig()
	log := newLogger(cfg)
	defer func() { _ = log.Sync() }()

	src, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	addr := serveAddr()
	svc := server.New(server.Config{
		Addr:         addr,
		EventsBuffer: flagServeEventsBuffer,
	}, src, newRelay(cfg, log), log)

	log.Info("catalog loaded",
		zap.Int("records", len(src.Records())),
		zap.Int("locations", len(catalog.Locations(src))))
	fmt.Printf("  pibudget listening on http://%s\n", addr)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runServeStatus(cmd *cobra.Command, _ []string) error {
	addr := serveAddr()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "  Address: http://%s\n", addr)

	client := &http.Client{Timeout: 2 * time.Second}
	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, "http://"+addr+"/v1/status", nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Fprintf(out, "  API status: unreachable (%v)\n", err)
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(out, "  API status: HTTP %d\n", resp.StatusCode)
		return nil
	}

	var st server.Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		fmt.Fprintf(out, "  API status: malformed response (%v)\n", err)
		return nil
	}

	fmt.Fprintf(out, "  Started: %s\n", st.StartedAt.Local().Format(time.RFC3339))
	fmt.Fprintf(out, "  Records: %d (%d locations, %d units)\n", st.Records, st.Locations, st.Units)
	fmt.Fprintf(out, "  Asks: %d\n", st.Asks)
	if st.RelayBusy {
		fmt.Fprintln(out, "  Relay: busy")
	} else {
		fmt.Fprintln(out, "  Relay: idle")
	}
	fmt.Fprintf(out, "  Events: %d  Subscribers: %d\n", st.EventCount, st.SubscriberCount)
	return nil
}
