package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask PROMPT...",
	Short: "Ask the assistant a question about the price data",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	log := newLogger(cfg)
	defer func() { _ = log.Sync() }()

	prompt := strings.TrimSpace(strings.Join(args, " "))
	if prompt == "" {
		return errors.New("empty prompt")
	}

	out := cmd.OutOrStdout()
	reply, ok := newRelay(cfg, log).Ask(cmd.Context(), prompt)
	if !ok {
		fmt.Fprintln(out, "\n  (no response)")
		return nil
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %s\n\n", strings.ReplaceAll(reply.Content, "\n", "\n  "))
	return nil
}
