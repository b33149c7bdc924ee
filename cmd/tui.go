package cmd

import (
	"fmt"

	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/config"
	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/logging"
	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/selection"
	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/tui"
	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive budget dashboard",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	cfg := loadConfig()
	theme.SetActive(cfg.Appearance.Theme)

	// Force TrueColor profile so all background styling produces ANSI codes
	// Without this, lipgloss may default to Ascii profile (no colors)
	lipgloss.SetColorProfile(termenv.TrueColor)

	// Stderr belongs to the alt-screen; only log when a file is configured
	log := zap.NewNop()
	if cfg.Log.File != "" {
		if l, err := logging.New(cfg.Log.Level, cfg.Log.Format, cfg.Log.File); err == nil {
			log = l
		}
	}
	defer func() { _ = log.Sync() }()

	src, err := loadCatalog(cfg)
	if err != nil {
		return err
	}
	eng := selection.New(src)
	eng.SetTargetInput(cfg.Budget.Target)

	app := tui.NewApp(tui.Options{
		Engine:     eng,
		Relay:      newRelay(cfg, log),
		Config:     cfg,
		ConfigPath: config.Path(),
		FirstRun:   !config.Exists(),
		Logger:     log,
	})
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}
