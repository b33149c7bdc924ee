package tui

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/config"
	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/selection"
	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/tui/theme"

	"github.com/charmbracelet/huh"
)

// SetupValues holds the answers collected by the setup form.
type SetupValues struct {
	Budget   string
	Endpoint string
	APIKey   string
	Theme    string
}

// SetupValuesFrom pre-fills the form from an existing config.
func SetupValuesFrom(cfg config.Config) SetupValues {
	return SetupValues{
		Budget:   cfg.Budget.Target,
		Endpoint: cfg.Relay.Endpoint,
		APIKey:   cfg.Relay.APIKey,
		Theme:    cfg.Appearance.Theme,
	}
}

// Apply copies the answers into cfg. A blank API key keeps the existing one.
func (v SetupValues) Apply(cfg *config.Config) {
	target := selection.ParseAmount(v.Budget)
	if target.IsZero() {
		cfg.Budget.Target = ""
	} else {
		cfg.Budget.Target = target.String()
	}
	cfg.Relay.Endpoint = strings.TrimSpace(v.Endpoint)
	if key := strings.TrimSpace(v.APIKey); key != "" {
		cfg.Relay.APIKey = key
	}
	if theme.Valid(v.Theme) {
		cfg.Appearance.Theme = v.Theme
	}
}

// NewSetupForm builds the first-run form writing into vals.
func NewSetupForm(vals *SetupValues) *huh.Form {
	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, t := range theme.All {
		themeOpts = append(themeOpts, huh.NewOption(t.Name, t.Name))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to pibudget!").
				Description("Pick items from a price list and track them against a budget.\nLet's set up a few things."),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Default budget (RM)").
				Description("Leave empty to start without a budget.").
				Placeholder("250.00").
				Value(&vals.Budget).
				Validate(validateBudget),
			huh.NewInput().
				Title("Assistant endpoint").
				Description("URL of the hosted price analysis function. Optional.").
				Placeholder("https://<project>.supabase.co/functions/v1/analyze-prices").
				Value(&vals.Endpoint).
				Validate(validateEndpoint),
			huh.NewInput().
				Title("Assistant API key").
				Description("Sent as a bearer token. Leave blank to keep the current key.").
				EchoMode(huh.EchoModePassword).
				Value(&vals.APIKey),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&vals.Theme),
		),
	)
}

func validateBudget(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if selection.ParseAmount(s).IsZero() && s != "0" {
		return fmt.Errorf("enter a positive amount, e.g. 250.00")
	}
	return nil
}

func validateEndpoint(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("enter an http(s) URL")
	}
	return nil
}
