// Package theme defines color themes for the pibudget dashboard.
package theme

import "github.com/charmbracelet/lipgloss"

// Theme maps the dashboard's color roles to concrete colors.
type Theme struct {
	Name string

	// Surfaces
	Background    lipgloss.Color
	Surface       lipgloss.Color // cards
	SurfaceHover  lipgloss.Color // active tab
	SurfaceBright lipgloss.Color // cursor row
	Border        lipgloss.Color
	BorderAccent  lipgloss.Color // focused card

	// Text
	TextDim      lipgloss.Color // hints, disabled items
	TextMuted    lipgloss.Color // labels
	TextPrimary  lipgloss.Color
	Accent       lipgloss.Color
	AccentBright lipgloss.Color

	// Budget status, from comfortable to over
	Under   lipgloss.Color
	Near    lipgloss.Color
	Reached lipgloss.Color
	Over    lipgloss.Color

	Positive  lipgloss.Color // selected items, saved notices
	Assistant lipgloss.Color // chat replies
	Key       lipgloss.Color // key bindings in help
}

// Active is the currently selected theme.
var Active = FlexokiDark

// FlexokiDark is the default: warm, paper-inspired dark.
var FlexokiDark = Theme{
	Name: "flexoki-dark",

	Background:    "#100F0F",
	Surface:       "#1C1B1A",
	SurfaceHover:  "#282726",
	SurfaceBright: "#343331",
	Border:        "#403E3C",
	BorderAccent:  "#3AA99F",

	TextDim:      "#575653",
	TextMuted:    "#878580",
	TextPrimary:  "#FFFCF0",
	Accent:       "#3AA99F",
	AccentBright: "#5BC8BE",

	Under:   "#879A39",
	Near:    "#D0A215",
	Reached: "#DA702C",
	Over:    "#D14D41",

	Positive:  "#A3B859",
	Assistant: "#CE5D97",
	Key:       "#24837B",
}

// CatppuccinMocha is soft pastel on a dark base.
var CatppuccinMocha = Theme{
	Name: "catppuccin-mocha",

	Background:    "#1E1E2E",
	Surface:       "#313244",
	SurfaceHover:  "#45475A",
	SurfaceBright: "#585B70",
	Border:        "#585B70",
	BorderAccent:  "#89B4FA",

	TextDim:      "#6C7086",
	TextMuted:    "#A6ADC8",
	TextPrimary:  "#CDD6F4",
	Accent:       "#89B4FA",
	AccentBright: "#B4D0FB",

	Under:   "#A6E3A1",
	Near:    "#F9E2AF",
	Reached: "#FAB387",
	Over:    "#F38BA8",

	Positive:  "#C6F6C1",
	Assistant: "#F5C2E7",
	Key:       "#94E2D5",
}

// TokyoNight is cool blue and purple.
var TokyoNight = Theme{
	Name: "tokyo-night",

	Background:    "#1A1B26",
	Surface:       "#24283B",
	SurfaceHover:  "#343A52",
	SurfaceBright: "#414868",
	Border:        "#565F89",
	BorderAccent:  "#7AA2F7",

	TextDim:      "#565F89",
	TextMuted:    "#A9B1D6",
	TextPrimary:  "#C0CAF5",
	Accent:       "#7AA2F7",
	AccentBright: "#A9C1FF",

	Under:   "#9ECE6A",
	Near:    "#E0AF68",
	Reached: "#FF9E64",
	Over:    "#F7768E",

	Positive:  "#B9E87A",
	Assistant: "#BB9AF7",
	Key:       "#7DCFFF",
}

// Terminal sticks to the ANSI 16 palette.
var Terminal = Theme{
	Name: "terminal",

	Background:    "0",
	Surface:       "0",
	SurfaceHover:  "8",
	SurfaceBright: "8",
	Border:        "8",
	BorderAccent:  "6",

	TextDim:      "8",
	TextMuted:    "7",
	TextPrimary:  "15",
	Accent:       "6",
	AccentBright: "14",

	Under:   "2",
	Near:    "3",
	Reached: "11",
	Over:    "1",

	Positive:  "10",
	Assistant: "5",
	Key:       "6",
}

// All available themes, in the order offered by setup.
var All = []Theme{FlexokiDark, CatppuccinMocha, TokyoNight, Terminal}

// ByName returns a theme by its name, defaulting to FlexokiDark.
func ByName(name string) Theme {
	for _, t := range All {
		if t.Name == name {
			return t
		}
	}
	return FlexokiDark
}

// Names lists the theme names in display order.
func Names() []string {
	names := make([]string, len(All))
	for i, t := range All {
		names[i] = t.Name
	}
	return names
}

// Valid reports whether name is a known theme.
func Valid(name string) bool {
	for _, t := range All {
		if t.Name == name {
			return true
		}
	}
	return false
}

// SetActive sets the active theme by name.
func SetActive(name string) {
	Active = ByName(name)
}
