// Package config loads and saves the pibudget TOML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	appName = "pibudget"

	// EnvRelayKey overrides relay.api_key.
	EnvRelayKey = "PIBUDGET_RELAY_KEY"
	// EnvRelayURL overrides relay.endpoint.
	EnvRelayURL = "PIBUDGET_RELAY_URL"
)

// Config holds all pibudget configuration.
type Config struct {
	Catalog    CatalogConfig    `toml:"catalog"`
	Budget     BudgetConfig     `toml:"budget"`
	Relay      RelayConfig      `toml:"relay"`
	Server     ServerConfig     `toml:"server"`
	Log        LogConfig        `toml:"log"`
	Appearance AppearanceConfig `toml:"appearance"`
}

// CatalogConfig selects where price records come from. DB wins over Path;
// with neither set the built-in catalog is used.
type CatalogConfig struct {
	Path string `toml:"path,omitempty"`
	DB   string `toml:"db,omitempty"`
}

// BudgetConfig holds the starting target.
type BudgetConfig struct {
	Target string `toml:"target,omitempty"`
}

// RelayConfig holds the hosted assistant function settings.
type RelayConfig struct {
	Endpoint   string `toml:"endpoint,omitempty"`
	APIKey     string `toml:"api_key,omitempty"`
	TimeoutSec int    `toml:"timeout_sec"`
}

// ServerConfig holds the local HTTP API settings.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	File   string `toml:"file,omitempty"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Relay: RelayConfig{
			TimeoutSec: 60,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8787",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
	}
}

// Dir returns the XDG-compliant config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", appName)
}

// Path returns the full path to the config file.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	return LoadFrom(Path())
}

// LoadFrom reads the config at path, returning defaults if it doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	return SaveTo(Path(), cfg)
}

// SaveTo writes the config to path with owner-only permissions.
func SaveTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return nil
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(Path())
	return err == nil
}

// RelayKey returns the relay API key from env var or config, in that order.
func RelayKey(cfg Config) string {
	if key := os.Getenv(EnvRelayKey); key != "" {
		return key
	}
	return cfg.Relay.APIKey
}

// RelayEndpoint returns the relay URL from env var or config, in that order.
func RelayEndpoint(cfg Config) string {
	if url := os.Getenv(EnvRelayURL); url != "" {
		return url
	}
	return cfg.Relay.Endpoint
}

// Mask hides all but the last four characters of a secret.
func Mask(secret string) string {
	if secret == "" {
		return "(not set)"
	}
	if len(secret) <= 4 {
		return strings.Repeat("*", len(secret))
	}
	return strings.Repeat("*", len(secret)-4) + secret[len(secret)-4:]
}
