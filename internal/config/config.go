package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	API      APIConfig
	Database DatabaseConfig
	Insight  InsightConfig
	UI       UIConfig
}

// APIConfig holds backend connection settings.
type APIConfig struct {
	BaseURL        string
	Token          string
	TimeoutSeconds int
}

// DatabaseConfig holds the local cache database settings.
type DatabaseConfig struct {
	Path string
}

// InsightConfig holds forecast provider settings.
type InsightConfig struct {
	Provider string
	BaseURL  string
}

// UIConfig holds presentation settings.
type UIConfig struct {
	DateFormat     string
	CurrencySymbol string
	Timezone       string
}

// Load reads configuration from file and env. Env var overrides use prefix LEDGERLINE_.
func Load() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("api.base_url", "http://localhost:8080")
	v.SetDefault("api.token", "")
	v.SetDefault("api.timeout_seconds", 15)
	v.SetDefault("database.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "ledgerline", "cache.db"))
	v.SetDefault("insight.provider", "heuristic")
	v.SetDefault("insight.base_url", "")
	v.SetDefault("ui.date_format", "02/01")
	v.SetDefault("ui.currency_symbol", "$")
	v.SetDefault("ui.timezone", "Australia/Melbourne")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("LEDGERLINE_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "ledgerline"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("LEDGERLINE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// Save writes the provided config to disk, creating the config directory if needed.
// Used by the TUI settings view for non-sensitive preferences; the API token is
// stored in plain text, so encourage env vars for shared machines.
func Save(cfg Config) error {
	path := os.Getenv("LEDGERLINE_CONFIG")
	if path == "" {
		path = filepath.Join(os.Getenv("HOME"), ".config", "ledgerline", "config.toml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("api.base_url", cfg.API.BaseURL)
	v.Set("api.token", cfg.API.Token)
	v.Set("api.timeout_seconds", cfg.API.TimeoutSeconds)
	v.Set("database.path", cfg.Database.Path)
	v.Set("insight.provider", cfg.Insight.Provider)
	v.Set("insight.base_url", cfg.Insight.BaseURL)
	v.Set("ui.date_format", cfg.UI.DateFormat)
	v.Set("ui.currency_symbol", cfg.UI.CurrencySymbol)
	v.Set("ui.timezone", cfg.UI.Timezone)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
