// Package config loads runtime configuration from the environment.
//
// Every key reads from a FRIENDSYNC_-prefixed environment variable and
// falls back to a default, so a bare binary runs with zero setup. A
// .env file, when present, is loaded by main before this package reads
// anything.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime settings.
type Config struct {
	// APIBaseURL is the remote FriendSync API root.
	APIBaseURL string

	// APIToken is the bearer token presented on every API request.
	APIToken string

	// DataDir is where the local store keeps its files.
	DataDir string

	// ForceFallback skips the sqlite probe and always uses the
	// document engine.
	ForceFallback bool

	// SyncInterval is the auto-sync period.
	SyncInterval time.Duration

	// Environment gates development-only operations like seeding.
	Environment string

	// DashboardAddr enables the websocket dashboard when non-empty.
	DashboardAddr string

	// LogFile, when set, routes logs to a rotated file instead of
	// stderr.
	LogFile string

	// HTTPTimeout bounds each API request.
	HTTPTimeout time.Duration
}

// Load reads configuration from FRIENDSYNC_* environment variables,
// applying defaults for anything unset.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FRIENDSYNC")
	v.AutomaticEnv()

	v.SetDefault("api_base_url", "http://localhost:3001/api")
	v.SetDefault("api_token", "")
	v.SetDefault("data_dir", defaultDataDir())
	v.SetDefault("force_fallback", false)
	v.SetDefault("sync_interval", "5m")
	v.SetDefault("environment", "production")
	v.SetDefault("dashboard_addr", "")
	v.SetDefault("log_file", "")
	v.SetDefault("http_timeout", "30s")

	cfg := &Config{
		APIBaseURL:    v.GetString("api_base_url"),
		APIToken:      v.GetString("api_token"),
		DataDir:       v.GetString("data_dir"),
		ForceFallback: v.GetBool("force_fallback"),
		SyncInterval:  v.GetDuration("sync_interval"),
		Environment:   v.GetString("environment"),
		DashboardAddr: v.GetString("dashboard_addr"),
		LogFile:       v.GetString("log_file"),
		HTTPTimeout:   v.GetDuration("http_timeout"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("api_base_url cannot be empty")
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir cannot be empty")
	}
	if c.SyncInterval <= 0 {
		return fmt.Errorf("sync_interval must be positive, got %s", c.SyncInterval)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http_timeout must be positive, got %s", c.HTTPTimeout)
	}
	return nil
}

// defaultDataDir is ~/.friendsync, or ./.friendsync when the home
// directory cannot be resolved.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".friendsync"
	}
	return filepath.Join(home, ".friendsync")
}
