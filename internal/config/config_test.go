package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.APIBaseURL != "http://localhost:3001/api" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.SyncInterval != 5*time.Minute {
		t.Errorf("SyncInterval = %s, want 5m", cfg.SyncInterval)
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Errorf("HTTPTimeout = %s, want 30s", cfg.HTTPTimeout)
	}
	if cfg.Environment != "production" {
		t.Errorf("Environment = %q, want production", cfg.Environment)
	}
	if cfg.ForceFallback {
		t.Error("ForceFallback = true, want false")
	}
	if cfg.DataDir == "" {
		t.Error("DataDir is empty")
	}
	if cfg.DashboardAddr != "" {
		t.Errorf("DashboardAddr = %q, want empty", cfg.DashboardAddr)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("FRIENDSYNC_API_BASE_URL", "https://api.example.com/v1")
	t.Setenv("FRIENDSYNC_API_TOKEN", "tok-123")
	t.Setenv("FRIENDSYNC_DATA_DIR", "/tmp/fs-test")
	t.Setenv("FRIENDSYNC_FORCE_FALLBACK", "true")
	t.Setenv("FRIENDSYNC_SYNC_INTERVAL", "90s")
	t.Setenv("FRIENDSYNC_ENVIRONMENT", "development")
	t.Setenv("FRIENDSYNC_DASHBOARD_ADDR", ":9999")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.APIBaseURL != "https://api.example.com/v1" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.APIToken != "tok-123" {
		t.Errorf("APIToken = %q", cfg.APIToken)
	}
	if cfg.DataDir != "/tmp/fs-test" {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}
	if !cfg.ForceFallback {
		t.Error("ForceFallback = false, want true")
	}
	if cfg.SyncInterval != 90*time.Second {
		t.Errorf("SyncInterval = %s, want 90s", cfg.SyncInterval)
	}
	if cfg.Environment != "development" {
		t.Errorf("Environment = %q", cfg.Environment)
	}
	if cfg.DashboardAddr != ":9999" {
		t.Errorf("DashboardAddr = %q", cfg.DashboardAddr)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"empty base url", "FRIENDSYNC_API_BASE_URL", ""},
		{"zero interval", "FRIENDSYNC_SYNC_INTERVAL", "0s"},
		{"negative timeout", "FRIENDSYNC_HTTP_TIMEOUT", "-5s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("Load succeeded with %s=%q, want error", tt.key, tt.value)
			}
		})
	}
}
