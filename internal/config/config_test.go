package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var envKeys = []string{
	"APP_ENV", "LOG_LEVEL", "PORT", "COMPOSER_TEMP_DIR", "COMPOSER_MARGIN",
	"COMPOSER_FFMPEG_PATH", "COMPOSER_FFPROBE_PATH", "COMPOSER_REMOTE_URL",
	"COMPOSER_TIMEOUT_SECONDS", "STORAGE_BACKEND", "STORAGE_BUCKET",
	"STORAGE_PUBLIC_BASE_URL", "STORAGE_PATH", "SWEEP_MAX_AGE_MINUTES",
	"SWEEP_INTERVAL_MINUTES",
}

// clearEnv blanks every variable the loader reads for the duration of a test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Margin != 50 {
		t.Errorf("expected margin 50, got %d", cfg.Margin)
	}
	if cfg.TimeoutSeconds != 300 {
		t.Errorf("expected 300s timeout, got %d", cfg.TimeoutSeconds)
	}
	if cfg.Storage.Backend != StorageFile {
		t.Errorf("expected file backend by default, got %q", cfg.Storage.Backend)
	}
	if cfg.TempDir == "" {
		t.Error("expected TempDir to be set")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestGetConfigDir(t *testing.T) {
	dir := GetConfigDir()

	if dir == "" {
		t.Error("expected non-empty config directory")
	}
	if !strings.HasSuffix(filepath.ToSlash(dir), DefaultConfigDir) {
		t.Errorf("expected config dir to end with %q, got %q", DefaultConfigDir, dir)
	}
}

func TestLoadFrom_NoFile(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), ConfigFileName))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Margin != DefaultConfig().Margin {
		t.Errorf("expected default margin, got %d", cfg.Margin)
	}
}

func TestSaveAndLoad(t *testing.T) {
	clearEnv(t)
	configPath := filepath.Join(t.TempDir(), "nested", ConfigFileName)

	cfg := DefaultConfig()
	cfg.Margin = 24
	cfg.Storage = StorageConfig{Backend: StorageGCS, Bucket: "outreach-videos"}

	if err := Save(&cfg, configPath); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if loaded.Margin != 24 {
		t.Errorf("expected margin 24, got %d", loaded.Margin)
	}
	if loaded.Storage.Backend != StorageGCS || loaded.Storage.Bucket != "outreach-videos" {
		t.Errorf("storage not round tripped: %+v", loaded.Storage)
	}
}

func TestLoadFrom_InvalidJSON(t *testing.T) {
	clearEnv(t)
	configPath := filepath.Join(t.TempDir(), ConfigFileName)
	if err := os.WriteFile(configPath, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFrom(configPath); err == nil {
		t.Error("expected parse error")
	}
}

func TestApplyEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("COMPOSER_MARGIN", "32")
	t.Setenv("COMPOSER_TIMEOUT_SECONDS", "90")
	t.Setenv("STORAGE_BACKEND", "gcs")
	t.Setenv("STORAGE_BUCKET", "from-env")
	t.Setenv("COMPOSER_REMOTE_URL", "http://composer.internal:8080")

	cfg := DefaultConfig()
	ApplyEnv(&cfg)

	if cfg.Margin != 32 {
		t.Errorf("expected margin 32, got %d", cfg.Margin)
	}
	if cfg.Timeout() != 90*time.Second {
		t.Errorf("expected 90s timeout, got %v", cfg.Timeout())
	}
	if cfg.Storage.Backend != StorageGCS || cfg.Storage.Bucket != "from-env" {
		t.Errorf("storage env not applied: %+v", cfg.Storage)
	}
	if cfg.RemoteURL != "http://composer.internal:8080" {
		t.Errorf("remote URL not applied: %q", cfg.RemoteURL)
	}
}

func TestApplyEnv_IgnoresBadIntegers(t *testing.T) {
	clearEnv(t)
	t.Setenv("COMPOSER_MARGIN", "wide")

	cfg := DefaultConfig()
	ApplyEnv(&cfg)

	if cfg.Margin != 50 {
		t.Errorf("expected fallback margin 50, got %d", cfg.Margin)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative margin", func(c *Config) { c.Margin = -1 }},
		{"zero timeout", func(c *Config) { c.TimeoutSeconds = 0 }},
		{"empty temp dir", func(c *Config) { c.TempDir = "" }},
		{"gcs without bucket", func(c *Config) { c.Storage = StorageConfig{Backend: StorageGCS} }},
		{"file without path", func(c *Config) { c.Storage = StorageConfig{Backend: StorageFile} }},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "s3" }},
		{"zero sweep age", func(c *Config) { c.SweepMaxAgeMinutes = 0 }},
		{"sweep age below timeout", func(c *Config) { c.SweepMaxAgeMinutes = 5; c.TimeoutSeconds = 600 }},
		{"sweep age equal to timeout", func(c *Config) { c.SweepMaxAgeMinutes = 10; c.TimeoutSeconds = 600 }},
		{"negative sweep interval", func(c *Config) { c.SweepIntervalMinutes = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestValidate_SweepAgeAboveTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TimeoutSeconds = 600
	cfg.SweepMaxAgeMinutes = 11
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected a sweep age above the timeout to pass, got %v", err)
	}
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestDurations(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.SweepMaxAge() != time.Hour {
		t.Errorf("expected 1h sweep age, got %v", cfg.SweepMaxAge())
	}
	if cfg.SweepInterval() != 10*time.Minute {
		t.Errorf("expected 10m sweep interval, got %v", cfg.SweepInterval())
	}
}
