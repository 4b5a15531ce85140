package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/kartoza/kartoza-video-composer/internal/geometry"
)

const (
	// DefaultConfigDir is the default configuration directory
	DefaultConfigDir = ".config/kartoza-video-composer"
	// ConfigFileName is the name of the configuration file
	ConfigFileName = "config.json"
)

// Storage backends
const (
	StorageGCS  = "gcs"
	StorageFile = "file"
)

// Config holds the application configuration
type Config struct {
	AppEnv   string `json:"app_env"`
	LogLevel string `json:"log_level,omitempty"`
	Port     string `json:"port"`

	TempDir        string `json:"temp_dir"`
	Margin         int    `json:"margin"`
	FFmpegPath     string `json:"ffmpeg_path,omitempty"`
	FFprobePath    string `json:"ffprobe_path,omitempty"`
	RemoteURL      string `json:"remote_url,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds"`

	Storage StorageConfig `json:"storage"`

	SweepMaxAgeMinutes   int `json:"sweep_max_age_minutes"`
	SweepIntervalMinutes int `json:"sweep_interval_minutes"`
}

// StorageConfig selects where composed videos are published
type StorageConfig struct {
	Backend       string `json:"backend"`
	Bucket        string `json:"bucket,omitempty"`
	PublicBaseURL string `json:"public_base_url,omitempty"`
	Path          string `json:"path,omitempty"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		AppEnv:         "development",
		Port:           "8080",
		TempDir:        filepath.Join(os.TempDir(), "kartoza-video-composer"),
		Margin:         geometry.DefaultMargin,
		TimeoutSeconds: 300,
		Storage: StorageConfig{
			Backend: StorageFile,
			Path:    filepath.Join(GetConfigDir(), "published"),
		},
		SweepMaxAgeMinutes:   60,
		SweepIntervalMinutes: 10,
	}
}

// Timeout returns the per-request wall clock limit
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SweepMaxAge returns how old a work directory must be to count as orphaned
func (c Config) SweepMaxAge() time.Duration {
	return time.Duration(c.SweepMaxAgeMinutes) * time.Minute
}

// SweepInterval returns the delay between sweeps in serve mode
func (c Config) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalMinutes) * time.Minute
}

// Validate checks values the pipeline cannot run with
func (c Config) Validate() error {
	if c.TempDir == "" {
		return fmt.Errorf("temp_dir is required")
	}
	if c.Margin < 0 {
		return fmt.Errorf("margin must not be negative, got %d", c.Margin)
	}
	if c.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout_seconds must be positive, got %d", c.TimeoutSeconds)
	}
	// Work directory mtimes do not move while ffmpeg encodes, so a sweep
	// younger than the timeout could remove a running composition
	if c.SweepMaxAge() <= c.Timeout() {
		return fmt.Errorf("sweep_max_age_minutes (%s) must exceed the composition timeout (%s)", c.SweepMaxAge(), c.Timeout())
	}
	if c.SweepIntervalMinutes < 0 {
		return fmt.Errorf("sweep_interval_minutes must not be negative, got %d", c.SweepIntervalMinutes)
	}
	switch c.Storage.Backend {
	case StorageGCS:
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage bucket is required for the gcs backend")
		}
	case StorageFile:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage path is required for the file backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	return nil
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultConfigDir
	}
	return filepath.Join(home, DefaultConfigDir)
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	return filepath.Join(GetConfigDir(), ConfigFileName)
}

// Load reads the default config file, then applies .env files and the
// environment on top
func Load() (*Config, error) {
	// Missing .env files are fine
	_ = godotenv.Load(".env", ".env.local")
	return LoadFrom(GetConfigPath())
}

// LoadFrom reads a config file and overlays environment variables
func LoadFrom(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(configPath)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", configPath, err)
		}
	}

	ApplyEnv(&cfg)
	return &cfg, nil
}

// ApplyEnv overrides config values with any environment variables that are set
func ApplyEnv(cfg *Config) {
	cfg.AppEnv = getEnv("APP_ENV", cfg.AppEnv)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.TempDir = getEnv("COMPOSER_TEMP_DIR", cfg.TempDir)
	cfg.Margin = getEnvInt("COMPOSER_MARGIN", cfg.Margin)
	cfg.FFmpegPath = getEnv("COMPOSER_FFMPEG_PATH", cfg.FFmpegPath)
	cfg.FFprobePath = getEnv("COMPOSER_FFPROBE_PATH", cfg.FFprobePath)
	cfg.RemoteURL = getEnv("COMPOSER_REMOTE_URL", cfg.RemoteURL)
	cfg.TimeoutSeconds = getEnvInt("COMPOSER_TIMEOUT_SECONDS", cfg.TimeoutSeconds)
	cfg.Storage.Backend = getEnv("STORAGE_BACKEND", cfg.Storage.Backend)
	cfg.Storage.Bucket = getEnv("STORAGE_BUCKET", cfg.Storage.Bucket)
	cfg.Storage.PublicBaseURL = getEnv("STORAGE_PUBLIC_BASE_URL", cfg.Storage.PublicBaseURL)
	cfg.Storage.Path = getEnv("STORAGE_PATH", cfg.Storage.Path)
	cfg.SweepMaxAgeMinutes = getEnvInt("SWEEP_MAX_AGE_MINUTES", cfg.SweepMaxAgeMinutes)
	cfg.SweepIntervalMinutes = getEnvInt("SWEEP_INTERVAL_MINUTES", cfg.SweepIntervalMinutes)
}

// Save saves the configuration to path
func Save(cfg *Config, configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
